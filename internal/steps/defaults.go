package steps

import "fmt"

// DefaultSteps returns the standard SDLC workflow in execution order.
//
// The chain is: roadmap → user stories → design docs → code generation →
// code review → security review → test cases → QA testing → deployment →
// monitoring. Code review depends on the code generation artifact.
func DefaultSteps() []Step {
	return []Step{
		{ID: IntakeID, Label: "Getting Started"},
		{
			ID:             "roadmap",
			Label:          "Road Map",
			PromptTemplate: "Create a comprehensive project roadmap for: '{prompt}'. Include the following sections: 1) **Project Overview** - Brief summary and objectives, 2) **Development Phases** - Break down the project into logical phases with detailed tasks and milestones, 3) **Timeline Estimate** - Provide realistic time estimates for each phase and overall project duration (in weeks/months), 4) **Budget Estimation** - Detailed cost breakdown in Indian Rupees (INR) including development costs, infrastructure, tools, testing, deployment, and contingency (assume standard Indian software development rates), 5) **Resource Requirements** - Team size, skill sets needed, and role definitions, 6) **Risk Assessment** - Potential risks and mitigation strategies, 7) **Success Metrics** - Key performance indicators and deliverables for each phase. Provide specific numbers and be realistic about Indian market costs.",
		},
		{
			ID:             "user_stories",
			Label:          "User Stories",
			PromptTemplate: "Generate a comprehensive and detailed set of user stories for a project described as: '{prompt}'. For each user story, include a title, user role, goal, and detailed acceptance criteria following the 'Given-When-Then' format. Group stories by epic or feature where applicable.",
		},
		{
			ID:             "design_docs",
			Label:          "Design Docs",
			PromptTemplate: "Create a functional and technical design document for: '{prompt}'. The functional section should include user flows and detailed feature specifications. The technical section should propose a system architecture, recommend a technology stack, and define the data models with fields and relationships.",
		},
		{
			ID:             "code_generation",
			Label:          "Code Generation",
			PromptTemplate: "Generate a complete, single-file HTML document for the core feature of: '{prompt}'. The file must include all necessary HTML, CSS (using Tailwind CSS classes loaded from a CDN), and JavaScript to create a visually appealing and functional frontend. The code should be self-contained and ready to be rendered directly. Provide only the raw HTML code, ensuring it is a complete and valid document.",
		},
		{
			ID:             "code_review",
			Label:          "Code Review",
			DependsOn:      "code_generation",
			PromptTemplate: "Act as a senior software engineer and perform a thorough code review on the generated code for '{prompt}'. Check for code quality, potential bugs, security vulnerabilities, performance issues, and adherence to best practices. Provide the feedback in a structured list with clear explanations and suggestions for improvement.\n\nCode to review:\n{artifact}",
		},
		{
			ID:             "security_review",
			Label:          "Security Review",
			PromptTemplate: "Perform a security review for the application described as '{prompt}'. Identify potential vulnerabilities such as injection attacks, cross-site scripting (XSS), insecure authentication, and data exposure. Suggest specific mitigation strategies for each identified risk.",
		},
		{
			ID:             "test_cases",
			Label:          "Test Cases",
			PromptTemplate: "Create a detailed set of test cases for the project: '{prompt}'. Include a mix of unit tests, integration tests, and end-to-end tests. For each test case, provide a test ID, a description, steps to reproduce, expected results, and define if it's a positive or negative test.",
		},
		{
			ID:             "qa_testing",
			Label:          "QA Testing",
			PromptTemplate: "Develop a comprehensive QA (Quality Assurance) testing plan for the project: '{prompt}'. The plan should outline the testing scope, objectives, methodologies (manual and automated), required resources, and a timeline. Define the entry and exit criteria for the QA phase.",
		},
		{
			ID:             "deployment",
			Label:          "Deployment Plan",
			PromptTemplate: "Create a detailed, step-by-step deployment plan for the application: '{prompt}'. The plan should cover pre-deployment checks, environment setup, deployment strategy (e.g., blue-green), the deployment process itself, and a comprehensive rollback strategy in case of failure.",
		},
		{
			ID:             "monitoring",
			Label:          "Monitoring Plan",
			PromptTemplate: "Design a monitoring and observability plan for the application: '{prompt}'. Specify key metrics to monitor (e.g., latency, error rate, CPU utilization), recommend monitoring tools (like Prometheus, Grafana), and describe a logging strategy. Outline an alerting system for critical issues.",
		},
	}
}

// defaultRegistry is the package-level registry built from [DefaultSteps].
var defaultRegistry = MustNewRegistry(DefaultSteps())

// Default returns the registry of the standard SDLC workflow.
func Default() *Registry {
	return defaultRegistry
}

// Override replaces the label and/or prompt template of a step.
// Empty fields leave the default untouched.
type Override struct {
	Label          string
	PromptTemplate string
}

// WithOverrides returns a copy of defs with the given per-id overrides applied.
// Overrides for ids that are not in defs are reported as [ErrUnknownStep].
func WithOverrides(defs []Step, overrides map[string]Override) ([]Step, error) {
	out := make([]Step, len(defs))
	copy(out, defs)

	pos := make(map[string]int, len(out))
	for i, s := range out {
		pos[s.ID] = i
	}
	for id, o := range overrides {
		i, ok := pos[id]
		if !ok {
			return nil, fmt.Errorf("override for %q: %w", id, ErrUnknownStep)
		}
		if o.Label != "" {
			out[i].Label = o.Label
		}
		if o.PromptTemplate != "" {
			out[i].PromptTemplate = o.PromptTemplate
		}
	}
	return out, nil
}
