// Package assistant answers short questions about the current project.
//
// The assistant sends the user's question together with a project context
// (description, current step, and an excerpt of every generated artifact) to
// a [Completer] and returns the reply.
//
// Key types:
//   - [Assistant] - Builds the prompt and asks the completer
//   - [Completer] - Single-turn text completion; satisfied by gemini.Client
//   - [MockCompleter] - Test implementation with configurable responses
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sdlcwizard/internal/steps"
	"sdlcwizard/internal/workflow"
)

// excerptLength is how many characters of each artifact go into the context.
const excerptLength = 500

var (
	// ErrNoCredential is returned when the session has no API key yet.
	ErrNoCredential = errors.New("an API key is required to use the assistant")

	// ErrEmptyQuestion is returned for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")
)

const systemPrompt = `You are a project assistant for a specific software development project. Provide brief, practical answers (2-4 sentences max) based on the project context provided.

Focus on:
- Answering questions specific to this project
- Referencing the actual generated content when relevant
- Providing project-specific guidance and suggestions
- Helping with current step or related project phases

Keep responses:
- Short and actionable
- Specific to the current project
- Reference actual project details when possible
- Professional but conversational

If asked about general topics not related to this project, briefly relate it back to the project context.`

// Completer sends a single prompt and returns the model's reply.
type Completer interface {
	Complete(ctx context.Context, text, credential string) (string, error)
}

// Assistant answers project questions.
type Assistant struct {
	completer Completer
	reg       *steps.Registry
}

// New creates an assistant that labels steps using reg.
func New(completer Completer, reg *steps.Registry) *Assistant {
	return &Assistant{completer: completer, reg: reg}
}

// Ask answers question in the context of state.
func (a *Assistant) Ask(ctx context.Context, question string, state workflow.State) (string, error) {
	if state.Credential == "" {
		return "", ErrNoCredential
	}
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	reply, err := a.completer.Complete(ctx, a.Prompt(question, state), state.Credential)
	if err != nil {
		return "", fmt.Errorf("could not generate response: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// Prompt builds the full text sent for question.
func (a *Assistant) Prompt(question string, state workflow.State) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	if ctxText := BuildContext(a.reg, state); ctxText != "" {
		b.WriteString("\n\nProject Context:\n")
		b.WriteString(ctxText)
	}
	b.WriteString("\nUser Question: ")
	b.WriteString(question)
	return b.String()
}

// BuildContext summarizes the project for the assistant. Artifacts are listed
// in workflow order and cut to a short excerpt.
func BuildContext(reg *steps.Registry, state workflow.State) string {
	var b strings.Builder
	if state.ProjectDescription != "" {
		fmt.Fprintf(&b, "Project Description: %s\n\n", state.ProjectDescription)
	}
	if state.CurrentStep != "" {
		fmt.Fprintf(&b, "Current Step: %s\n\n", reg.Label(state.CurrentStep))
	}

	var artifacts strings.Builder
	for _, s := range reg.Steps() {
		text := state.Record(s.ID).Content
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&artifacts, "%s:\n%s\n\n", s.Label, excerpt(text, excerptLength))
	}
	if artifacts.Len() > 0 {
		b.WriteString("Generated Project Content:\n")
		b.WriteString(artifacts.String())
	}
	return b.String()
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// MockCompleter implements [Completer] for testing.
type MockCompleter struct {
	// Reply is returned when Err is nil.
	Reply string

	// Err is the error to return.
	Err error

	// Prompts records every prompt received.
	Prompts []string
}

// Complete returns the configured reply or error.
func (m *MockCompleter) Complete(_ context.Context, text, _ string) (string, error) {
	m.Prompts = append(m.Prompts, text)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}
