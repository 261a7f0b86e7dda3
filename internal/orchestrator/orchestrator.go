// Package orchestrator decides when the current step must be generated and
// runs the generation.
//
// The [Orchestrator] never mutates workflow state itself. It reads a
// snapshot from the [workflow.Controller], calls a [Generator], and hands the
// result back through [workflow.Controller.RecordGeneration]. At most one
// generation is in flight per orchestrator.
//
// A generation is split into three phases so an event loop can run the slow
// middle phase off its own goroutine:
//
//	job, ok := o.Begin(ctx)      // decide, build prompt, mark in flight
//	res := o.Execute(ctx, job)   // call the generation service
//	o.Complete(ctx, job, res)    // record the result, clear in flight
//
// [Orchestrator.Pass] runs all three synchronously.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"sdlcwizard/internal/steps"
	"sdlcwizard/internal/workflow"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 60 * time.Second

// feedbackInstruction is appended to the prompt when feedback is pending.
const feedbackInstruction = "\n\nPlease incorporate this feedback: "

// Job is a generation that has been started by [Orchestrator.Begin].
type Job struct {
	// ID uniquely identifies the job in logs.
	ID string

	// Step is the step being generated.
	Step steps.Step

	// Prompt is the request sent to the generator. Empty for local jobs.
	Prompt string

	// Credential authorizes the call.
	Credential string

	// Local, when non-empty, is stored as the content without calling the
	// generator.
	Local string

	// Feedback is the pending feedback consumed into the prompt.
	Feedback string

	// Ticket must match at completion for the result to be recorded.
	Ticket workflow.Ticket
}

// ProgressCallback is invoked when a job starts and when it finishes.
type ProgressCallback func(job *Job, done bool)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout sets the per-call timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithProgressCallback reports job start and completion.
func WithProgressCallback(cb ProgressCallback) Option {
	return func(o *Orchestrator) {
		o.progress = cb
	}
}

// Orchestrator runs step generations for one controller.
type Orchestrator struct {
	ctrl     *workflow.Controller
	gen      Generator
	timeout  time.Duration
	logger   *slog.Logger
	progress ProgressCallback

	mu       sync.Mutex
	inFlight bool
}

// New creates an orchestrator for ctrl that generates with gen.
func New(ctrl *workflow.Controller, gen Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ctrl:    ctrl,
		gen:     gen,
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// InFlight reports whether a job has begun and not yet completed.
func (o *Orchestrator) InFlight() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.inFlight
}

// NeedsGeneration reports whether the current step of s should be generated:
// it is a real step and it has no content or has pending feedback.
func NeedsGeneration(reg *steps.Registry, s workflow.State) bool {
	id := s.CurrentStep
	if steps.IsIntake(id) || steps.IsTerminal(id) {
		return false
	}
	if _, ok := reg.StepAt(id); !ok {
		return false
	}
	return !s.HasContent(id) || s.Record(id).Feedback != ""
}

// Begin starts a job for the current step if one is needed and none is in
// flight. Pending feedback is consumed into the prompt. The boolean is false
// when there is nothing to do.
func (o *Orchestrator) Begin(ctx context.Context) (*Job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		return nil, false
	}

	reg := o.ctrl.Registry()
	state := o.ctrl.Snapshot()
	if !NeedsGeneration(reg, state) {
		return nil, false
	}
	step, _ := reg.StepAt(state.CurrentStep)

	feedback, ticket := o.ctrl.ConsumeFeedback(ctx, step.ID)
	job := &Job{
		ID:         o.newJobID(step.ID),
		Step:       step,
		Credential: state.Credential,
		Feedback:   feedback,
		Ticket:     ticket,
	}
	o.buildPrompt(job, state, feedback)

	o.inFlight = true
	o.logger.Info("generation started", "job", job.ID, "step", step.ID, "local", job.Local != "")
	if o.progress != nil {
		o.progress(job, false)
	}
	return job, true
}

// buildPrompt fills in the job's prompt, or its local content when the step
// cannot be sent to the generator.
func (o *Orchestrator) buildPrompt(job *Job, state workflow.State, feedback string) {
	step := job.Step
	reg := o.ctrl.Registry()

	var artifact string
	if step.DependsOn != "" {
		artifact = state.Record(step.DependsOn).Content
		if !state.HasContent(step.DependsOn) {
			job.Local = dependencyMissingMessage(step.Label, reg.Label(step.DependsOn))
			return
		}
	}
	if !step.HasTemplate() {
		job.Local = manualStepMessage(step.Label)
		return
	}

	prompt := strings.ReplaceAll(step.PromptTemplate, steps.PromptPlaceholder, state.ProjectDescription)
	if step.DependsOn != "" {
		prompt = strings.ReplaceAll(prompt, steps.ArtifactPlaceholder, artifact)
	}
	if feedback != "" {
		prompt += feedbackInstruction + feedback
	}
	job.Prompt = prompt
}

// Execute runs the job. Local jobs succeed immediately with their content.
func (o *Orchestrator) Execute(ctx context.Context, job *Job) Result {
	if job.Local != "" {
		return Success(job.Local)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	res := o.gen.Generate(ctx, Request{
		Prompt:     job.Prompt,
		StepLabel:  job.Step.Label,
		Credential: job.Credential,
	})
	switch {
	case res.OK && strings.TrimSpace(res.Text) == "":
		// Blank content would leave the step needing generation forever.
		res = Failure(fmt.Sprintf("Error: The generation service returned no content for %s.", job.Step.Label))
	case !res.OK && res.ErrorMessage == "":
		res.ErrorMessage = fmt.Sprintf("Error: Could not generate content for %s.", job.Step.Label)
	}

	o.logger.Info("generation finished",
		"job", job.ID, "step", job.Step.ID, "ok", res.OK, "duration", time.Since(start))
	return res
}

// Complete records the result and clears the in-flight flag. It reports
// whether the result was stored; stale results are dropped.
//
// When ctx was cancelled the result is dropped too, and feedback the job
// consumed is put back so the next pass uses it again.
func (o *Orchestrator) Complete(ctx context.Context, job *Job, res Result) bool {
	var recorded bool
	if err := ctx.Err(); err != nil {
		o.logger.Warn("generation cancelled, result not recorded", "job", job.ID, "step", job.Step.ID, "error", err)
		if job.Feedback != "" && o.ctrl.Ticket(job.Step.ID) == job.Ticket {
			if err := o.ctrl.SubmitFeedback(context.WithoutCancel(ctx), job.Step.ID, job.Feedback); err != nil {
				o.logger.Warn("failed to restore feedback", "step", job.Step.ID, "error", err)
			}
		}
	} else {
		recorded = o.ctrl.RecordGeneration(ctx, job.Ticket, res.Content())
	}

	o.mu.Lock()
	o.inFlight = false
	o.mu.Unlock()

	if o.progress != nil {
		o.progress(job, true)
	}
	return recorded
}

// Pass runs one full generation synchronously if one is needed. It reports
// whether a job ran.
func (o *Orchestrator) Pass(ctx context.Context) bool {
	job, ok := o.Begin(ctx)
	if !ok {
		return false
	}
	o.Complete(ctx, job, o.Execute(ctx, job))
	return true
}

func (o *Orchestrator) newJobID(stepID string) string {
	id, err := gonanoid.New()
	if err != nil {
		o.logger.Warn("failed to generate job id", "error", err)
		return stepID
	}
	return id
}

func dependencyMissingMessage(label, dependency string) string {
	return fmt.Sprintf("⚠️ **%s Not Available**\n\nPlease complete the %s step first. "+
		"The %s will automatically analyze its output once it's available.",
		label, dependency, strings.ToLower(label))
}

func manualStepMessage(label string) string {
	return fmt.Sprintf("This is a manual %s step. Please review the previous steps and approve when ready.",
		strings.ToLower(label))
}
