package orchestrator

import "context"

// Request is one call to the generation service.
type Request struct {
	// Prompt is the fully built step prompt.
	Prompt string

	// StepLabel names the SDLC phase, e.g. "Code Generation".
	StepLabel string

	// Credential authorizes the call.
	Credential string
}

// Result is the outcome of a generation call. Exactly one of Text (when OK)
// or ErrorMessage is meaningful.
type Result struct {
	OK           bool
	Text         string
	ErrorMessage string
}

// Success builds an OK result.
func Success(text string) Result {
	return Result{OK: true, Text: text}
}

// Failure builds a failed result carrying a user-visible message.
func Failure(message string) Result {
	return Result{ErrorMessage: message}
}

// Content returns what should be stored as the step's content: the text on
// success, the error message otherwise.
func (r Result) Content() string {
	if r.OK {
		return r.Text
	}
	return r.ErrorMessage
}

// Generator produces step content. Implementations report failures through
// [Result] rather than panicking; the gemini package provides the production
// implementation.
type Generator interface {
	Generate(ctx context.Context, req Request) Result
}

