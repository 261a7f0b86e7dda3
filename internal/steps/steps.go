// Package steps provides the ordered registry of SDLC workflow steps.
//
// The registry is the static backbone of the wizard: it fixes the order in
// which steps are visited, the prompt template each step sends to the
// generation service, and which earlier artifact a step depends on. Order is
// significant: it drives default progression after approval and the access
// thresholds used for navigation.
//
// Two sentinel steps bracket the workflow:
//   - [IntakeID] collects the credential and project description
//   - [TerminalID] is reached after the last step is approved
//
// Neither sentinel ever triggers generation.
//
// Key types:
//   - [Registry] - Ordered, immutable step listing with lookup helpers
//   - [Step] - A single workflow stage
package steps

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel step identifiers.
const (
	// IntakeID is the initial state that collects the credential and project
	// description before any step content exists.
	IntakeID = "api_input"

	// TerminalID is the state reached after the last step is approved.
	TerminalID = "completion"
)

// Template placeholders substituted by the orchestrator.
const (
	// PromptPlaceholder is replaced by the project description.
	PromptPlaceholder = "{prompt}"

	// ArtifactPlaceholder is replaced by the content of the step named in
	// [Step.DependsOn].
	ArtifactPlaceholder = "{artifact}"
)

// ErrUnknownStep indicates a step id that is not part of the registry.
var ErrUnknownStep = errors.New("unknown step")

// Step is one stage of the SDLC workflow.
type Step struct {
	// ID uniquely identifies the step (e.g., "roadmap", "code_generation").
	ID string

	// Label is the human-readable name shown in navigation and sent to the
	// generation service as the phase name.
	Label string

	// PromptTemplate is the generation prompt. Empty for manual steps.
	// [PromptPlaceholder] expands to the project description.
	PromptTemplate string

	// DependsOn names an earlier step whose artifact this step reviews.
	// When set, [ArtifactPlaceholder] expands to that step's content.
	DependsOn string
}

// HasTemplate reports whether the step sends a prompt to the generation service.
func (s Step) HasTemplate() bool {
	return strings.TrimSpace(s.PromptTemplate) != ""
}

// Registry is the ordered, immutable list of workflow steps.
//
// Create with [NewRegistry] or [Default]. The intake step is always first in
// the listing; the terminal marker is not part of the listing and is reported
// by [Registry.Next] returning false.
type Registry struct {
	steps []Step
	index map[string]int
}

// NewRegistry builds a registry from the given steps.
//
// The first entry must be the intake step; ids must be unique and non-empty,
// labels non-empty, and every DependsOn must reference an earlier step.
func NewRegistry(defs []Step) (*Registry, error) {
	if len(defs) == 0 || defs[0].ID != IntakeID {
		return nil, fmt.Errorf("step registry must start with %q", IntakeID)
	}

	r := &Registry{
		steps: make([]Step, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for i, s := range defs {
		if s.ID == "" {
			return nil, fmt.Errorf("step at index %d has no id", i)
		}
		if s.ID == TerminalID {
			return nil, fmt.Errorf("step id %q is reserved", TerminalID)
		}
		if s.Label == "" {
			return nil, fmt.Errorf("step %q has no label", s.ID)
		}
		if _, dup := r.index[s.ID]; dup {
			return nil, fmt.Errorf("duplicate step id %q", s.ID)
		}
		if s.DependsOn != "" {
			if _, ok := r.index[s.DependsOn]; !ok {
				return nil, fmt.Errorf("step %q depends on %q which is not an earlier step", s.ID, s.DependsOn)
			}
		}
		r.index[s.ID] = len(r.steps)
		r.steps = append(r.steps, s)
	}
	if len(r.steps) < 2 {
		return nil, fmt.Errorf("step registry needs at least one step after %q", IntakeID)
	}
	return r, nil
}

// MustNewRegistry is like [NewRegistry] but panics on invalid definitions.
// Intended for package-level defaults.
func MustNewRegistry(defs []Step) *Registry {
	r, err := NewRegistry(defs)
	if err != nil {
		panic(err)
	}
	return r
}

// Steps returns a copy of the ordered step list, intake included.
func (r *Registry) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// StepAt returns the step with the given id.
func (r *Registry) StepAt(id string) (Step, bool) {
	i, ok := r.index[id]
	if !ok {
		return Step{}, false
	}
	return r.steps[i], true
}

// IndexOf returns the position of id in the ordered listing, or -1.
func (r *Registry) IndexOf(id string) int {
	i, ok := r.index[id]
	if !ok {
		return -1
	}
	return i
}

// Next returns the step after id. The boolean is false when id is the last
// step (the caller should move to [TerminalID]) or when id is unknown.
func (r *Registry) Next(id string) (Step, bool) {
	i, ok := r.index[id]
	if !ok || i+1 >= len(r.steps) {
		return Step{}, false
	}
	return r.steps[i+1], true
}

// NextID is like [Registry.Next] but returns [TerminalID] when there is no
// following step.
func (r *Registry) NextID(id string) string {
	if s, ok := r.Next(id); ok {
		return s.ID
	}
	return TerminalID
}

// First returns the first substantive step after intake.
func (r *Registry) First() Step {
	return r.steps[1]
}

// Label returns the label of id, falling back to the id itself.
func (r *Registry) Label(id string) string {
	if s, ok := r.StepAt(id); ok {
		return s.Label
	}
	if id == TerminalID {
		return "Completion"
	}
	return id
}

// IsValidState reports whether id may be stored as the current step.
func (r *Registry) IsValidState(id string) bool {
	if id == TerminalID {
		return true
	}
	_, ok := r.index[id]
	return ok
}

// IsIntake reports whether id is the intake sentinel.
func IsIntake(id string) bool { return id == IntakeID }

// IsTerminal reports whether id is the terminal sentinel.
func IsTerminal(id string) bool { return id == TerminalID }
