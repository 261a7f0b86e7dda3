package workflow

import (
	"fmt"
	"strings"

	"sdlcwizard/internal/steps"
)

// StepRecord is everything the wizard tracks for one step.
//
// Blank Content means the step needs generation. Empty Feedback means no
// revision is pending.
type StepRecord struct {
	Approved bool
	Feedback string
	Content  string
}

// State is a point-in-time copy of the workflow aggregate.
type State struct {
	Credential         string
	ProjectDescription string
	CurrentStep        string
	Records            map[string]StepRecord
}

// newState returns the fresh intake state.
func newState() State {
	return State{
		CurrentStep: steps.IntakeID,
		Records:     make(map[string]StepRecord),
	}
}

// Record returns the record for id, or the zero record.
func (s State) Record(id string) StepRecord {
	return s.Records[id]
}

// HasContent reports whether id has generated content. Whitespace alone does
// not count.
func (s State) HasContent(id string) bool {
	return strings.TrimSpace(s.Records[id].Content) != ""
}

// IsApproved reports whether id has been approved.
func (s State) IsApproved(id string) bool {
	return s.Records[id].Approved
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Records = make(map[string]StepRecord, len(s.Records))
	for id, r := range s.Records {
		out.Records[id] = r
	}
	return out
}

// CheckInvariants returns an error describing the first broken invariant of
// s, or nil.
func CheckInvariants(reg *steps.Registry, s State) error {
	if !reg.IsValidState(s.CurrentStep) {
		return fmt.Errorf("current step %q is not a valid state", s.CurrentStep)
	}
	for id, r := range s.Records {
		if _, ok := reg.StepAt(id); !ok {
			return fmt.Errorf("record for unknown step %q", id)
		}
		if r.Approved && !s.HasContent(id) {
			return fmt.Errorf("step %q is approved without content", id)
		}
		if r.Feedback != "" && (r.Approved || r.Content != "") {
			return fmt.Errorf("step %q has pending feedback alongside approval or content", id)
		}
	}
	return nil
}
