package workflow

import "sdlcwizard/internal/steps"

// IsAccessible reports whether the navigation UI should offer id.
//
// A step is accessible when it is the intake step, the current step, any step
// ordered before the current step, or a step that has content or approval.
func IsAccessible(reg *steps.Registry, s State, id string) bool {
	if steps.IsIntake(id) || id == s.CurrentStep {
		return true
	}
	if idx := reg.IndexOf(id); idx >= 0 && idx < position(reg, s.CurrentStep) {
		return true
	}
	return s.HasContent(id) || s.IsApproved(id)
}

// AccessibleSteps returns the accessible steps in registry order.
func AccessibleSteps(reg *steps.Registry, s State) []steps.Step {
	var out []steps.Step
	for _, step := range reg.Steps() {
		if IsAccessible(reg, s, step.ID) {
			out = append(out, step)
		}
	}
	return out
}

// position orders the terminal marker after every registered step.
func position(reg *steps.Registry, id string) int {
	if steps.IsTerminal(id) {
		return len(reg.Steps())
	}
	return reg.IndexOf(id)
}
