package narrative

import (
	"ai-storybook-be/internal/constant"
	"ai-storybook-be/internal/pkg/apperrors"
)

// The phase machine is linear: intake -> drafting -> closing -> finalized.
// No cycles, no skipping.
var nextPhase = map[string]string{
	constant.PhaseIntake:   constant.PhaseDrafting,
	constant.PhaseDrafting: constant.PhaseClosing,
	constant.PhaseClosing:  constant.PhaseFinalized,
}

// Transition validates a phase change and returns the error callers surface
// when a phase-specific operation is invoked in the wrong phase.
func Transition(current, target string) error {
	if nextPhase[current] != target {
		return apperrors.NewPrecondition("cannot move session from phase %q to %q", current, target)
	}
	return nil
}

// RequirePhase guards phase-specific operations.
func RequirePhase(current, required string) error {
	if current != required {
		return apperrors.NewPrecondition("operation requires session phase %q, current phase is %q", required, current)
	}
	return nil
}
