package narrative

import (
	"errors"
	"testing"

	"ai-storybook-be/internal/constant"
	"ai-storybook-be/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestTransition_LinearOrder(t *testing.T) {
	assert.NoError(t, Transition(constant.PhaseIntake, constant.PhaseDrafting))
	assert.NoError(t, Transition(constant.PhaseDrafting, constant.PhaseClosing))
	assert.NoError(t, Transition(constant.PhaseClosing, constant.PhaseFinalized))
}

func TestTransition_RejectsSkipsAndCycles(t *testing.T) {
	cases := []struct {
		name    string
		from    string
		to      string
	}{
		{"skip drafting", constant.PhaseIntake, constant.PhaseClosing},
		{"skip to finalized", constant.PhaseIntake, constant.PhaseFinalized},
		{"backwards", constant.PhaseClosing, constant.PhaseDrafting},
		{"self loop", constant.PhaseDrafting, constant.PhaseDrafting},
		{"out of finalized", constant.PhaseFinalized, constant.PhaseIntake},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Transition(tc.from, tc.to)
			assert.Error(t, err)

			var precondition *apperrors.PreconditionError
			assert.True(t, errors.As(err, &precondition), "expected precondition error, got %T", err)
		})
	}
}

func TestRequirePhase(t *testing.T) {
	assert.NoError(t, RequirePhase(constant.PhaseDrafting, constant.PhaseDrafting))

	err := RequirePhase(constant.PhaseIntake, constant.PhaseDrafting)
	assert.Error(t, err)

	var precondition *apperrors.PreconditionError
	assert.True(t, errors.As(err, &precondition))
}
