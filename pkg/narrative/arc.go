package narrative

import (
	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/pkg/apperrors"
)

// ArcTracker advances a session through its template's ordered steps. The
// index is clamped to [0, maxIndex]; advancing past the end is a successful
// no-op. There is no decrement.
type ArcTracker struct{}

func NewArcTracker() *ArcTracker {
	return &ArcTracker{}
}

// Advance moves the session to the next step, clamped at the template's last
// index, and reports whether the session now sits at the end of the arc.
func (t *ArcTracker) Advance(session *entity.StorySession, template *entity.NarrativeTemplate) (atEnd bool, err error) {
	if len(template.Steps) == 0 {
		return false, apperrors.NewPrecondition("narrative template %s has no steps", template.Id)
	}

	next := session.ArcStepIndex + 1
	if next > template.MaxIndex() {
		next = template.MaxIndex()
	}
	session.ArcStepIndex = next

	return next == template.MaxIndex(), nil
}

// CurrentStepId returns the step identifier at the session's position.
func (t *ArcTracker) CurrentStepId(session *entity.StorySession, template *entity.NarrativeTemplate) (string, error) {
	if len(template.Steps) == 0 {
		return "", apperrors.NewPrecondition("narrative template %s has no steps", template.Id)
	}

	idx := session.ArcStepIndex
	if idx < 0 {
		idx = 0
	}
	if idx > template.MaxIndex() {
		idx = template.MaxIndex()
	}
	return template.Steps[idx], nil
}

// AtEnd reports whether the session has reached the template's last step.
func (t *ArcTracker) AtEnd(session *entity.StorySession, template *entity.NarrativeTemplate) bool {
	return len(template.Steps) > 0 && session.ArcStepIndex >= template.MaxIndex()
}
