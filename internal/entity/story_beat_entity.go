package entity

import (
	"time"

	"github.com/google/uuid"
)

// StoryBeat is one narrated step of the interactive session: the child's
// input and the storyteller's reply for a given template step.
type StoryBeat struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	StepId    string
	StepIndex int
	UserInput string
	Reply     string
	CreatedAt time.Time
}
