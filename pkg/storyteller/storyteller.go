package storyteller

import (
	"context"

	"github.com/google/uuid"
)

// Reply is one storyteller response within an interactive session.
type Reply struct {
	Text string
}

// StoryTeller is the opaque interactive-narration service: it greets the
// child (intake), narrates beats as the arc advances, and writes the ending.
// Failures propagate as plain errors; phase handling stays with the caller.
type StoryTeller interface {
	Intake(ctx context.Context, sessionId uuid.UUID, childName, premise string) (*Reply, error)
	Beat(ctx context.Context, sessionId uuid.UUID, stepId, userInput string) (*Reply, error)
	Ending(ctx context.Context, sessionId uuid.UUID, endingChoice string) (*Reply, error)
}
