package generation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Input is the uniform payload handed to every stage collaborator.
type Input struct {
	ArtifactId uuid.UUID
	SessionId  uuid.UUID
	Params     map[string]interface{}
}

type Progress struct {
	Completed int
	Total     int
}

// Outcome is the single result a collaborator reports. Ok carries progress;
// a failure carries a classification ("rate_limited" or "error"), an optional
// message, and for rate limits an optional retry hint from the provider.
type Outcome struct {
	Ok             bool
	Progress       Progress
	Classification string
	Message        string
	RetryHint      *time.Time
}

// Collaborator performs one stage's generation work. Run blocks until the
// upstream call resolves; the orchestrator invokes it from its own goroutine.
// A Run that exceeds its own timeout must report a terminal failure, not hang.
type Collaborator interface {
	Run(ctx context.Context, in Input) Outcome
}

// Registry maps stage names to collaborators.
type Registry struct {
	collaborators map[string]Collaborator
}

func NewRegistry() *Registry {
	return &Registry{collaborators: make(map[string]Collaborator)}
}

func (r *Registry) Register(stage string, c Collaborator) {
	r.collaborators[stage] = c
}

func (r *Registry) For(stage string) (Collaborator, bool) {
	c, ok := r.collaborators[stage]
	return c, ok
}
