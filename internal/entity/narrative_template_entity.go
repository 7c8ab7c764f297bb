package entity

import (
	"time"

	"github.com/google/uuid"
)

// NarrativeTemplate is immutable reference data: an ordered list of step
// identifiers a session walks through. Steps is never empty.
type NarrativeTemplate struct {
	Id        uuid.UUID
	Name      string
	Steps     []string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// MaxIndex is the upper bound for a session's arc step index.
func (t *NarrativeTemplate) MaxIndex() int {
	return len(t.Steps) - 1
}
