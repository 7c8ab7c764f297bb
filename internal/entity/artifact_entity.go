package entity

import (
	"time"

	"github.com/google/uuid"
)

// Artifact is a story (or derived storybook rendering) whose generation
// stages are tracked as StageRecords.
type Artifact struct {
	Id              uuid.UUID
	SourceSessionId uuid.UUID
	UserId          uuid.UUID
	Title           string
	PipelineVersion string
	NotifyEmail     string
	StageParams     map[string]interface{}
	CreatedAt       time.Time
	UpdatedAt       *time.Time
	DeletedAt       *time.Time
	IsDeleted       bool
}

type StageProgress struct {
	Completed int
	Total     int
}

type StageRecord struct {
	Id               uuid.UUID
	ArtifactId       uuid.UUID
	Stage            string
	Status           string
	Progress         StageProgress
	RetryAt          *time.Time
	LastErrorMessage *string
	AttemptCount     int
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
