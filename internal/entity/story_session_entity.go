package entity

import (
	"time"

	"github.com/google/uuid"
)

type StorySession struct {
	Id                  uuid.UUID
	UserId              uuid.UUID
	Title               string
	Phase               string
	ArcStepIndex        int
	NarrativeTemplateId uuid.UUID
	Status              string
	CreatedAt           time.Time
	UpdatedAt           *time.Time
	DeletedAt           *time.Time
	IsDeleted           bool
}
