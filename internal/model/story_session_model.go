package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StorySession struct {
	Id                  uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId              uuid.UUID      `gorm:"type:uuid;not null;index"` // Parent account ownership
	Title               string         `gorm:"type:varchar(255);not null"`
	Phase               string         `gorm:"type:varchar(20);not null;default:'intake'"`
	ArcStepIndex        int            `gorm:"not null;default:0"`
	NarrativeTemplateId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status              string         `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt           time.Time      `gorm:"autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime"`
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

func (StorySession) TableName() string {
	return "story_sessions"
}
