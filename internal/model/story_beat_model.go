package model

import (
	"time"

	"github.com/google/uuid"
)

type StoryBeat struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	StepId    string    `gorm:"type:varchar(100);not null"`
	StepIndex int       `gorm:"not null"`
	UserInput string    `gorm:"type:text"`
	Reply     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (StoryBeat) TableName() string {
	return "story_beats"
}
