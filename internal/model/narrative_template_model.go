package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NarrativeTemplate struct {
	Id        uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string                      `gorm:"type:varchar(100);not null"`
	Steps     datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	IsActive  bool                        `gorm:"default:true"`
	CreatedAt time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime"`
}

func (NarrativeTemplate) TableName() string {
	return "narrative_templates"
}
