package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Artifact struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SourceSessionId uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_artifacts_session_version,priority:1"`
	UserId          uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title           string         `gorm:"type:varchar(255);not null"`
	PipelineVersion string         `gorm:"type:varchar(10);not null;uniqueIndex:idx_artifacts_session_version,priority:2"`
	NotifyEmail     string         `gorm:"type:varchar(255)"`
	StageParams     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (Artifact) TableName() string {
	return "artifacts"
}
