package model

import (
	"time"

	"github.com/google/uuid"
)

// StageRecord is the persisted status of one pipeline stage for one artifact.
// The (artifact_id, stage) pair is unique; the trigger guard's compare-and-set
// runs as a conditional UPDATE against this row.
type StageRecord struct {
	Id                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ArtifactId        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_stage_records_artifact_stage,priority:1"`
	Stage             string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_stage_records_artifact_stage,priority:2"`
	Status            string     `gorm:"type:varchar(20);not null;default:'idle';index"`
	ProgressCompleted int        `gorm:"not null;default:0"`
	ProgressTotal     int        `gorm:"not null;default:0"`
	RetryAt           *time.Time `gorm:"index"`
	LastErrorMessage  *string    `gorm:"type:text"`
	AttemptCount      int        `gorm:"not null;default:0"`
	CreatedAt         time.Time  `gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime"`
}

func (StageRecord) TableName() string {
	return "stage_records"
}
