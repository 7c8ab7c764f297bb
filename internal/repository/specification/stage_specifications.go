package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByArtifactID struct {
	ArtifactID uuid.UUID
}

func (s ByArtifactID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("artifact_id = ?", s.ArtifactID)
}

type ByStage struct {
	Stage string
}

func (s ByStage) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stage = ?", s.Stage)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// RetryElapsed selects rate-limited records whose retry time has passed.
type RetryElapsed struct {
	Now time.Time
}

func (s RetryElapsed) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND retry_at IS NOT NULL AND retry_at <= ?", "rate_limited", s.Now)
}

type BySourceSessionID struct {
	SessionID uuid.UUID
}

func (s BySourceSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_session_id = ?", s.SessionID)
}
