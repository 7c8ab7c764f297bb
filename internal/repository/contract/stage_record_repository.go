package contract

import (
	"context"
	"time"

	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/repository/specification"

	"github.com/google/uuid"
)

// StageRecordRepository is both the stage status store and the trigger guard.
// Every state-changing method below is a single conditional UPDATE; a false
// return means the guard condition did not hold and nothing was written.
// Callers must treat a rejected write as a silent no-op.
type StageRecordRepository interface {
	CreateBulk(ctx context.Context, records []*entity.StageRecord) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StageRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StageRecord, error)

	// Admit is the trigger guard: idle -> running with attempt_count+1. The
	// returned record reflects the row after admission; nil means the stage
	// was not idle and the caller must back off.
	Admit(ctx context.Context, artifactId uuid.UUID, stage string) (*entity.StageRecord, error)

	// Completion writes, each guarded on status = running.
	MarkReady(ctx context.Context, artifactId uuid.UUID, stage string, progress entity.StageProgress) (bool, error)
	MarkRateLimited(ctx context.Context, artifactId uuid.UUID, stage string, retryAt time.Time, message string) (bool, error)
	MarkFailed(ctx context.Context, artifactId uuid.UUID, stage string, message string) (bool, error)

	// ResetElapsed flips rate_limited records whose retry_at has passed back
	// to idle and returns the artifact ids that had at least one reset.
	ResetElapsed(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	// ForceReset is the privileged override: any non-running status -> idle,
	// clearing retry and error metadata. Running stages are never clobbered.
	ForceReset(ctx context.Context, artifactId uuid.UUID, stage string) (bool, error)
}
