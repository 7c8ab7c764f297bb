package implementation

import (
	"context"
	"errors"
	"time"

	"ai-storybook-be/internal/constant"
	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/mapper"
	"ai-storybook-be/internal/model"
	"ai-storybook-be/internal/repository/contract"
	"ai-storybook-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StageRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ArtifactMapper
}

func NewStageRecordRepository(db *gorm.DB) contract.StageRecordRepository {
	return &StageRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewArtifactMapper(),
	}
}

func (r *StageRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *StageRecordRepositoryImpl) CreateBulk(ctx context.Context, records []*entity.StageRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]*model.StageRecord, len(records))
	for i, rec := range records {
		models[i] = r.mapper.StageRecordToModel(rec)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*records[i] = *r.mapper.StageRecordToEntity(m)
	}
	return nil
}

func (r *StageRecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StageRecord, error) {
	var m model.StageRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.StageRecordToEntity(&m), nil
}

func (r *StageRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StageRecord, error) {
	var models []*model.StageRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.StageRecord, len(models))
	for i, m := range models {
		entities[i] = r.mapper.StageRecordToEntity(m)
	}
	return entities, nil
}

// Admit performs the compare-and-set that guards against duplicate stage
// execution. The WHERE clause on status makes the update atomic: under
// concurrent admits exactly one caller sees RowsAffected == 1.
func (r *StageRecordRepositoryImpl) Admit(ctx context.Context, artifactId uuid.UUID, stage string) (*entity.StageRecord, error) {
	res := r.db.WithContext(ctx).
		Model(&model.StageRecord{}).
		Where("artifact_id = ? AND stage = ? AND status = ?", artifactId, stage, constant.StageStatusIdle).
		Updates(map[string]interface{}{
			"status":        constant.StageStatusRunning,
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	return r.FindOne(ctx,
		specification.ByArtifactID{ArtifactID: artifactId},
		specification.ByStage{Stage: stage},
	)
}

func (r *StageRecordRepositoryImpl) MarkReady(ctx context.Context, artifactId uuid.UUID, stage string, progress entity.StageProgress) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.StageRecord{}).
		Where("artifact_id = ? AND stage = ? AND status = ?", artifactId, stage, constant.StageStatusRunning).
		Updates(map[string]interface{}{
			"status":             constant.StageStatusReady,
			"progress_completed": progress.Completed,
			"progress_total":     progress.Total,
			"retry_at":           nil,
			"last_error_message": nil,
			"updated_at":         time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *StageRecordRepositoryImpl) MarkRateLimited(ctx context.Context, artifactId uuid.UUID, stage string, retryAt time.Time, message string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.StageRecord{}).
		Where("artifact_id = ? AND stage = ? AND status = ?", artifactId, stage, constant.StageStatusRunning).
		Updates(map[string]interface{}{
			"status":             constant.StageStatusRateLimited,
			"retry_at":           retryAt,
			"last_error_message": message,
			"updated_at":         time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *StageRecordRepositoryImpl) MarkFailed(ctx context.Context, artifactId uuid.UUID, stage string, message string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.StageRecord{}).
		Where("artifact_id = ? AND stage = ? AND status = ?", artifactId, stage, constant.StageStatusRunning).
		Updates(map[string]interface{}{
			"status":             constant.StageStatusError,
			"retry_at":           nil,
			"last_error_message": message,
			"updated_at":         time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *StageRecordRepositoryImpl) ResetElapsed(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	// Candidates first, then a guarded reset per row so a concurrent write
	// between the two steps loses nothing: the WHERE re-checks the state.
	var candidates []*model.StageRecord
	err := r.db.WithContext(ctx).
		Where("status = ? AND retry_at IS NOT NULL AND retry_at <= ?", constant.StageStatusRateLimited, now).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool)
	var artifactIds []uuid.UUID
	for _, c := range candidates {
		res := r.db.WithContext(ctx).
			Model(&model.StageRecord{}).
			Where("id = ? AND status = ? AND retry_at <= ?", c.Id, constant.StageStatusRateLimited, now).
			Updates(map[string]interface{}{
				"status":     constant.StageStatusIdle,
				"retry_at":   nil,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return artifactIds, res.Error
		}
		if res.RowsAffected > 0 && !seen[c.ArtifactId] {
			seen[c.ArtifactId] = true
			artifactIds = append(artifactIds, c.ArtifactId)
		}
	}
	return artifactIds, nil
}

func (r *StageRecordRepositoryImpl) ForceReset(ctx context.Context, artifactId uuid.UUID, stage string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.StageRecord{}).
		Where("artifact_id = ? AND stage = ? AND status <> ?", artifactId, stage, constant.StageStatusRunning).
		Updates(map[string]interface{}{
			"status":             constant.StageStatusIdle,
			"retry_at":           nil,
			"last_error_message": nil,
			"updated_at":         time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}
