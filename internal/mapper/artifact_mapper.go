package mapper

import (
	"encoding/json"
	"time"

	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ArtifactMapper struct{}

func NewArtifactMapper() *ArtifactMapper {
	return &ArtifactMapper{}
}

func (m *ArtifactMapper) ToEntity(a *model.Artifact) *entity.Artifact {
	if a == nil {
		return nil
	}

	var deletedAt *time.Time
	if a.DeletedAt.Valid {
		t := a.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	var params map[string]interface{}
	if len(a.StageParams) > 0 {
		// Best effort; a corrupt params blob should not block reads.
		_ = json.Unmarshal(a.StageParams, &params)
	}

	return &entity.Artifact{
		Id:              a.Id,
		SourceSessionId: a.SourceSessionId,
		UserId:          a.UserId,
		Title:           a.Title,
		PipelineVersion: a.PipelineVersion,
		NotifyEmail:     a.NotifyEmail,
		StageParams:     params,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       updatedAt,
		DeletedAt:       deletedAt,
		IsDeleted:       a.DeletedAt.Valid,
	}
}

func (m *ArtifactMapper) ToModel(a *entity.Artifact) *model.Artifact {
	if a == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if a.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *a.DeletedAt, Valid: true}
	} else if a.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	var params datatypes.JSON
	if a.StageParams != nil {
		raw, _ := json.Marshal(a.StageParams)
		params = datatypes.JSON(raw)
	}

	return &model.Artifact{
		Id:              a.Id,
		SourceSessionId: a.SourceSessionId,
		UserId:          a.UserId,
		Title:           a.Title,
		PipelineVersion: a.PipelineVersion,
		NotifyEmail:     a.NotifyEmail,
		StageParams:     params,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       updatedAt,
		DeletedAt:       deletedAt,
	}
}

// Stage Record Mappers

func (m *ArtifactMapper) StageRecordToEntity(r *model.StageRecord) *entity.StageRecord {
	if r == nil {
		return nil
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	return &entity.StageRecord{
		Id:         r.Id,
		ArtifactId: r.ArtifactId,
		Stage:      r.Stage,
		Status:     r.Status,
		Progress: entity.StageProgress{
			Completed: r.ProgressCompleted,
			Total:     r.ProgressTotal,
		},
		RetryAt:          r.RetryAt,
		LastErrorMessage: r.LastErrorMessage,
		AttemptCount:     r.AttemptCount,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *ArtifactMapper) StageRecordToModel(r *entity.StageRecord) *model.StageRecord {
	if r == nil {
		return nil
	}

	var updatedAt time.Time
	if r.UpdatedAt != nil {
		updatedAt = *r.UpdatedAt
	}

	return &model.StageRecord{
		Id:                r.Id,
		ArtifactId:        r.ArtifactId,
		Stage:             r.Stage,
		Status:            r.Status,
		ProgressCompleted: r.Progress.Completed,
		ProgressTotal:     r.Progress.Total,
		RetryAt:           r.RetryAt,
		LastErrorMessage:  r.LastErrorMessage,
		AttemptCount:      r.AttemptCount,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}
