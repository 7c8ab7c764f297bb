package mapper

import (
	"time"

	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/model"

	"gorm.io/datatypes"
)

type TemplateMapper struct{}

func NewTemplateMapper() *TemplateMapper {
	return &TemplateMapper{}
}

func (m *TemplateMapper) ToEntity(t *model.NarrativeTemplate) *entity.NarrativeTemplate {
	if t == nil {
		return nil
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		updatedAt = &u
	}

	return &entity.NarrativeTemplate{
		Id:        t.Id,
		Name:      t.Name,
		Steps:     []string(t.Steps),
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *TemplateMapper) ToModel(t *entity.NarrativeTemplate) *model.NarrativeTemplate {
	if t == nil {
		return nil
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	return &model.NarrativeTemplate{
		Id:        t.Id,
		Name:      t.Name,
		Steps:     datatypes.NewJSONSlice(t.Steps),
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
		UpdatedAt: updatedAt,
	}
}
