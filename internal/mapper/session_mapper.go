package mapper

import (
	"time"

	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/model"

	"gorm.io/gorm"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.StorySession) *entity.StorySession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.StorySession{
		Id:                  s.Id,
		UserId:              s.UserId,
		Title:               s.Title,
		Phase:               s.Phase,
		ArcStepIndex:        s.ArcStepIndex,
		NarrativeTemplateId: s.NarrativeTemplateId,
		Status:              s.Status,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           updatedAt,
		DeletedAt:           deletedAt,
		IsDeleted:           s.DeletedAt.Valid,
	}
}

func (m *SessionMapper) ToModel(s *entity.StorySession) *model.StorySession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.StorySession{
		Id:                  s.Id,
		UserId:              s.UserId,
		Title:               s.Title,
		Phase:               s.Phase,
		ArcStepIndex:        s.ArcStepIndex,
		NarrativeTemplateId: s.NarrativeTemplateId,
		Status:              s.Status,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           updatedAt,
		DeletedAt:           deletedAt,
	}
}

// Beat Mappers

func (m *SessionMapper) BeatToEntity(b *model.StoryBeat) *entity.StoryBeat {
	if b == nil {
		return nil
	}
	return &entity.StoryBeat{
		Id:        b.Id,
		SessionId: b.SessionId,
		StepId:    b.StepId,
		StepIndex: b.StepIndex,
		UserInput: b.UserInput,
		Reply:     b.Reply,
		CreatedAt: b.CreatedAt,
	}
}

func (m *SessionMapper) BeatToModel(b *entity.StoryBeat) *model.StoryBeat {
	if b == nil {
		return nil
	}
	return &model.StoryBeat{
		Id:        b.Id,
		SessionId: b.SessionId,
		StepId:    b.StepId,
		StepIndex: b.StepIndex,
		UserInput: b.UserInput,
		Reply:     b.Reply,
		CreatedAt: b.CreatedAt,
	}
}
