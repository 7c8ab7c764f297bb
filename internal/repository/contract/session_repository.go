package contract

import (
	"context"

	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.StorySession) error
	Update(ctx context.Context, session *entity.StorySession) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StorySession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StorySession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
