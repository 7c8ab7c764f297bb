package contract

import (
	"context"

	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TemplateRepository interface {
	Create(ctx context.Context, template *entity.NarrativeTemplate) error
	Update(ctx context.Context, template *entity.NarrativeTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.NarrativeTemplate, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.NarrativeTemplate, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
