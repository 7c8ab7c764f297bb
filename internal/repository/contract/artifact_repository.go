package contract

import (
	"context"

	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ArtifactRepository interface {
	Create(ctx context.Context, artifact *entity.Artifact) error
	Update(ctx context.Context, artifact *entity.Artifact) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Artifact, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Artifact, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
