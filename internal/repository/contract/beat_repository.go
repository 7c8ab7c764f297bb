package contract

import (
	"context"

	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/repository/specification"
)

type BeatRepository interface {
	Create(ctx context.Context, beat *entity.StoryBeat) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StoryBeat, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
