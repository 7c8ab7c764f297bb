package implementation

import (
	"context"

	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/mapper"
	"ai-storybook-be/internal/model"
	"ai-storybook-be/internal/repository/contract"
	"ai-storybook-be/internal/repository/scope"
	"ai-storybook-be/internal/repository/specification"

	"gorm.io/gorm"
)

type BeatRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewBeatRepository(db *gorm.DB) contract.BeatRepository {
	return &BeatRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *BeatRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *BeatRepositoryImpl) Create(ctx context.Context, beat *entity.StoryBeat) error {
	m := r.mapper.BeatToModel(beat)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*beat = *r.mapper.BeatToEntity(m)
	return nil
}

func (r *BeatRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StoryBeat, error) {
	var models []*model.StoryBeat
	query := r.applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByCreatedAsc), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.StoryBeat, len(models))
	for i, m := range models {
		entities[i] = r.mapper.BeatToEntity(m)
	}
	return entities, nil
}

func (r *BeatRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.StoryBeat{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
