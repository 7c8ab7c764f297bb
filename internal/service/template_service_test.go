package service

import (
	"context"
	"testing"
	"time"

	"ai-storybook-be/internal/constant"
	"ai-storybook-be/internal/dto"
	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/pkg/apperrors"
	"ai-storybook-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTemplateService(t *testing.T) (*fakeFactory, *memory.TemplateCache, ITemplateService) {
	t.Helper()
	factory := newFakeFactory()
	cache := memory.NewTemplateCache()
	return factory, cache, NewTemplateService(factory, cache)
}

func seedSessionUsing(factory *fakeFactory, templateId uuid.UUID) {
	session := &entity.StorySession{
		Id:                  uuid.New(),
		UserId:              uuid.New(),
		Phase:               constant.PhaseDrafting,
		NarrativeTemplateId: templateId,
		Status:              constant.SessionStatusActive,
		CreatedAt:           time.Now(),
	}
	factory.store.sessions[session.Id] = session
}

func TestTemplateCreate_IsActiveByDefault(t *testing.T) {
	factory, _, svc := newTemplateService(t)

	res, err := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		Name:  "Hero Journey",
		Steps: []string{"ordinary_world", "call", "return_home"},
	})
	assert.NoError(t, err)

	stored := factory.store.templates[res.Id]
	assert.NotNil(t, stored)
	assert.True(t, stored.IsActive)
	assert.Equal(t, []string{"ordinary_world", "call", "return_home"}, stored.Steps)
}

func TestTemplateUpdate_RejectsShrinkWhileInUse(t *testing.T) {
	factory, _, svc := newTemplateService(t)

	res, err := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		Name:  "Hero Journey",
		Steps: []string{"ordinary_world", "call", "return_home"},
	})
	assert.NoError(t, err)
	seedSessionUsing(factory, res.Id)

	_, err = svc.Update(context.Background(), &dto.UpdateTemplateRequest{
		Id:       res.Id,
		Name:     "Hero Journey",
		Steps:    []string{"ordinary_world", "return_home"},
		IsActive: true,
	})
	assert.Error(t, err)
	assert.IsType(t, &apperrors.PreconditionError{}, err)

	// Growing the arc is fine even while sessions walk it.
	_, err = svc.Update(context.Background(), &dto.UpdateTemplateRequest{
		Id:       res.Id,
		Name:     "Hero Journey",
		Steps:    []string{"ordinary_world", "call", "trials", "return_home"},
		IsActive: true,
	})
	assert.NoError(t, err)
	assert.Len(t, factory.store.templates[res.Id].Steps, 4)
}

func TestTemplateUpdate_InvalidatesCache(t *testing.T) {
	factory, cache, svc := newTemplateService(t)

	res, err := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		Name:  "Mystery Box",
		Steps: []string{"setup", "twist", "reveal"},
	})
	assert.NoError(t, err)
	cache.Save(factory.store.templates[res.Id])

	_, err = svc.Update(context.Background(), &dto.UpdateTemplateRequest{
		Id:       res.Id,
		Name:     "Mystery Box",
		Steps:    []string{"setup", "twist", "chase", "reveal"},
		IsActive: true,
	})
	assert.NoError(t, err)

	_, found := cache.Get(res.Id)
	assert.False(t, found)
}

func TestTemplateDelete_RejectsInUse(t *testing.T) {
	factory, _, svc := newTemplateService(t)

	res, err := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		Name:  "Bedtime Adventure",
		Steps: []string{"opening", "resolution"},
	})
	assert.NoError(t, err)
	seedSessionUsing(factory, res.Id)

	err = svc.Delete(context.Background(), res.Id)
	assert.Error(t, err)
	assert.IsType(t, &apperrors.PreconditionError{}, err)
	assert.NotNil(t, factory.store.templates[res.Id])
}

func TestTemplateDelete_RemovesUnused(t *testing.T) {
	factory, _, svc := newTemplateService(t)

	res, err := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		Name:  "Bedtime Adventure",
		Steps: []string{"opening", "resolution"},
	})
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete(context.Background(), res.Id))
	assert.Nil(t, factory.store.templates[res.Id])
}

func TestTemplateList_ActiveOnlyFilter(t *testing.T) {
	factory, _, svc := newTemplateService(t)

	active, err := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		Name:  "Active",
		Steps: []string{"a", "b"},
	})
	assert.NoError(t, err)
	retired, err := svc.Create(context.Background(), &dto.CreateTemplateRequest{
		Name:  "Retired",
		Steps: []string{"a", "b"},
	})
	assert.NoError(t, err)
	factory.store.templates[retired.Id].IsActive = false

	all, err := svc.List(context.Background(), false)
	assert.NoError(t, err)
	assert.Len(t, all.Templates, 2)

	onlyActive, err := svc.List(context.Background(), true)
	assert.NoError(t, err)
	assert.Len(t, onlyActive.Templates, 1)
	assert.Equal(t, active.Id, onlyActive.Templates[0].Id)
}

func TestTemplateShow_MissingReturnsNil(t *testing.T) {
	_, _, svc := newTemplateService(t)

	res, err := svc.Show(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, res)
}
