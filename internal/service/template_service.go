package service

import (
	"context"
	"time"

	"ai-storybook-be/internal/dto"
	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/pkg/apperrors"
	"ai-storybook-be/internal/repository/memory"
	"ai-storybook-be/internal/repository/specification"
	"ai-storybook-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type ITemplateService interface {
	Create(ctx context.Context, req *dto.CreateTemplateRequest) (*dto.CreateTemplateResponse, error)
	Update(ctx context.Context, req *dto.UpdateTemplateRequest) (*dto.UpdateTemplateResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowTemplateResponse, error)
	List(ctx context.Context, activeOnly bool) (*dto.ListTemplatesResponse, error)
}

type templateService struct {
	uowFactory    unitofwork.RepositoryFactory
	templateCache *memory.TemplateCache
}

func NewTemplateService(uowFactory unitofwork.RepositoryFactory, templateCache *memory.TemplateCache) ITemplateService {
	return &templateService{
		uowFactory:    uowFactory,
		templateCache: templateCache,
	}
}

func (s *templateService) Create(ctx context.Context, req *dto.CreateTemplateRequest) (*dto.CreateTemplateResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	template := entity.NarrativeTemplate{
		Id:        uuid.New(),
		Name:      req.Name,
		Steps:     req.Steps,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := uow.TemplateRepository().Create(ctx, &template); err != nil {
		return nil, err
	}

	return &dto.CreateTemplateResponse{Id: template.Id}, nil
}

func (s *templateService) Update(ctx context.Context, req *dto.UpdateTemplateRequest) (*dto.UpdateTemplateResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	template, err := uow.TemplateRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, apperrors.NewNotFound("narrative template %s not found", req.Id)
	}

	// Editing steps would shift the arc position of in-flight sessions, so
	// shrinking an in-use template is rejected.
	if len(req.Steps) < len(template.Steps) {
		inUse, err := uow.SessionRepository().Count(ctx,
			specification.FilterBy{Field: "narrative_template_id", Value: template.Id},
			specification.NotDeleted{},
		)
		if err != nil {
			return nil, err
		}
		if inUse > 0 {
			return nil, apperrors.NewPrecondition("template %s is in use by %d sessions and cannot lose steps", template.Id, inUse)
		}
	}

	now := time.Now()
	template.Name = req.Name
	template.Steps = req.Steps
	template.IsActive = req.IsActive
	template.UpdatedAt = &now
	if err := uow.TemplateRepository().Update(ctx, template); err != nil {
		return nil, err
	}

	s.templateCache.Invalidate(template.Id)

	return &dto.UpdateTemplateResponse{Id: template.Id}, nil
}

func (s *templateService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	template, err := uow.TemplateRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if template == nil {
		return apperrors.NewNotFound("narrative template %s not found", id)
	}

	inUse, err := uow.SessionRepository().Count(ctx,
		specification.FilterBy{Field: "narrative_template_id", Value: id},
		specification.NotDeleted{},
	)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return apperrors.NewPrecondition("template %s is in use by %d sessions", id, inUse)
	}

	if err := uow.TemplateRepository().Delete(ctx, id); err != nil {
		return err
	}

	s.templateCache.Invalidate(id)
	return nil
}

func (s *templateService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowTemplateResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	template, err := uow.TemplateRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, nil
	}

	return templateToResponse(template), nil
}

func (s *templateService) List(ctx context.Context, activeOnly bool) (*dto.ListTemplatesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.OrderBy{Field: "name", Desc: false},
	}
	if activeOnly {
		specs = append(specs, specification.ActiveOnly{})
	}

	templates, err := uow.TemplateRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	total, err := uow.TemplateRepository().Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ShowTemplateResponse, 0, len(templates))
	for _, template := range templates {
		items = append(items, *templateToResponse(template))
	}

	return &dto.ListTemplatesResponse{Templates: items, Total: total}, nil
}

func templateToResponse(template *entity.NarrativeTemplate) *dto.ShowTemplateResponse {
	return &dto.ShowTemplateResponse{
		Id:        template.Id,
		Name:      template.Name,
		Steps:     template.Steps,
		IsActive:  template.IsActive,
		CreatedAt: template.CreatedAt,
		UpdatedAt: template.UpdatedAt,
	}
}
