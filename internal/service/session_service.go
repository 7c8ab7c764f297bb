package service

import (
	"context"
	"time"

	"ai-storybook-be/internal/constant"
	"ai-storybook-be/internal/dto"
	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/pkg/apperrors"
	"ai-storybook-be/internal/pkg/logger"
	"ai-storybook-be/internal/repository/memory"
	"ai-storybook-be/internal/repository/specification"
	"ai-storybook-be/internal/repository/unitofwork"
	"ai-storybook-be/pkg/events"
	"ai-storybook-be/pkg/narrative"
	pktNats "ai-storybook-be/pkg/nats"
	"ai-storybook-be/pkg/storyteller"

	"github.com/google/uuid"
)

type ISessionService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	Intake(ctx context.Context, userId uuid.UUID, req *dto.IntakeRequest) (*dto.IntakeResponse, error)
	Beat(ctx context.Context, userId uuid.UUID, req *dto.BeatRequest) (*dto.BeatResponse, error)
	Ending(ctx context.Context, userId uuid.UUID, req *dto.EndingRequest) (*dto.EndingResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowSessionResponse, error)
	List(ctx context.Context, userId uuid.UUID) (*dto.ListSessionsResponse, error)
	Transcript(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.SessionTranscriptResponse, error)
}

type sessionService struct {
	uowFactory     unitofwork.RepositoryFactory
	templateCache  *memory.TemplateCache
	storyTeller    storyteller.StoryTeller
	arcTracker     *narrative.ArcTracker
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	templateCache *memory.TemplateCache,
	teller storyteller.StoryTeller,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		uowFactory:     uowFactory,
		templateCache:  templateCache,
		storyTeller:    teller,
		arcTracker:     narrative.NewArcTracker(),
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *sessionService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	template, err := s.loadTemplate(ctx, uow, req.TemplateId)
	if err != nil {
		return nil, err
	}
	if !template.IsActive {
		return nil, apperrors.NewPrecondition("narrative template %s is not active", template.Id)
	}

	session := entity.StorySession{
		Id:                  uuid.New(),
		UserId:              userId,
		Title:               req.Title,
		Phase:               constant.PhaseIntake,
		ArcStepIndex:        0,
		NarrativeTemplateId: template.Id,
		Status:              constant.SessionStatusActive,
		CreatedAt:           time.Now(),
	}
	if err := uow.SessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	stepId, err := s.arcTracker.CurrentStepId(&session, template)
	if err != nil {
		return nil, err
	}

	s.logger.Info("session", "story session created", map[string]interface{}{
		"session_id":  session.Id,
		"template_id": template.Id,
	})

	return &dto.CreateSessionResponse{
		Id:            session.Id,
		Phase:         session.Phase,
		CurrentStepId: stepId,
	}, nil
}

// Intake greets the child and moves the session into drafting. The reply text
// comes from the storyteller; the phase transition is ours.
func (s *sessionService) Intake(ctx context.Context, userId uuid.UUID, req *dto.IntakeRequest) (*dto.IntakeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, template, err := s.loadOwnedSession(ctx, uow, userId, req.SessionId)
	if err != nil {
		return nil, err
	}
	if err := narrative.RequirePhase(session.Phase, constant.PhaseIntake); err != nil {
		return nil, err
	}

	reply, err := s.storyTeller.Intake(ctx, session.Id, session.Title, req.Message)
	if err != nil {
		return nil, err
	}

	if err := narrative.Transition(session.Phase, constant.PhaseDrafting); err != nil {
		return nil, err
	}
	now := time.Now()
	session.Phase = constant.PhaseDrafting
	session.UpdatedAt = &now
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	stepId, err := s.arcTracker.CurrentStepId(session, template)
	if err != nil {
		return nil, err
	}

	return &dto.IntakeResponse{
		Reply:         reply.Text,
		Phase:         session.Phase,
		CurrentStepId: stepId,
	}, nil
}

// Beat narrates one step of the arc and advances the tracker. At the end of
// the arc the index stays clamped; additional beats keep narrating the final
// step until the client asks for the ending.
func (s *sessionService) Beat(ctx context.Context, userId uuid.UUID, req *dto.BeatRequest) (*dto.BeatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, template, err := s.loadOwnedSession(ctx, uow, userId, req.SessionId)
	if err != nil {
		return nil, err
	}
	if err := narrative.RequirePhase(session.Phase, constant.PhaseDrafting); err != nil {
		return nil, err
	}

	stepId, err := s.arcTracker.CurrentStepId(session, template)
	if err != nil {
		return nil, err
	}

	reply, err := s.storyTeller.Beat(ctx, session.Id, stepId, req.Message)
	if err != nil {
		return nil, err
	}

	beat := entity.StoryBeat{
		Id:        uuid.New(),
		SessionId: session.Id,
		StepId:    stepId,
		StepIndex: session.ArcStepIndex,
		UserInput: req.Message,
		Reply:     reply.Text,
		CreatedAt: time.Now(),
	}

	atEnd, err := s.arcTracker.Advance(session, template)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	session.UpdatedAt = &now

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.BeatRepository().Create(ctx, &beat); err != nil {
		return nil, err
	}
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	nextStepId, err := s.arcTracker.CurrentStepId(session, template)
	if err != nil {
		return nil, err
	}

	return &dto.BeatResponse{
		Reply:         reply.Text,
		Phase:         session.Phase,
		CurrentStepId: nextStepId,
		ArcStepIndex:  session.ArcStepIndex,
		ArcComplete:   atEnd,
	}, nil
}

// Ending requires the arc to be complete, writes the closing narration, and
// moves the session into closing so it becomes eligible for compilation.
func (s *sessionService) Ending(ctx context.Context, userId uuid.UUID, req *dto.EndingRequest) (*dto.EndingResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, template, err := s.loadOwnedSession(ctx, uow, userId, req.SessionId)
	if err != nil {
		return nil, err
	}
	if err := narrative.RequirePhase(session.Phase, constant.PhaseDrafting); err != nil {
		return nil, err
	}
	if !s.arcTracker.AtEnd(session, template) {
		return nil, apperrors.NewPrecondition("session %s has not reached the end of its arc", session.Id)
	}

	reply, err := s.storyTeller.Ending(ctx, session.Id, req.Message)
	if err != nil {
		return nil, err
	}

	if err := narrative.Transition(session.Phase, constant.PhaseClosing); err != nil {
		return nil, err
	}
	now := time.Now()
	session.Phase = constant.PhaseClosing
	session.UpdatedAt = &now
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: constant.EventSessionFinalized,
			Data: map[string]interface{}{
				"session_id": session.Id,
				"user_id":    session.UserId,
				"title":      session.Title,
			},
			OccurredAt: now,
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("session", "failed to publish closing event", map[string]interface{}{
				"session_id": session.Id,
				"error":      err.Error(),
			})
		}
	}

	return &dto.EndingResponse{
		Reply: reply.Text,
		Phase: session.Phase,
	}, nil
}

func (s *sessionService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, template, err := s.loadOwnedSession(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	stepId, err := s.arcTracker.CurrentStepId(session, template)
	if err != nil {
		return nil, err
	}

	return &dto.ShowSessionResponse{
		Id:            session.Id,
		Title:         session.Title,
		Phase:         session.Phase,
		Status:        session.Status,
		ArcStepIndex:  session.ArcStepIndex,
		CurrentStepId: stepId,
		TemplateId:    session.NarrativeTemplateId,
		CreatedAt:     session.CreatedAt,
		UpdatedAt:     session.UpdatedAt,
	}, nil
}

func (s *sessionService) List(ctx context.Context, userId uuid.UUID) (*dto.ListSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.SessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.NotDeleted{},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	total, err := uow.SessionRepository().Count(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.NotDeleted{},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.SessionListItem, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, dto.SessionListItem{
			Id:        session.Id,
			Title:     session.Title,
			Phase:     session.Phase,
			Status:    session.Status,
			CreatedAt: session.CreatedAt,
		})
	}

	return &dto.ListSessionsResponse{Sessions: items, Total: total}, nil
}

func (s *sessionService) Transcript(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.SessionTranscriptResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, _, err := s.loadOwnedSession(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	beats, err := uow.BeatRepository().FindAll(ctx, specification.BySessionID{SessionID: session.Id})
	if err != nil {
		return nil, err
	}

	items := make([]dto.BeatItem, 0, len(beats))
	for _, beat := range beats {
		items = append(items, dto.BeatItem{
			StepId:    beat.StepId,
			StepIndex: beat.StepIndex,
			UserInput: beat.UserInput,
			Reply:     beat.Reply,
			CreatedAt: beat.CreatedAt,
		})
	}

	return &dto.SessionTranscriptResponse{SessionId: session.Id, Beats: items}, nil
}

func (s *sessionService) loadOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, id uuid.UUID) (*entity.StorySession, *entity.NarrativeTemplate, error) {
	session, err := uow.SessionRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, apperrors.NewNotFound("session %s not found", id)
	}

	template, err := s.loadTemplate(ctx, uow, session.NarrativeTemplateId)
	if err != nil {
		return nil, nil, err
	}
	return session, template, nil
}

func (s *sessionService) loadTemplate(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.NarrativeTemplate, error) {
	if cached, found := s.templateCache.Get(id); found {
		return cached, nil
	}

	template, err := uow.TemplateRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, apperrors.NewNotFound("narrative template %s not found", id)
	}

	s.templateCache.Save(template)
	return template, nil
}
