package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-storybook-be/internal/constant"
	"ai-storybook-be/internal/dto"
	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/pkg/apperrors"
	"ai-storybook-be/internal/pkg/logger"
	"ai-storybook-be/internal/repository/specification"
	"ai-storybook-be/internal/repository/unitofwork"
	"ai-storybook-be/pkg/events"
	"ai-storybook-be/pkg/generation"
	"ai-storybook-be/pkg/narrative"
	pktNats "ai-storybook-be/pkg/nats"

	"github.com/google/uuid"
)

type IGenerationService interface {
	Compile(ctx context.Context, userId uuid.UUID, req *dto.CompileStorybookRequest) (*dto.CompileStorybookResponse, error)
	Show(ctx context.Context, userId uuid.UUID, artifactId uuid.UUID) (*dto.ShowStorybookResponse, error)
	List(ctx context.Context, userId uuid.UUID) (*dto.ListStorybooksResponse, error)
	Regenerate(ctx context.Context, req *dto.RegenerateStageRequest) (*dto.RegenerateStageResponse, error)

	// Evaluate re-reads an artifact's stage statuses and triggers every stage
	// whose dependencies are satisfied. It is safe to call at any time, from
	// any goroutine, any number of times.
	Evaluate(ctx context.Context, artifactId uuid.UUID) error
}

type generationService struct {
	uowFactory       unitofwork.RepositoryFactory
	registry         *generation.Registry
	backoff          *generation.BackoffPolicy
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
	stageTimeout     time.Duration
	pipelineVersion  string
}

func NewGenerationService(
	uowFactory unitofwork.RepositoryFactory,
	registry *generation.Registry,
	backoff *generation.BackoffPolicy,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	stageTimeout time.Duration,
	pipelineVersion string,
) IGenerationService {
	return &generationService{
		uowFactory:       uowFactory,
		registry:         registry,
		backoff:          backoff,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
		stageTimeout:     stageTimeout,
		pipelineVersion:  pipelineVersion,
	}
}

func (s *generationService) Compile(ctx context.Context, userId uuid.UUID, req *dto.CompileStorybookRequest) (*dto.CompileStorybookResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx,
		specification.ByID{ID: req.SessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NewNotFound("session %s not found", req.SessionId)
	}
	if err := narrative.RequirePhase(session.Phase, constant.PhaseClosing); err != nil {
		return nil, err
	}

	existing, err := uow.ArtifactRepository().FindOne(ctx,
		specification.BySourceSessionID{SessionID: session.Id},
		specification.FilterBy{Field: "pipeline_version", Value: s.pipelineVersion},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewPrecondition("session %s is already compiling under pipeline %s", session.Id, s.pipelineVersion)
	}

	graph := generation.GraphFor(s.pipelineVersion)

	artifact := entity.Artifact{
		Id:              uuid.New(),
		SourceSessionId: session.Id,
		UserId:          userId,
		Title:           session.Title,
		PipelineVersion: graph.Version(),
		NotifyEmail:     req.NotifyEmail,
		StageParams:     req.StageParams,
		CreatedAt:       time.Now(),
	}

	records := make([]*entity.StageRecord, 0, len(graph.Order()))
	for _, stage := range graph.Order() {
		records = append(records, &entity.StageRecord{
			Id:         uuid.New(),
			ArtifactId: artifact.Id,
			Stage:      stage,
			Status:     constant.StageStatusIdle,
			CreatedAt:  time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ArtifactRepository().Create(ctx, &artifact); err != nil {
		return nil, err
	}
	if err := uow.StageRecordRepository().CreateBulk(ctx, records); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("generation", "storybook compilation started", map[string]interface{}{
		"artifact_id": artifact.Id,
		"session_id":  session.Id,
		"pipeline":    artifact.PipelineVersion,
	})

	if err := s.publishEvaluate(ctx, artifact.Id); err != nil {
		return nil, err
	}

	return &dto.CompileStorybookResponse{
		ArtifactId:      artifact.Id,
		PipelineVersion: artifact.PipelineVersion,
	}, nil
}

func (s *generationService) Evaluate(ctx context.Context, artifactId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	artifact, err := uow.ArtifactRepository().FindOne(ctx, specification.ByID{ID: artifactId})
	if err != nil {
		return err
	}
	if artifact == nil {
		return apperrors.NewNotFound("artifact %s not found", artifactId)
	}

	records, err := uow.StageRecordRepository().FindAll(ctx, specification.ByArtifactID{ArtifactID: artifactId})
	if err != nil {
		return err
	}

	statuses := make(map[string]string, len(records))
	for _, rec := range records {
		statuses[rec.Stage] = rec.Status
	}

	graph := generation.GraphFor(artifact.PipelineVersion)
	for _, stage := range graph.Order() {
		if !graph.Eligible(stage, statuses) {
			continue
		}
		if err := s.attemptTrigger(ctx, uow, artifact, stage); err != nil {
			return err
		}
	}

	if graph.Complete(statuses) {
		return s.finalize(ctx, uow, artifact)
	}
	return nil
}

// attemptTrigger admits exactly one runner per idle stage. The admission is a
// conditional update; losing the race is a normal outcome and triggers nothing.
func (s *generationService) attemptTrigger(ctx context.Context, uow unitofwork.UnitOfWork, artifact *entity.Artifact, stage string) error {
	rec, err := uow.StageRecordRepository().Admit(ctx, artifact.Id, stage)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil // lost the race, another runner owns this stage
	}

	collaborator, ok := s.registry.For(stage)
	if !ok {
		msg := "no collaborator registered for stage " + stage
		if _, err := uow.StageRecordRepository().MarkFailed(ctx, artifact.Id, stage, msg); err != nil {
			return err
		}
		s.logger.Error("generation", "stage has no collaborator", map[string]interface{}{
			"artifact_id": artifact.Id,
			"stage":       stage,
		})
		return nil
	}

	s.logger.Info("generation", "stage triggered", map[string]interface{}{
		"artifact_id": artifact.Id,
		"stage":       stage,
		"attempt":     rec.AttemptCount,
	})
	s.publishStageEvent(ctx, artifact, rec)

	go s.runStage(artifact, rec, collaborator)
	return nil
}

// outcomeWriteTimeout bounds the status write after a collaborator returns.
const outcomeWriteTimeout = 30 * time.Second

// runStage executes a collaborator in a detached goroutine. The request
// context is gone by the time work completes, so the run gets its own
// deadline-bound context.
func (s *generationService) runStage(artifact *entity.Artifact, rec *entity.StageRecord, collaborator generation.Collaborator) {
	runCtx, cancelRun := context.WithTimeout(context.Background(), s.stageTimeout)
	outcome := collaborator.Run(runCtx, generation.Input{
		ArtifactId: artifact.Id,
		SessionId:  artifact.SourceSessionId,
		Params:     artifact.StageParams,
	})
	cancelRun()

	// A collaborator that hit its deadline returns with runCtx already
	// expired. The outcome must still be recorded, or the record would stay
	// running forever, so every write below runs on its own context.
	ctx, cancel := context.WithTimeout(context.Background(), outcomeWriteTimeout)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.StageRecordRepository()

	var written bool
	var err error
	switch {
	case outcome.Ok:
		written, err = repo.MarkReady(ctx, artifact.Id, rec.Stage, entity.StageProgress{
			Completed: outcome.Progress.Completed,
			Total:     outcome.Progress.Total,
		})
	case outcome.Classification == constant.ClassificationRateLimited:
		retryAt := s.backoff.Next(rec.AttemptCount)
		if outcome.RetryHint != nil && outcome.RetryHint.After(time.Now()) {
			retryAt = *outcome.RetryHint
		}
		written, err = repo.MarkRateLimited(ctx, artifact.Id, rec.Stage, retryAt, outcome.Message)
	default:
		written, err = repo.MarkFailed(ctx, artifact.Id, rec.Stage, outcome.Message)
	}

	if err != nil {
		s.logger.Error("generation", "failed to record stage outcome", map[string]interface{}{
			"artifact_id": artifact.Id,
			"stage":       rec.Stage,
			"error":       err.Error(),
		})
		return
	}
	if !written {
		// The record left running state under us (e.g. a privileged reset).
		// The store already reflects a newer truth, so this outcome is void.
		s.logger.Warn("generation", "stage outcome discarded, record no longer running", map[string]interface{}{
			"artifact_id": artifact.Id,
			"stage":       rec.Stage,
		})
		return
	}

	updated, err := repo.FindOne(ctx,
		specification.ByArtifactID{ArtifactID: artifact.Id},
		specification.ByStage{Stage: rec.Stage},
	)
	if err == nil && updated != nil {
		s.publishStageEvent(ctx, artifact, updated)
	}

	if err := s.publishEvaluate(ctx, artifact.Id); err != nil {
		s.logger.Error("generation", "failed to schedule re-evaluation", map[string]interface{}{
			"artifact_id": artifact.Id,
			"error":       err.Error(),
		})
	}
}

// finalize completes the source session once every stage of the DAG is ready.
// Guarded on the closing phase so repeated evaluations are no-ops.
func (s *generationService) finalize(ctx context.Context, uow unitofwork.UnitOfWork, artifact *entity.Artifact) error {
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: artifact.SourceSessionId})
	if err != nil {
		return err
	}
	if session == nil || session.Phase == constant.PhaseFinalized {
		return nil
	}
	if session.Phase != constant.PhaseClosing {
		s.logger.Warn("generation", "artifact complete but session not in closing phase", map[string]interface{}{
			"session_id": session.Id,
			"phase":      session.Phase,
		})
		return nil
	}

	now := time.Now()
	session.Phase = constant.PhaseFinalized
	session.Status = constant.SessionStatusCompleted
	session.UpdatedAt = &now
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return err
	}

	s.logger.Info("generation", "storybook completed, session finalized", map[string]interface{}{
		"artifact_id": artifact.Id,
		"session_id":  session.Id,
	})

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: constant.EventStorybookCompleted,
			Data: map[string]interface{}{
				"artifact_id": artifact.Id,
				"session_id":  session.Id,
				"user_id":     artifact.UserId,
				"title":       artifact.Title,
				"email":       artifact.NotifyEmail,
			},
			OccurredAt: now,
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("generation", "failed to publish completion event", map[string]interface{}{
				"artifact_id": artifact.Id,
				"error":       err.Error(),
			})
		}
	}
	return nil
}

func (s *generationService) Show(ctx context.Context, userId uuid.UUID, artifactId uuid.UUID) (*dto.ShowStorybookResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	artifact, err := uow.ArtifactRepository().FindOne(ctx,
		specification.ByID{ID: artifactId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, nil
	}

	records, err := uow.StageRecordRepository().FindAll(ctx, specification.ByArtifactID{ArtifactID: artifactId})
	if err != nil {
		return nil, err
	}

	graph := generation.GraphFor(artifact.PipelineVersion)
	statuses := make(map[string]string, len(records))
	byStage := make(map[string]*entity.StageRecord, len(records))
	for _, rec := range records {
		statuses[rec.Stage] = rec.Status
		byStage[rec.Stage] = rec
	}

	stages := make([]dto.StageStatusItem, 0, len(graph.Order()))
	for _, stage := range graph.Order() {
		rec, ok := byStage[stage]
		if !ok {
			continue
		}
		stages = append(stages, dto.StageStatusItem{
			Stage:             rec.Stage,
			Status:            rec.Status,
			ProgressCompleted: rec.Progress.Completed,
			ProgressTotal:     rec.Progress.Total,
			AttemptCount:      rec.AttemptCount,
			RetryAt:           rec.RetryAt,
			LastErrorMessage:  rec.LastErrorMessage,
		})
	}

	return &dto.ShowStorybookResponse{
		Id:              artifact.Id,
		SessionId:       artifact.SourceSessionId,
		Title:           artifact.Title,
		PipelineVersion: artifact.PipelineVersion,
		Complete:        graph.Complete(statuses),
		Stages:          stages,
		CreatedAt:       artifact.CreatedAt,
		UpdatedAt:       artifact.UpdatedAt,
	}, nil
}

func (s *generationService) List(ctx context.Context, userId uuid.UUID) (*dto.ListStorybooksResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	artifacts, err := uow.ArtifactRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	total, err := uow.ArtifactRepository().Count(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}

	items := make([]dto.StorybookListItem, 0, len(artifacts))
	for _, artifact := range artifacts {
		records, err := uow.StageRecordRepository().FindAll(ctx, specification.ByArtifactID{ArtifactID: artifact.Id})
		if err != nil {
			return nil, err
		}
		statuses := make(map[string]string, len(records))
		for _, rec := range records {
			statuses[rec.Stage] = rec.Status
		}
		graph := generation.GraphFor(artifact.PipelineVersion)
		items = append(items, dto.StorybookListItem{
			Id:              artifact.Id,
			SessionId:       artifact.SourceSessionId,
			Title:           artifact.Title,
			PipelineVersion: artifact.PipelineVersion,
			Complete:        graph.Complete(statuses),
			CreatedAt:       artifact.CreatedAt,
		})
	}

	return &dto.ListStorybooksResponse{Storybooks: items, Total: total}, nil
}

func (s *generationService) Regenerate(ctx context.Context, req *dto.RegenerateStageRequest) (*dto.RegenerateStageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	artifact, err := uow.ArtifactRepository().FindOne(ctx, specification.ByID{ID: req.ArtifactId})
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, apperrors.NewNotFound("artifact %s not found", req.ArtifactId)
	}

	graph := generation.GraphFor(artifact.PipelineVersion)
	if !graph.Contains(req.Stage) {
		return nil, apperrors.NewPrecondition("stage %q is not part of pipeline %s", req.Stage, artifact.PipelineVersion)
	}

	reset, err := uow.StageRecordRepository().ForceReset(ctx, artifact.Id, req.Stage)
	if err != nil {
		return nil, err
	}

	if reset {
		s.logger.Info("generation", "stage force-reset by admin", map[string]interface{}{
			"artifact_id": artifact.Id,
			"stage":       req.Stage,
		})
		if err := s.publishEvaluate(ctx, artifact.Id); err != nil {
			return nil, err
		}
	}

	return &dto.RegenerateStageResponse{
		ArtifactId: artifact.Id,
		Stage:      req.Stage,
		Reset:      reset,
	}, nil
}

func (s *generationService) publishEvaluate(ctx context.Context, artifactId uuid.UUID) error {
	payload, err := json.Marshal(dto.PublishEvaluateMessage{ArtifactId: artifactId})
	if err != nil {
		return err
	}
	return s.publisherService.Publish(ctx, payload)
}

func (s *generationService) publishStageEvent(ctx context.Context, artifact *entity.Artifact, rec *entity.StageRecord) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type: constant.EventStageStatusChanged,
		Data: map[string]interface{}{
			"artifact_id":        artifact.Id,
			"session_id":         artifact.SourceSessionId,
			"user_id":            artifact.UserId,
			"stage":              rec.Stage,
			"status":             rec.Status,
			"progress_completed": rec.Progress.Completed,
			"progress_total":     rec.Progress.Total,
		},
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("generation", "failed to publish stage event", map[string]interface{}{
			"artifact_id": artifact.Id,
			"stage":       rec.Stage,
			"error":       err.Error(),
		})
	}
}
