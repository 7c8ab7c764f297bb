package service

import (
	"context"
	"time"

	"ai-storybook-be/internal/pkg/logger"
	"ai-storybook-be/internal/repository/unitofwork"
)

type ISweeperService interface {
	Start(ctx context.Context)
	SweepOnce(ctx context.Context) error
}

// sweeperService periodically returns rate-limited stages whose retry time
// has elapsed back to idle, then re-evaluates the affected artifacts. This is
// the only path by which a rate-limited stage becomes runnable again.
type sweeperService struct {
	uowFactory        unitofwork.RepositoryFactory
	generationService IGenerationService
	logger            logger.ILogger
	interval          time.Duration
}

func NewSweeperService(
	uowFactory unitofwork.RepositoryFactory,
	generationService IGenerationService,
	log logger.ILogger,
	interval time.Duration,
) ISweeperService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &sweeperService{
		uowFactory:        uowFactory,
		generationService: generationService,
		logger:            log,
		interval:          interval,
	}
}

func (s *sweeperService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.SweepOnce(ctx); err != nil {
					s.logger.Error("sweeper", "sweep failed", map[string]interface{}{
						"error": err.Error(),
					})
				}
			}
		}
	}()
}

func (s *sweeperService) SweepOnce(ctx context.Context) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	artifactIds, err := uow.StageRecordRepository().ResetElapsed(ctx, time.Now())
	if err != nil {
		return err
	}
	if len(artifactIds) == 0 {
		return nil
	}

	s.logger.Info("sweeper", "retry windows elapsed, stages reset", map[string]interface{}{
		"artifacts": len(artifactIds),
	})

	for _, id := range artifactIds {
		if err := s.generationService.Evaluate(ctx, id); err != nil {
			s.logger.Error("sweeper", "re-evaluation after reset failed", map[string]interface{}{
				"artifact_id": id,
				"error":       err.Error(),
			})
		}
	}
	return nil
}
