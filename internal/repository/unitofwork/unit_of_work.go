package unitofwork

import (
	"context"

	"ai-storybook-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() contract.SessionRepository
	TemplateRepository() contract.TemplateRepository
	BeatRepository() contract.BeatRepository
	ArtifactRepository() contract.ArtifactRepository
	StageRecordRepository() contract.StageRecordRepository
}
