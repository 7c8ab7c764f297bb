package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-storybook-be/internal/constant"
	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/repository/specification"
	"ai-storybook-be/internal/repository/unitofwork"
	"ai-storybook-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.SessionRepository())
	assert.NotNil(t, uow.StageRecordRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	ctx := context.Background()
	userId := uuid.New()

	template := &entity.NarrativeTemplate{
		Id:        uuid.New(),
		Name:      "Integration Template " + uuid.New().String(),
		Steps:     []string{"opening", "resolution"},
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	err = uow.TemplateRepository().Create(ctx, template)
	assert.NoError(t, err)

	session := &entity.StorySession{
		Id:                  uuid.New(),
		UserId:              userId,
		Title:               "Integration Session",
		Phase:               constant.PhaseClosing,
		NarrativeTemplateId: template.Id,
		Status:              constant.SessionStatusActive,
		CreatedAt:           time.Now(),
	}
	err = uow.SessionRepository().Create(ctx, session)
	assert.NoError(t, err)

	t.Run("Check Transactional Artifact Compilation", func(t *testing.T) {
		err := uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		artifact := &entity.Artifact{
			Id:              uuid.New(),
			SourceSessionId: session.Id,
			UserId:          userId,
			Title:           session.Title,
			PipelineVersion: constant.PipelineVersionV2,
			CreatedAt:       time.Now(),
		}
		err = uow.ArtifactRepository().Create(ctx, artifact)
		assert.NoError(t, err)

		records := []*entity.StageRecord{
			{Id: uuid.New(), ArtifactId: artifact.Id, Stage: constant.StagePages, Status: constant.StageStatusIdle, CreatedAt: time.Now()},
			{Id: uuid.New(), ArtifactId: artifact.Id, Stage: constant.StageImages, Status: constant.StageStatusIdle, CreatedAt: time.Now()},
		}
		err = uow.StageRecordRepository().CreateBulk(ctx, records)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		t.Log("Successfully created Artifact with StageRecords in Transaction")

		// Conditional-update guards against the real database.
		rec, err := uow.StageRecordRepository().Admit(ctx, artifact.Id, constant.StagePages)
		assert.NoError(t, err)
		if assert.NotNil(t, rec) {
			assert.Equal(t, constant.StageStatusRunning, rec.Status)
			assert.Equal(t, 1, rec.AttemptCount)
		}

		// Second admission must lose: the row is already running.
		dup, err := uow.StageRecordRepository().Admit(ctx, artifact.Id, constant.StagePages)
		assert.NoError(t, err)
		assert.Nil(t, dup)

		written, err := uow.StageRecordRepository().MarkReady(ctx, artifact.Id, constant.StagePages, entity.StageProgress{Completed: 3, Total: 3})
		assert.NoError(t, err)
		assert.True(t, written)

		// MarkReady on a non-running row is a rejected write.
		written, err = uow.StageRecordRepository().MarkReady(ctx, artifact.Id, constant.StagePages, entity.StageProgress{})
		assert.NoError(t, err)
		assert.False(t, written)

		stored, err := uow.StageRecordRepository().FindOne(ctx,
			specification.ByArtifactID{ArtifactID: artifact.Id},
			specification.ByStage{Stage: constant.StagePages},
		)
		assert.NoError(t, err)
		if assert.NotNil(t, stored) {
			assert.Equal(t, constant.StageStatusReady, stored.Status)
			assert.Equal(t, 3, stored.Progress.Completed)
		}
	})

	t.Run("Check Beat Repository", func(t *testing.T) {
		beat := &entity.StoryBeat{
			Id:        uuid.New(),
			SessionId: session.Id,
			StepId:    "opening",
			StepIndex: 0,
			UserInput: "hello",
			Reply:     "Once upon a time",
			CreatedAt: time.Now(),
		}
		err := uow.BeatRepository().Create(ctx, beat)
		assert.NoError(t, err)

		count, err := uow.BeatRepository().Count(ctx, specification.BySessionID{SessionID: session.Id})
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, count, int64(1))
		t.Logf("Beat count: %d", count)
	})
}
