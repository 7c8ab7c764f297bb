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

type sessionFixture struct {
	factory  *fakeFactory
	svc      ISessionService
	userId   uuid.UUID
	template *entity.NarrativeTemplate
}

func newSessionFixture(t *testing.T, steps []string) *sessionFixture {
	t.Helper()

	factory := newFakeFactory()
	svc := NewSessionService(factory, memory.NewTemplateCache(), fakeStoryTeller{}, nil, nopLogger{})

	template := &entity.NarrativeTemplate{
		Id:        uuid.New(),
		Name:      "Bedtime Adventure",
		Steps:     steps,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	factory.store.templates[template.Id] = template

	return &sessionFixture{
		factory:  factory,
		svc:      svc,
		userId:   uuid.New(),
		template: template,
	}
}

func (f *sessionFixture) create(t *testing.T) *dto.CreateSessionResponse {
	t.Helper()
	res, err := f.svc.Create(context.Background(), f.userId, &dto.CreateSessionRequest{
		Title:      "Milo the Fox",
		TemplateId: f.template.Id,
	})
	assert.NoError(t, err)
	return res
}

func TestSessionCreate_StartsAtIntakeOnFirstStep(t *testing.T) {
	f := newSessionFixture(t, []string{"opening", "challenge", "climax", "resolution"})

	res := f.create(t)
	assert.Equal(t, constant.PhaseIntake, res.Phase)
	assert.Equal(t, "opening", res.CurrentStepId)

	stored := f.factory.store.sessions[res.Id]
	assert.NotNil(t, stored)
	assert.Equal(t, 0, stored.ArcStepIndex)
	assert.Equal(t, constant.SessionStatusActive, stored.Status)
}

func TestSessionCreate_RejectsInactiveTemplate(t *testing.T) {
	f := newSessionFixture(t, []string{"opening", "resolution"})
	f.template.IsActive = false

	_, err := f.svc.Create(context.Background(), f.userId, &dto.CreateSessionRequest{
		Title:      "Milo the Fox",
		TemplateId: f.template.Id,
	})
	assert.Error(t, err)
	assert.IsType(t, &apperrors.PreconditionError{}, err)
}

func TestSessionCreate_RejectsUnknownTemplate(t *testing.T) {
	f := newSessionFixture(t, []string{"opening", "resolution"})

	_, err := f.svc.Create(context.Background(), f.userId, &dto.CreateSessionRequest{
		Title:      "Milo the Fox",
		TemplateId: uuid.New(),
	})
	assert.Error(t, err)
	assert.IsType(t, &apperrors.NotFoundError{}, err)
}

// Walks a session through the whole authoring lifecycle: intake, one beat per
// arc step, and the ending that parks the session in closing.
func TestSessionLifecycle_IntakeBeatsEnding(t *testing.T) {
	f := newSessionFixture(t, []string{"opening", "challenge", "climax", "resolution"})
	ctx := context.Background()

	created := f.create(t)

	intake, err := f.svc.Intake(ctx, f.userId, &dto.IntakeRequest{
		SessionId: created.Id,
		Message:   "a fox who lost his lantern",
	})
	assert.NoError(t, err)
	assert.Equal(t, constant.PhaseDrafting, intake.Phase)
	assert.Equal(t, "opening", intake.CurrentStepId)
	assert.Contains(t, intake.Reply, "a fox who lost his lantern")

	wantSteps := []string{"opening", "challenge", "climax"}
	for i, step := range wantSteps {
		beat, err := f.svc.Beat(ctx, f.userId, &dto.BeatRequest{
			SessionId: created.Id,
			Message:   "and then?",
		})
		assert.NoError(t, err)
		assert.Contains(t, beat.Reply, step)
		assert.Equal(t, i+1, beat.ArcStepIndex)
		assert.Equal(t, i == len(wantSteps)-1, beat.ArcComplete)
	}

	ending, err := f.svc.Ending(ctx, f.userId, &dto.EndingRequest{
		SessionId: created.Id,
		Message:   "they all went home",
	})
	assert.NoError(t, err)
	assert.Equal(t, constant.PhaseClosing, ending.Phase)
	assert.Contains(t, ending.Reply, "they all went home")

	show, err := f.svc.Show(ctx, f.userId, created.Id)
	assert.NoError(t, err)
	assert.Equal(t, constant.PhaseClosing, show.Phase)
	assert.Equal(t, 3, show.ArcStepIndex)
	assert.Equal(t, "resolution", show.CurrentStepId)
}

func TestBeat_PastArcEndKeepsNarratingLastStep(t *testing.T) {
	f := newSessionFixture(t, []string{"opening", "resolution"})
	ctx := context.Background()

	created := f.create(t)
	_, err := f.svc.Intake(ctx, f.userId, &dto.IntakeRequest{SessionId: created.Id, Message: "hi"})
	assert.NoError(t, err)

	for i := 0; i < 5; i++ {
		beat, err := f.svc.Beat(ctx, f.userId, &dto.BeatRequest{SessionId: created.Id, Message: "more"})
		assert.NoError(t, err)
		assert.Equal(t, 1, beat.ArcStepIndex)
		assert.True(t, beat.ArcComplete)
		assert.Equal(t, "resolution", beat.CurrentStepId)
	}
}

func TestBeat_RequiresDraftingPhase(t *testing.T) {
	f := newSessionFixture(t, []string{"opening", "resolution"})
	created := f.create(t)

	_, err := f.svc.Beat(context.Background(), f.userId, &dto.BeatRequest{
		SessionId: created.Id,
		Message:   "and then?",
	})
	assert.Error(t, err)
	assert.IsType(t, &apperrors.PreconditionError{}, err)
}

func TestIntake_RunsOnlyOnce(t *testing.T) {
	f := newSessionFixture(t, []string{"opening", "resolution"})
	ctx := context.Background()
	created := f.create(t)

	_, err := f.svc.Intake(ctx, f.userId, &dto.IntakeRequest{SessionId: created.Id, Message: "hi"})
	assert.NoError(t, err)

	_, err = f.svc.Intake(ctx, f.userId, &dto.IntakeRequest{SessionId: created.Id, Message: "hi again"})
	assert.Error(t, err)
	assert.IsType(t, &apperrors.PreconditionError{}, err)
}

func TestEnding_RequiresArcComplete(t *testing.T) {
	f := newSessionFixture(t, []string{"opening", "challenge", "resolution"})
	ctx := context.Background()
	created := f.create(t)

	_, err := f.svc.Intake(ctx, f.userId, &dto.IntakeRequest{SessionId: created.Id, Message: "hi"})
	assert.NoError(t, err)

	_, err = f.svc.Ending(ctx, f.userId, &dto.EndingRequest{SessionId: created.Id, Message: "the end"})
	assert.Error(t, err)
	assert.IsType(t, &apperrors.PreconditionError{}, err)
}

func TestTranscript_ReturnsBeatsInOrder(t *testing.T) {
	f := newSessionFixture(t, []string{"opening", "challenge", "resolution"})
	ctx := context.Background()
	created := f.create(t)

	_, err := f.svc.Intake(ctx, f.userId, &dto.IntakeRequest{SessionId: created.Id, Message: "hi"})
	assert.NoError(t, err)
	for _, msg := range []string{"first", "second"} {
		_, err := f.svc.Beat(ctx, f.userId, &dto.BeatRequest{SessionId: created.Id, Message: msg})
		assert.NoError(t, err)
	}

	transcript, err := f.svc.Transcript(ctx, f.userId, created.Id)
	assert.NoError(t, err)
	assert.Len(t, transcript.Beats, 2)
	assert.Equal(t, "opening", transcript.Beats[0].StepId)
	assert.Equal(t, "first", transcript.Beats[0].UserInput)
	assert.Equal(t, "challenge", transcript.Beats[1].StepId)
	assert.Equal(t, "second", transcript.Beats[1].UserInput)
	assert.Equal(t, 0, transcript.Beats[0].StepIndex)
	assert.Equal(t, 1, transcript.Beats[1].StepIndex)
}

func TestSession_OtherUsersCannotSee(t *testing.T) {
	f := newSessionFixture(t, []string{"opening", "resolution"})
	created := f.create(t)

	_, err := f.svc.Show(context.Background(), uuid.New(), created.Id)
	assert.Error(t, err)
	assert.IsType(t, &apperrors.NotFoundError{}, err)
}

func TestList_ScopedToOwner(t *testing.T) {
	f := newSessionFixture(t, []string{"opening", "resolution"})
	f.create(t)
	f.create(t)

	mine, err := f.svc.List(context.Background(), f.userId)
	assert.NoError(t, err)
	assert.Len(t, mine.Sessions, 2)
	assert.EqualValues(t, 2, mine.Total)

	theirs, err := f.svc.List(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Empty(t, theirs.Sessions)
	assert.EqualValues(t, 0, theirs.Total)
}
