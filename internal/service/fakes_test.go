package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-storybook-be/internal/constant"
	"ai-storybook-be/internal/entity"
	"ai-storybook-be/internal/repository/contract"
	"ai-storybook-be/internal/repository/specification"
	"ai-storybook-be/internal/repository/unitofwork"
	"ai-storybook-be/pkg/generation"
	"ai-storybook-be/pkg/storyteller"

	"github.com/google/uuid"
)

// In-memory repository fakes used by the service tests. They interpret the
// same specification values the GORM implementations translate to SQL, and
// the stage record fake reproduces the conditional-update guard semantics
// under a mutex.

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type capturingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *capturingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

type fakeStoryTeller struct{}

func (fakeStoryTeller) Intake(ctx context.Context, sessionId uuid.UUID, childName, premise string) (*storyteller.Reply, error) {
	return &storyteller.Reply{Text: "Once upon a time, " + premise}, nil
}

func (fakeStoryTeller) Beat(ctx context.Context, sessionId uuid.UUID, stepId, userInput string) (*storyteller.Reply, error) {
	return &storyteller.Reply{Text: "At " + stepId + ": " + userInput}, nil
}

func (fakeStoryTeller) Ending(ctx context.Context, sessionId uuid.UUID, endingChoice string) (*storyteller.Reply, error) {
	return &storyteller.Reply{Text: "The end: " + endingChoice}, nil
}

// scriptedCollaborator returns outcomes in sequence; the last outcome repeats.
type scriptedCollaborator struct {
	mu       sync.Mutex
	outcomes []generation.Outcome
	calls    int
}

func (c *scriptedCollaborator) Run(ctx context.Context, in generation.Input) generation.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.calls
	if idx >= len(c.outcomes) {
		idx = len(c.outcomes) - 1
	}
	c.calls++
	return c.outcomes[idx]
}

func (c *scriptedCollaborator) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func okOutcome(completed, total int) generation.Outcome {
	return generation.Outcome{Ok: true, Progress: generation.Progress{Completed: completed, Total: total}}
}

func rateLimitedOutcome(message string) generation.Outcome {
	return generation.Outcome{Classification: constant.ClassificationRateLimited, Message: message}
}

func errorOutcome(message string) generation.Outcome {
	return generation.Outcome{Classification: constant.ClassificationError, Message: message}
}

// store is the shared backing state for a fake factory's repositories.
type store struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*entity.StorySession
	templates map[uuid.UUID]*entity.NarrativeTemplate
	beats     []*entity.StoryBeat
	artifacts map[uuid.UUID]*entity.Artifact
	records   map[string]*entity.StageRecord // key: artifactId/stage
}

func newStore() *store {
	return &store{
		sessions:  make(map[uuid.UUID]*entity.StorySession),
		templates: make(map[uuid.UUID]*entity.NarrativeTemplate),
		artifacts: make(map[uuid.UUID]*entity.Artifact),
		records:   make(map[string]*entity.StageRecord),
	}
}

func recordKey(artifactId uuid.UUID, stage string) string {
	return fmt.Sprintf("%s/%s", artifactId, stage)
}

type fakeFactory struct {
	store *store
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{store: newStore()}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

var _ unitofwork.RepositoryFactory = &fakeFactory{}

type fakeUow struct {
	store *store
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) SessionRepository() contract.SessionRepository {
	return &fakeSessionRepo{store: u.store}
}

func (u *fakeUow) TemplateRepository() contract.TemplateRepository {
	return &fakeTemplateRepo{store: u.store}
}

func (u *fakeUow) BeatRepository() contract.BeatRepository {
	return &fakeBeatRepo{store: u.store}
}

func (u *fakeUow) ArtifactRepository() contract.ArtifactRepository {
	return &fakeArtifactRepo{store: u.store}
}

func (u *fakeUow) StageRecordRepository() contract.StageRecordRepository {
	return &fakeStageRecordRepo{store: u.store}
}

// Session repository

type fakeSessionRepo struct {
	store *store
}

func sessionMatches(s *entity.StorySession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByID:
			if s.Id != v.ID {
				return false
			}
		case specification.UserOwnedBy:
			if s.UserId != v.UserID {
				return false
			}
		case specification.ByPhase:
			if s.Phase != v.Phase {
				return false
			}
		case specification.NotDeleted:
			if s.IsDeleted {
				return false
			}
		case specification.FilterBy:
			if v.Field == "narrative_template_id" && s.NarrativeTemplateId != v.Value.(uuid.UUID) {
				return false
			}
		}
	}
	return true
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.StorySession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *session
	r.store.sessions[session.Id] = &clone
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.StorySession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *session
	r.store.sessions[session.Id] = &clone
	return nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.sessions[id]; ok {
		s.IsDeleted = true
	}
	return nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StorySession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sessions {
		if sessionMatches(s, specs) {
			clone := *s
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StorySession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.StorySession
	for _, s := range r.store.sessions {
		if sessionMatches(s, specs) {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

// Template repository

type fakeTemplateRepo struct {
	store *store
}

func templateMatches(t *entity.NarrativeTemplate, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByID:
			if t.Id != v.ID {
				return false
			}
		case specification.ActiveOnly:
			if !t.IsActive {
				return false
			}
		}
	}
	return true
}

func (r *fakeTemplateRepo) Create(ctx context.Context, template *entity.NarrativeTemplate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *template
	r.store.templates[template.Id] = &clone
	return nil
}

func (r *fakeTemplateRepo) Update(ctx context.Context, template *entity.NarrativeTemplate) error {
	return r.Create(ctx, template)
}

func (r *fakeTemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.templates, id)
	return nil
}

func (r *fakeTemplateRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.NarrativeTemplate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.templates {
		if templateMatches(t, specs) {
			clone := *t
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeTemplateRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.NarrativeTemplate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.NarrativeTemplate
	for _, t := range r.store.templates {
		if templateMatches(t, specs) {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeTemplateRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

// Beat repository

type fakeBeatRepo struct {
	store *store
}

func (r *fakeBeatRepo) Create(ctx context.Context, beat *entity.StoryBeat) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *beat
	r.store.beats = append(r.store.beats, &clone)
	return nil
}

func (r *fakeBeatRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StoryBeat, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.StoryBeat
	for _, b := range r.store.beats {
		matches := true
		for _, spec := range specs {
			if v, ok := spec.(specification.BySessionID); ok && b.SessionId != v.SessionID {
				matches = false
			}
		}
		if matches {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeBeatRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

// Artifact repository

type fakeArtifactRepo struct {
	store *store
}

func artifactMatches(a *entity.Artifact, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByID:
			if a.Id != v.ID {
				return false
			}
		case specification.UserOwnedBy:
			if a.UserId != v.UserID {
				return false
			}
		case specification.BySourceSessionID:
			if a.SourceSessionId != v.SessionID {
				return false
			}
		case specification.FilterBy:
			if v.Field == "pipeline_version" && a.PipelineVersion != v.Value.(string) {
				return false
			}
		}
	}
	return true
}

func (r *fakeArtifactRepo) Create(ctx context.Context, artifact *entity.Artifact) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *artifact
	r.store.artifacts[artifact.Id] = &clone
	return nil
}

func (r *fakeArtifactRepo) Update(ctx context.Context, artifact *entity.Artifact) error {
	return r.Create(ctx, artifact)
}

func (r *fakeArtifactRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.artifacts, id)
	return nil
}

func (r *fakeArtifactRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Artifact, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.artifacts {
		if artifactMatches(a, specs) {
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeArtifactRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Artifact, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Artifact
	for _, a := range r.store.artifacts {
		if artifactMatches(a, specs) {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeArtifactRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

// Stage record repository. The write methods mirror the SQL guards: each is
// an atomic check-and-set under the store mutex. Writes also fail on an
// expired context, the same way a GORM query does under WithContext.

type fakeStageRecordRepo struct {
	store *store
}

func (r *fakeStageRecordRepo) CreateBulk(ctx context.Context, records []*entity.StageRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rec := range records {
		key := recordKey(rec.ArtifactId, rec.Stage)
		if _, exists := r.store.records[key]; exists {
			return fmt.Errorf("duplicate stage record %s", key)
		}
		clone := *rec
		r.store.records[key] = &clone
	}
	return nil
}

func recordMatches(rec *entity.StageRecord, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByArtifactID:
			if rec.ArtifactId != v.ArtifactID {
				return false
			}
		case specification.ByStage:
			if rec.Stage != v.Stage {
				return false
			}
		case specification.ByStatus:
			if rec.Status != v.Status {
				return false
			}
		case specification.RetryElapsed:
			if rec.Status != constant.StageStatusRateLimited || rec.RetryAt == nil || rec.RetryAt.After(v.Now) {
				return false
			}
		}
	}
	return true
}

func (r *fakeStageRecordRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StageRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rec := range r.store.records {
		if recordMatches(rec, specs) {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeStageRecordRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StageRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.StageRecord
	for _, rec := range r.store.records {
		if recordMatches(rec, specs) {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeStageRecordRepo) Admit(ctx context.Context, artifactId uuid.UUID, stage string) (*entity.StageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.records[recordKey(artifactId, stage)]
	if !ok || rec.Status != constant.StageStatusIdle {
		return nil, nil
	}
	now := time.Now()
	rec.Status = constant.StageStatusRunning
	rec.AttemptCount++
	rec.UpdatedAt = &now
	clone := *rec
	return &clone, nil
}

func (r *fakeStageRecordRepo) MarkReady(ctx context.Context, artifactId uuid.UUID, stage string, progress entity.StageProgress) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.records[recordKey(artifactId, stage)]
	if !ok || rec.Status != constant.StageStatusRunning {
		return false, nil
	}
	now := time.Now()
	rec.Status = constant.StageStatusReady
	rec.Progress = progress
	rec.RetryAt = nil
	rec.LastErrorMessage = nil
	rec.UpdatedAt = &now
	return true, nil
}

func (r *fakeStageRecordRepo) MarkRateLimited(ctx context.Context, artifactId uuid.UUID, stage string, retryAt time.Time, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.records[recordKey(artifactId, stage)]
	if !ok || rec.Status != constant.StageStatusRunning {
		return false, nil
	}
	now := time.Now()
	rec.Status = constant.StageStatusRateLimited
	rec.RetryAt = &retryAt
	rec.LastErrorMessage = &message
	rec.UpdatedAt = &now
	return true, nil
}

func (r *fakeStageRecordRepo) MarkFailed(ctx context.Context, artifactId uuid.UUID, stage string, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.records[recordKey(artifactId, stage)]
	if !ok || rec.Status != constant.StageStatusRunning {
		return false, nil
	}
	now := time.Now()
	rec.Status = constant.StageStatusError
	rec.LastErrorMessage = &message
	rec.UpdatedAt = &now
	return true, nil
}

func (r *fakeStageRecordRepo) ResetElapsed(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, rec := range r.store.records {
		if rec.Status != constant.StageStatusRateLimited || rec.RetryAt == nil || rec.RetryAt.After(now) {
			continue
		}
		// The sweep clears only status and retry_at; the last error message
		// stays visible until the next attempt overwrites it.
		rec.Status = constant.StageStatusIdle
		rec.RetryAt = nil
		ts := time.Now()
		rec.UpdatedAt = &ts
		if !seen[rec.ArtifactId] {
			seen[rec.ArtifactId] = true
			out = append(out, rec.ArtifactId)
		}
	}
	return out, nil
}

func (r *fakeStageRecordRepo) ForceReset(ctx context.Context, artifactId uuid.UUID, stage string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.records[recordKey(artifactId, stage)]
	if !ok || rec.Status == constant.StageStatusRunning {
		return false, nil
	}
	now := time.Now()
	rec.Status = constant.StageStatusIdle
	rec.RetryAt = nil
	rec.LastErrorMessage = nil
	rec.UpdatedAt = &now
	return true, nil
}
