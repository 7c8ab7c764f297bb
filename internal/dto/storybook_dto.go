package dto

import (
	"time"

	"github.com/google/uuid"
)

// PublishEvaluateMessage asks the cascade consumer to re-evaluate an
// artifact's stage DAG.
type PublishEvaluateMessage struct {
	ArtifactId uuid.UUID `json:"artifact_id"`
}

type CompileStorybookRequest struct {
	SessionId   uuid.UUID
	NotifyEmail string
	StageParams map[string]interface{} `json:"stage_params"`
}

type CompileStorybookResponse struct {
	ArtifactId      uuid.UUID `json:"artifact_id"`
	PipelineVersion string    `json:"pipeline_version"`
}

type StageStatusItem struct {
	Stage             string     `json:"stage"`
	Status            string     `json:"status"`
	ProgressCompleted int        `json:"progress_completed"`
	ProgressTotal     int        `json:"progress_total"`
	AttemptCount      int        `json:"attempt_count"`
	RetryAt           *time.Time `json:"retry_at,omitempty"`
	LastErrorMessage  *string    `json:"last_error_message,omitempty"`
}

type ShowStorybookResponse struct {
	Id              uuid.UUID         `json:"id"`
	SessionId       uuid.UUID         `json:"session_id"`
	Title           string            `json:"title"`
	PipelineVersion string            `json:"pipeline_version"`
	Complete        bool              `json:"complete"`
	Stages          []StageStatusItem `json:"stages"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       *time.Time        `json:"updated_at"`
}

type StorybookListItem struct {
	Id              uuid.UUID `json:"id"`
	SessionId       uuid.UUID `json:"session_id"`
	Title           string    `json:"title"`
	PipelineVersion string    `json:"pipeline_version"`
	Complete        bool      `json:"complete"`
	CreatedAt       time.Time `json:"created_at"`
}

type ListStorybooksResponse struct {
	Storybooks []StorybookListItem `json:"storybooks"`
	Total      int64               `json:"total"`
}

type RegenerateStageRequest struct {
	ArtifactId uuid.UUID
	Stage      string `json:"stage" validate:"required"`
}

type RegenerateStageResponse struct {
	ArtifactId uuid.UUID `json:"artifact_id"`
	Stage      string    `json:"stage"`
	Reset      bool      `json:"reset"`
}

// StageProgressEvent is the payload pushed over the websocket hub
// whenever a stage record changes status or progress.
type StageProgressEvent struct {
	ArtifactId        uuid.UUID  `json:"artifact_id"`
	SessionId         uuid.UUID  `json:"session_id"`
	UserId            uuid.UUID  `json:"user_id"`
	Stage             string     `json:"stage"`
	Status            string     `json:"status"`
	ProgressCompleted int        `json:"progress_completed"`
	ProgressTotal     int        `json:"progress_total"`
	RetryAt           *time.Time `json:"retry_at,omitempty"`
}
