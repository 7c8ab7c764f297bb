package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title      string    `json:"title" validate:"required"`
	TemplateId uuid.UUID `json:"template_id" validate:"required"`
}

type CreateSessionResponse struct {
	Id            uuid.UUID `json:"id"`
	Phase         string    `json:"phase"`
	CurrentStepId string    `json:"current_step_id"`
}

type IntakeRequest struct {
	SessionId uuid.UUID
	Message   string `json:"message" validate:"required"`
}

type IntakeResponse struct {
	Reply         string `json:"reply"`
	Phase         string `json:"phase"`
	CurrentStepId string `json:"current_step_id"`
}

type BeatRequest struct {
	SessionId uuid.UUID
	Message   string `json:"message" validate:"required"`
}

type BeatResponse struct {
	Reply         string `json:"reply"`
	Phase         string `json:"phase"`
	CurrentStepId string `json:"current_step_id"`
	ArcStepIndex  int    `json:"arc_step_index"`
	ArcComplete   bool   `json:"arc_complete"`
}

type EndingRequest struct {
	SessionId uuid.UUID
	Message   string `json:"message" validate:"required"`
}

type EndingResponse struct {
	Reply string `json:"reply"`
	Phase string `json:"phase"`
}

type ShowSessionResponse struct {
	Id            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Phase         string     `json:"phase"`
	Status        string     `json:"status"`
	ArcStepIndex  int        `json:"arc_step_index"`
	CurrentStepId string     `json:"current_step_id"`
	TemplateId    uuid.UUID  `json:"template_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

type SessionListItem struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Phase     string    `json:"phase"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ListSessionsResponse struct {
	Sessions []SessionListItem `json:"sessions"`
	Total    int64             `json:"total"`
}

type BeatItem struct {
	StepId    string    `json:"step_id"`
	StepIndex int       `json:"step_index"`
	UserInput string    `json:"user_input"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionTranscriptResponse struct {
	SessionId uuid.UUID  `json:"session_id"`
	Beats     []BeatItem `json:"beats"`
}
