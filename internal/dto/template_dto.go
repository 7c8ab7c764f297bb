package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTemplateRequest struct {
	Name  string   `json:"name" validate:"required"`
	Steps []string `json:"steps" validate:"required,min=1,dive,required"`
}

type CreateTemplateResponse struct {
	Id uuid.UUID `json:"id"`
}

type UpdateTemplateRequest struct {
	Id       uuid.UUID
	Name     string   `json:"name" validate:"required"`
	Steps    []string `json:"steps" validate:"required,min=1,dive,required"`
	IsActive bool     `json:"is_active"`
}

type UpdateTemplateResponse struct {
	Id uuid.UUID `json:"id"`
}

type ShowTemplateResponse struct {
	Id        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Steps     []string   `json:"steps"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ListTemplatesResponse struct {
	Templates []ShowTemplateResponse `json:"templates"`
	Total     int64                  `json:"total"`
}
