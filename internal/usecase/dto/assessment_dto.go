package dto

import (
	"github.com/google/uuid"
	"github.com/site-assessment/internal/domain"
)

// AssessRequest - запрос на оценку площадки вокруг точки
type AssessRequest struct {
	Lat *float64 `json:"lat" validate:"required,min=-90,max=90" example:"12.9716"`
	Lon *float64 `json:"lon" validate:"required,min=-180,max=180" example:"77.5946"`
}

// LegacyError - тело ошибки для /analyze-location
type LegacyError struct {
	Error string `json:"error" example:"Provide lat/lon"`
}

// AssessmentResponse - результат запуска оценки
type AssessmentResponse struct {
	RunID     uuid.UUID                 `json:"run_id"`
	Center    domain.Coordinate         `json:"center"`
	Records   []domain.AssessmentRecord `json:"records"`
	CreatedAt string                    `json:"created_at"`
}

// NewAssessmentResponse конвертирует запуск в DTO
func NewAssessmentResponse(run *domain.AssessmentRun) AssessmentResponse {
	return AssessmentResponse{
		RunID:     run.ID,
		Center:    run.Center,
		Records:   run.Records,
		CreatedAt: run.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// HealthResponse - состояние сервиса
type HealthResponse struct {
	Status       string            `json:"status"`
	Layers       map[string]bool   `json:"layers"`
	Store        bool              `json:"store"`
	Dependencies map[string]string `json:"dependencies"`
}
