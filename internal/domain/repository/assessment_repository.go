package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/site-assessment/internal/domain"
)

// AssessmentRepository - хранилище результатов оценки
type AssessmentRepository interface {
	// Save сохраняет все записи запуска
	Save(ctx context.Context, run *domain.AssessmentRun) error

	// GetByRunID возвращает запуск; nil без ошибки, если не найден
	GetByRunID(ctx context.Context, runID uuid.UUID) (*domain.AssessmentRun, error)
}

// ResultExporter записывает таблицу результатов в файл
type ResultExporter interface {
	// Name - короткое имя формата для логов
	Name() string

	// Export перезаписывает файл результатов
	Export(records []domain.AssessmentRecord) error
}
