package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/site-assessment/internal/usecase/dto"
)

const healthProbeTimeout = 2 * time.Second

// DependencyCheck - проверка подключённой зависимости (redis, postgres)
type DependencyCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler - состояние сервиса, статических слоёв и зависимостей
type HealthHandler struct {
	assessmentUC AssessmentService
	checks       []DependencyCheck
}

func NewHealthHandler(assessmentUC AssessmentService, checks ...DependencyCheck) *HealthHandler {
	return &HealthHandler{
		assessmentUC: assessmentUC,
		checks:       checks,
	}
}

// Health godoc
// @Summary Health check
// @Description degraded, если слой не загружен или зависимость недоступна; код ответа всегда 200
// @Tags system
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	layers := h.assessmentUC.Layers()

	status := "healthy"
	for _, loaded := range layers {
		if !loaded {
			status = "degraded"
			break
		}
	}

	ctx, cancel := context.WithTimeout(c.Context(), healthProbeTimeout)
	defer cancel()

	deps := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			deps[check.Name] = "down"
			status = "degraded"
			continue
		}
		deps[check.Name] = "up"
	}

	return c.JSON(dto.HealthResponse{
		Status:       status,
		Layers:       layers,
		Store:        h.assessmentUC.StoreEnabled(),
		Dependencies: deps,
	})
}
