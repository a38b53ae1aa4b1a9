package handler

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/pkg/errors"
	"github.com/site-assessment/internal/pkg/utils"
	"github.com/site-assessment/internal/pkg/validator"
	"github.com/site-assessment/internal/usecase/dto"
	"go.uber.org/zap"
)

// legacyMissingCoordinates - тело ответа /analyze-location без координат
const legacyMissingCoordinates = "Provide lat/lon"

// AssessmentService - операции оценки, используемые обработчиками
type AssessmentService interface {
	Assess(ctx context.Context, center domain.Coordinate) (*domain.AssessmentRun, error)
	GetRun(ctx context.Context, runID uuid.UUID) (*domain.AssessmentRun, error)
	Layers() map[string]bool
	StoreEnabled() bool
}

// AssessmentHandler - обработчик запросов оценки площадки
type AssessmentHandler struct {
	assessmentUC AssessmentService
	resultsPath  string
	logger       *zap.Logger
}

// NewAssessmentHandler - создание нового AssessmentHandler
func NewAssessmentHandler(assessmentUC AssessmentService, resultsPath string, logger *zap.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentUC: assessmentUC,
		resultsPath:  resultsPath,
		logger:       logger,
	}
}

// AnalyzeLocation godoc
// @Summary Оценка площадки (совместимый формат)
// @Description Оценивает центр и 8 точек на расстоянии 2 км, перезаписывает CSV с результатами и возвращает массив записей
// @Tags assessment
// @Accept json
// @Produce json
// @Param request body dto.AssessRequest true "Координаты центра"
// @Success 200 {array} domain.AssessmentRecord
// @Failure 400 {object} dto.LegacyError
// @Router /analyze-location [post]
func (h *AssessmentHandler) AnalyzeLocation(c *fiber.Ctx) error {
	var req dto.AssessRequest
	if err := c.BodyParser(&req); err != nil || req.Lat == nil || req.Lon == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.LegacyError{Error: legacyMissingCoordinates})
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidCoordinates.WithDetails(validator.FieldErrors(err)))
	}

	run, err := h.assessmentUC.Assess(c.Context(), domain.Coordinate{Lat: *req.Lat, Lon: *req.Lon})
	if err != nil {
		return utils.SendError(c, err)
	}

	return c.JSON(run.Records)
}

// CreateAssessment godoc
// @Summary Запуск оценки площадки
// @Description Оценивает центр и 8 точек вокруг него; результат сохраняется во все настроенные приёмники
// @Tags assessment
// @Accept json
// @Produce json
// @Param request body dto.AssessRequest true "Координаты центра"
// @Success 200 {object} utils.SuccessResponse{data=dto.AssessmentResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/assessments [post]
func (h *AssessmentHandler) CreateAssessment(c *fiber.Ctx) error {
	start := time.Now()

	var req dto.AssessRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}
	if req.Lat == nil || req.Lon == nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"required": []string{"lat", "lon"},
		}))
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidCoordinates.WithDetails(validator.FieldErrors(err)))
	}

	run, err := h.assessmentUC.Assess(c.Context(), domain.Coordinate{Lat: *req.Lat, Lon: *req.Lon})
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, dto.NewAssessmentResponse(run), utils.NewMeta(len(run.Records), start))
}

// GetAssessment godoc
// @Summary Сохранённый запуск оценки
// @Tags assessment
// @Produce json
// @Param id path string true "Run ID (UUID)"
// @Success 200 {object} utils.SuccessResponse{data=dto.AssessmentResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/assessments/{id} [get]
func (h *AssessmentHandler) GetAssessment(c *fiber.Ctx) error {
	runID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"id": "must be a UUID",
		}))
	}

	run, err := h.assessmentUC.GetRun(c.Context(), runID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, dto.NewAssessmentResponse(run), &utils.Meta{
		Total: len(run.Records),
	})
}

// DownloadResults godoc
// @Summary Текущий CSV с результатами
// @Tags assessment
// @Produce text/csv
// @Success 200 {file} file
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/assessments/latest/results.csv [get]
func (h *AssessmentHandler) DownloadResults(c *fiber.Ctx) error {
	info, err := os.Stat(h.resultsPath)
	if err != nil || info.IsDir() {
		return utils.SendError(c, errors.ErrResultsNotFound)
	}

	c.Attachment(info.Name())
	return c.SendFile(h.resultsPath)
}
