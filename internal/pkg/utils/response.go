package utils

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	apperrors "github.com/site-assessment/internal/pkg/errors"
)

type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Error *apperrors.AppError `json:"error"`
}

type Meta struct {
	Total    int     `json:"total,omitempty"`
	TimeMSec float64 `json:"time_ms,omitempty"`
}

// NewMeta заполняет total и время обработки с момента start
func NewMeta(total int, start time.Time) *Meta {
	return &Meta{
		Total:    total,
		TimeMSec: float64(time.Since(start).Microseconds()) / 1000,
	}
}

func SendSuccess(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return c.JSON(SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

// SendError отвечает конвертом ошибки: AppError как есть, *fiber.Error по его статусу,
// остальное как 500 без подробностей.
func SendError(c *fiber.Ctx, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.StatusCode).JSON(ErrorResponse{
			Error: appErr,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Error: apperrors.New(statusCode(fiberErr.Code), fiberErr.Message, fiberErr.Code),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: apperrors.ErrInternalServer,
	})
}

// statusCode: 404 -> NOT_FOUND, 405 -> METHOD_NOT_ALLOWED
func statusCode(status int) string {
	if status >= http.StatusInternalServerError {
		return apperrors.ErrInternalServer.Code
	}
	text := http.StatusText(status)
	if text == "" {
		return "HTTP_ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
