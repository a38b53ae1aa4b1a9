package errors

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails возвращает копию ошибки с деталями, не изменяя общую переменную
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// CodeOf возвращает Code первой AppError в цепочке err или пустую строку
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
