package errors

import "net/http"

var (
	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrAssessmentCancelled = New(
		"ASSESSMENT_CANCELLED",
		"Assessment was cancelled before completion",
		http.StatusServiceUnavailable,
	)

	ErrAssessmentNotFound = New(
		"ASSESSMENT_NOT_FOUND",
		"Assessment run not found",
		http.StatusNotFound,
	)

	ErrResultsNotFound = New(
		"RESULTS_NOT_FOUND",
		"No results file has been written yet",
		http.StatusNotFound,
	)

	ErrStoreDisabled = New(
		"STORE_DISABLED",
		"Assessment store is not configured",
		http.StatusServiceUnavailable,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
