package http

import (
	"errors"
	"net/http"

	"budget/internal/core"
	applog "budget/internal/log"
)

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidFilter), errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it as a JSON error. Internal errors are not
// echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	status := errorStatus(err)
	logger := applog.FromContext(r.Context())

	if status == http.StatusInternalServerError {
		logger.LogError(r.Context(), "Request failed", err, operation, nil)
		InternalServerError("internal error").Write(w)
		return
	}

	logger.InfoContext(r.Context(), "Request rejected", "operation", operation, "status", status, "error", err)
	ErrorResponse(status, err.Error()).Write(w)
}
