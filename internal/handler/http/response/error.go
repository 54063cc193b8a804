package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses by their kind.
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch apperror.Kind(err) {
	case apperror.ErrValidation:
		ValidationError(w, map[string]string{"request": err.Error()})
	case apperror.ErrNotFound:
		NotFound(w, err.Error())
	case apperror.ErrConflict:
		Conflict(w, err.Error())
	case apperror.ErrAlreadyResolved:
		writeError(w, http.StatusConflict, "ALREADY_RESOLVED", err.Error())
	case apperror.ErrAlreadyFinalized:
		writeError(w, http.StatusConflict, "ALREADY_FINALIZED", err.Error())
	case apperror.ErrUpstreamUnavailable:
		writeError(w, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", err.Error())
	case apperror.ErrUnauthorized:
		Unauthorized(w, err.Error())
	case apperror.ErrForbidden:
		Forbidden(w, err.Error())
	case apperror.ErrIntegrityViolation:
		slog.Error("Audit integrity violation", "error", err)
		writeError(w, http.StatusInternalServerError, "INTEGRITY_VIOLATION", err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, Response{
		Success: false,
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
