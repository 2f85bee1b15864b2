package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vedhika/samsara-api/internal/api/shared"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/service"
	"github.com/vedhika/samsara-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Governance denial is a distinct outcome class, not a server failure.
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden

	// Retired actors accept no further operations.
	case errors.Is(err, service.ErrActorRetired):
		return http.StatusGone

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, service.ErrThresholdNotReached),
		errors.Is(err, service.ErrRebirthNotPending),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidAction),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidSeverity),
		errors.Is(err, domain.ErrUnknownToken),
		errors.Is(err, domain.ErrUnknownRemedy),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrNotAuthorized):
		return "Lifecycle event not authorized"

	case errors.Is(err, service.ErrActorRetired):
		return "Actor is retired"

	case errors.Is(err, service.ErrThresholdNotReached):
		return "Destiny threshold not reached"

	case errors.Is(err, service.ErrRebirthNotPending):
		return "No pending death event"

	case errors.Is(err, domain.ErrInsufficientBalance):
		return "Insufficient balance"

	case errors.Is(err, store.ErrActorNotFound):
		return "Actor not found"

	case errors.Is(err, store.ErrPlanNotFound):
		return "Atonement plan not found"

	case errors.Is(err, store.ErrDebtNotFound):
		return "Debt relationship not found"

	case errors.Is(err, store.ErrSnapshotNotFound):
		return "Audit snapshot not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, domain.ErrInvalidRole):
		return "Invalid role"

	case errors.Is(err, domain.ErrInvalidAction):
		return "Invalid action"

	case errors.Is(err, domain.ErrUnknownToken):
		return "Unknown token type"

	case errors.Is(err, domain.ErrUnknownRemedy):
		return "Unknown remedy type"

	case errors.Is(err, domain.ErrInvalidSeverity):
		return "Invalid severity"

	case errors.Is(err, domain.ErrInvalidAmount):
		return "Amount must be positive"

	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidID):
		// Validation errors carry a field name that is safe to surface.
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return fmt.Sprintf("Invalid %s", validationErr.Field)
		}
		return "Validation error"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes a sanitized error response while logging the full
// error detail. An empty message falls back to the mapped safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	statusCode := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, statusCode, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Extract the field name and validation tag
		// Example format: "Key: 'LogActionRequest.Action' Error:Field validation for 'Action' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid":
		return "invalid UUID format"
	case "min", "gt":
		return "too small"
	case "max", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
