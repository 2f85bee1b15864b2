package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidRole is returned when a role is not part of the ordered
	// role sequence.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidAction is returned when an action is not part of the
	// closed action enumeration.
	ErrInvalidAction = errors.New("invalid action")

	// ErrUnknownToken is returned when a token name has no descriptor.
	ErrUnknownToken = errors.New("unknown token type")

	// ErrInvalidSeverity is returned when a severity class is malformed.
	ErrInvalidSeverity = errors.New("invalid severity")

	// ErrUnknownRemedy is returned when an atonement proof names a remedy
	// type that is not part of the plan's requirement vector domain.
	ErrUnknownRemedy = errors.New("unknown remedy type")

	// ErrInsufficientBalance is returned when a redemption exceeds the
	// available balance. Redemptions are rejected, never clamped.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned when an amount is zero or negative
	// where a positive amount is required.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrNotAuthorized is returned when the governance collaborator
	// declines an irreversible lifecycle event. It is a distinct outcome
	// class from internal failures and never accompanies a mutation.
	ErrNotAuthorized = errors.New("not authorized")
)

// ValidationError carries the name of the offending field so callers can
// surface precise validation failures without parsing message text.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped sentinel error to support errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}
