package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrActorRetired indicates the actor was superseded by a rebirth and
	// accepts no further operations.
	// API layer should map this to HTTP 410 Gone.
	ErrActorRetired = errors.New("actor is retired")

	// ErrThresholdNotReached indicates a death was requested before the
	// destiny counter crossed the threshold.
	// API layer should map this to HTTP 409 Conflict.
	ErrThresholdNotReached = errors.New("destiny threshold not reached")

	// ErrRebirthNotPending indicates a rebirth was requested with no
	// unconsumed death event.
	// API layer should map this to HTTP 409 Conflict.
	ErrRebirthNotPending = errors.New("no pending death event for rebirth")
)
