package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors
	// (e.g., ErrActorNotFound, ErrPlanNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrStaleDecay is returned when a compare-and-swap on an actor's
	// last-decay timestamp loses to a concurrent writer. The losing caller
	// reloads and proceeds; the concurrent writer already aged the ledger.
	ErrStaleDecay = errors.New("decay timestamp changed concurrently")

	// Entity-specific "not found" errors

	// ErrActorNotFound indicates that the requested actor does not exist in the store.
	ErrActorNotFound = fmt.Errorf("%w: actor", ErrNotFound)

	// ErrPlanNotFound indicates that the requested atonement plan does not exist in the store.
	ErrPlanNotFound = fmt.Errorf("%w: atonement plan", ErrNotFound)

	// ErrDebtNotFound indicates that the requested debt relationship does not exist in the store.
	ErrDebtNotFound = fmt.Errorf("%w: debt relationship", ErrNotFound)

	// ErrDeathEventNotFound indicates that no death event exists for the actor.
	ErrDeathEventNotFound = fmt.Errorf("%w: death event", ErrNotFound)

	// ErrSnapshotNotFound indicates that the requested audit snapshot does not exist.
	ErrSnapshotNotFound = fmt.Errorf("%w: audit snapshot", ErrNotFound)
)
