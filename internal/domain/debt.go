package domain

import (
	"time"

	"github.com/google/uuid"
)

// DebtStatus is the debt relationship state. active transitions to exactly
// one of repaid (remaining hit zero) or transferred (superseded by a new
// relationship); both are terminal.
type DebtStatus string

const (
	DebtActive      DebtStatus = "active"
	DebtRepaid      DebtStatus = "repaid"
	DebtTransferred DebtStatus = "transferred"
)

// IsValid reports whether the status is a known debt state.
func (s DebtStatus) IsValid() bool {
	switch s {
	case DebtActive, DebtRepaid, DebtTransferred:
		return true
	default:
		return false
	}
}

// DebtRelationship records an obligation from one actor to another created
// by a harmful action. The remaining balance never goes negative.
type DebtRelationship struct {
	ID         uuid.UUID `json:"id"`
	DebtorID   uuid.UUID `json:"debtor_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Action     Action    `json:"action"`
	Severity   Severity  `json:"severity"`

	// Principal is the severity-scaled obligation at creation time.
	Principal float64 `json:"principal"`

	// Remaining is the unpaid balance, decremented by repayments.
	Remaining float64 `json:"remaining"`

	Status      DebtStatus `json:"status"`
	Description string     `json:"description,omitempty"`

	// TransferredFrom points at the relationship this one superseded, when
	// the debt was moved to a new debtor.
	TransferredFrom *uuid.UUID `json:"transferred_from,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDebtParams bundles the inputs for NewDebtRelationship.
type NewDebtParams struct {
	DebtorID    uuid.UUID
	ReceiverID  uuid.UUID
	Action      Action
	Severity    Severity
	Principal   float64
	Description string
}

// NewDebtRelationship creates an active debt with remaining == principal.
func NewDebtRelationship(params NewDebtParams) (*DebtRelationship, error) {
	if params.DebtorID == uuid.Nil {
		return nil, NewValidationError("debtor_id", "cannot be empty", ErrInvalidID)
	}
	if params.ReceiverID == uuid.Nil {
		return nil, NewValidationError("receiver_id", "cannot be empty", ErrInvalidID)
	}
	if params.DebtorID == params.ReceiverID {
		return nil, NewValidationError("receiver_id", "cannot equal debtor_id", ErrValidation)
	}
	if !params.Action.IsValid() {
		return nil, NewValidationError("action", "is not a known action", ErrInvalidAction)
	}
	if !params.Severity.IsValid() {
		return nil, NewValidationError("severity", "must be minor, medium or major", ErrInvalidSeverity)
	}
	if params.Principal <= 0 {
		return nil, NewValidationError("amount", "must be positive", ErrInvalidAmount)
	}

	now := time.Now().UTC()
	return &DebtRelationship{
		ID:          uuid.New(),
		DebtorID:    params.DebtorID,
		ReceiverID:  params.ReceiverID,
		Action:      params.Action,
		Severity:    params.Severity,
		Principal:   params.Principal,
		Remaining:   params.Principal,
		Status:      DebtActive,
		Description: params.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Repay decrements the remaining balance. Amounts that are non-positive or
// exceed the remaining balance are rejected rather than clamped, so caller
// errors surface instead of disappearing. Full repayment flips the status
// to repaid.
func (d *DebtRelationship) Repay(amount float64) error {
	if d.Status != DebtActive {
		return NewValidationError("status", "debt is not active", ErrValidation)
	}
	if amount <= 0 {
		return NewValidationError("amount", "must be positive", ErrInvalidAmount)
	}
	if amount > d.Remaining {
		return NewValidationError("amount", "exceeds remaining balance", ErrInvalidAmount)
	}

	d.Remaining -= amount
	if d.Remaining == 0 {
		d.Status = DebtRepaid
	}
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// TransferTo creates the successor relationship for a new debtor carrying
// the same remaining balance and a provenance pointer back to this one, and
// marks this relationship transferred.
func (d *DebtRelationship) TransferTo(newDebtorID uuid.UUID) (*DebtRelationship, error) {
	if d.Status != DebtActive {
		return nil, NewValidationError("status", "debt is not active", ErrValidation)
	}
	if newDebtorID == uuid.Nil {
		return nil, NewValidationError("new_debtor_id", "cannot be empty", ErrInvalidID)
	}
	if newDebtorID == d.ReceiverID {
		return nil, NewValidationError("new_debtor_id", "cannot equal receiver_id", ErrValidation)
	}

	now := time.Now().UTC()
	origin := d.ID
	successor := &DebtRelationship{
		ID:              uuid.New(),
		DebtorID:        newDebtorID,
		ReceiverID:      d.ReceiverID,
		Action:          d.Action,
		Severity:        d.Severity,
		Principal:       d.Principal,
		Remaining:       d.Remaining,
		Status:          DebtActive,
		Description:     d.Description,
		TransferredFrom: &origin,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	d.Status = DebtTransferred
	d.UpdatedAt = now
	return successor, nil
}
