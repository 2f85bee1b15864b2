package api

// Common request structures. Response shapes come straight from the service
// layer's result types; only inputs need their own DTOs here.

// LogActionRequest defines the payload for the action logging endpoint.
type LogActionRequest struct {
	Action string `json:"action" validate:"required"`
	Role   string `json:"role"   validate:"required"`
	Note   string `json:"note,omitempty"`

	// AffectedActorID names the actor harmed by the action, when there is
	// one; harmful actions against a named actor create a debt.
	AffectedActorID string `json:"affected_actor_id,omitempty" validate:"omitempty,uuid"`
}

// RedeemRequest defines the payload for the token redemption endpoint.
type RedeemRequest struct {
	Token  string  `json:"token"  validate:"required"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// CreatePlanRequest defines the payload for opening an atonement plan.
type CreatePlanRequest struct {
	OriginAction string `json:"origin_action" validate:"required"`
	Reason       string `json:"reason,omitempty"`
}

// SubmitProofRequest defines the payload for submitting atonement proof.
type SubmitProofRequest struct {
	Remedy string  `json:"remedy" validate:"required"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Text   string  `json:"text,omitempty"`
	TxRef  string  `json:"tx_ref,omitempty"`
}

// CreateDebtRequest defines the payload for creating a debt relationship.
type CreateDebtRequest struct {
	DebtorID    string  `json:"debtor_id"   validate:"required,uuid"`
	ReceiverID  string  `json:"receiver_id" validate:"required,uuid"`
	Action      string  `json:"action"      validate:"required"`
	Severity    string  `json:"severity"    validate:"required,oneof=minor medium major"`
	Amount      float64 `json:"amount"      validate:"required,gt=0"`
	Description string  `json:"description,omitempty"`
}

// RepayDebtRequest defines the payload for repaying a debt.
type RepayDebtRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// TransferDebtRequest defines the payload for transferring a debt to a new
// debtor.
type TransferDebtRequest struct {
	NewDebtorID string `json:"new_debtor_id" validate:"required,uuid"`
}

// BuildSnapshotRequest optionally names the UTC day to snapshot. An empty
// body snapshots the previous day.
type BuildSnapshotRequest struct {
	Date string `json:"date,omitempty"`
}
