package domain

import (
	"time"

	"github.com/google/uuid"
)

// IntentClass records whether an action was rewarded or penalized.
type IntentClass string

const (
	IntentReward  IntentClass = "reward"
	IntentPenalty IntentClass = "penalty"
)

// Transaction is an append-only record of a single economic mutation.
// Transactions are never updated after creation.
type Transaction struct {
	ID      uuid.UUID `json:"id"`
	ActorID uuid.UUID `json:"actor_id"`
	Action  Action    `json:"action"`

	// Token and Amount describe the balance delta applied. Amount is
	// negative for penalties.
	Token  TokenName `json:"token"`
	Amount float64   `json:"amount"`

	Intent IntentClass `json:"intent"`

	// Tier is set when the delta targeted a tiered balance.
	Tier Severity `json:"tier,omitempty"`

	// Punishment labels the progressive punishment level applied, when the
	// action was a cheat.
	Punishment string `json:"punishment,omitempty"`

	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTransactionParams bundles the inputs for NewTransaction.
type NewTransactionParams struct {
	ActorID    uuid.UUID
	Action     Action
	Token      TokenName
	Amount     float64
	Intent     IntentClass
	Tier       Severity
	Punishment string
	Note       string
}

// NewTransaction creates a validated transaction record.
func NewTransaction(params NewTransactionParams) (*Transaction, error) {
	if params.ActorID == uuid.Nil {
		return nil, NewValidationError("actor_id", "cannot be empty", ErrInvalidID)
	}
	if !params.Action.IsValid() {
		return nil, NewValidationError("action", "is not a known action", ErrInvalidAction)
	}
	if params.Token == "" {
		return nil, NewValidationError("token", "cannot be empty", ErrUnknownToken)
	}
	if params.Intent != IntentReward && params.Intent != IntentPenalty {
		return nil, NewValidationError("intent", "must be reward or penalty", ErrValidation)
	}

	return &Transaction{
		ID:         uuid.New(),
		ActorID:    params.ActorID,
		Action:     params.Action,
		Token:      params.Token,
		Amount:     params.Amount,
		Intent:     params.Intent,
		Tier:       params.Tier,
		Punishment: params.Punishment,
		Note:       params.Note,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
