package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/domain/karma"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/store"
)

// DebtServiceError is a custom error type for debt service errors.
type DebtServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for DebtServiceError.
func (e *DebtServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("debt service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("debt service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *DebtServiceError) Unwrap() error {
	return e.Err
}

// NewDebtServiceError creates a new DebtServiceError.
func NewDebtServiceError(operation, message string, err error) *DebtServiceError {
	return &DebtServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// CreateDebtParams bundles the inputs for DebtService.CreateDebt. Amount is
// the raw obligation before severity scaling.
type CreateDebtParams struct {
	DebtorID    uuid.UUID
	ReceiverID  uuid.UUID
	Action      domain.Action
	Severity    domain.Severity
	Amount      float64
	Description string
}

// DebtService manages inter-actor debt relationships.
type DebtService interface {
	// CreateDebt opens an active relationship with the principal scaled by
	// the severity multiplier.
	CreateDebt(ctx context.Context, params CreateDebtParams) (*domain.DebtRelationship, error)

	// Repay decrements the remaining balance; full repayment flips the
	// relationship to repaid.
	Repay(ctx context.Context, debtID uuid.UUID, amount float64) (*domain.DebtRelationship, error)

	// Transfer moves an active debt to a new debtor, superseding the
	// original relationship with a successor carrying the same remaining
	// balance.
	Transfer(ctx context.Context, debtID, newDebtorID uuid.UUID) (*domain.DebtRelationship, error)

	// ListDebts returns relationships where the actor owes.
	ListDebts(ctx context.Context, actorID uuid.UUID, status *domain.DebtStatus) ([]*domain.DebtRelationship, error)

	// ListCredits returns relationships where the actor is owed.
	ListCredits(ctx context.Context, actorID uuid.UUID, status *domain.DebtStatus) ([]*domain.DebtRelationship, error)
}

// debtServiceImpl implements the DebtService interface
type debtServiceImpl struct {
	db        *sql.DB
	debtStore store.DebtStore
	auditor   AuditRecorder
	params    *karma.Params
	logger    *slog.Logger
}

// NewDebtService creates a new DebtService.
// It returns an error if any of the required dependencies are nil.
func NewDebtService(
	db *sql.DB,
	debtStore store.DebtStore,
	auditor AuditRecorder,
	params *karma.Params,
	logger *slog.Logger,
) (DebtService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if debtStore == nil {
		return nil, domain.NewValidationError("debtStore", "cannot be nil", domain.ErrValidation)
	}
	if params == nil {
		params = karma.NewDefaultParams()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &debtServiceImpl{
		db:        db,
		debtStore: debtStore,
		auditor:   auditor,
		params:    params,
		logger:    logger.With(slog.String("component", "debt_service")),
	}, nil
}

// CreateDebt implements DebtService.CreateDebt
func (s *debtServiceImpl) CreateDebt(ctx context.Context, params CreateDebtParams) (*domain.DebtRelationship, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if params.Amount <= 0 {
		return nil, domain.NewValidationError("amount", "must be positive", domain.ErrInvalidAmount)
	}

	multiplier, ok := s.params.DebtMultipliers[params.Severity]
	if !ok {
		return nil, domain.NewValidationError("severity", "must be minor, medium or major", domain.ErrInvalidSeverity)
	}

	debt, err := domain.NewDebtRelationship(domain.NewDebtParams{
		DebtorID:    params.DebtorID,
		ReceiverID:  params.ReceiverID,
		Action:      params.Action,
		Severity:    params.Severity,
		Principal:   params.Amount * multiplier,
		Description: params.Description,
	})
	if err != nil {
		return nil, err
	}

	if err := s.debtStore.Create(ctx, debt); err != nil {
		return nil, NewDebtServiceError("create_debt", "failed to persist debt", err)
	}

	s.record(ctx, "debt_created", debt.DebtorID, map[string]any{
		"debt_id":     debt.ID.String(),
		"receiver_id": debt.ReceiverID.String(),
		"severity":    string(debt.Severity),
		"principal":   debt.Principal,
	})

	log.Info("debt created",
		slog.String("debt_id", debt.ID.String()),
		slog.String("debtor_id", debt.DebtorID.String()),
		slog.Float64("principal", debt.Principal))
	return debt, nil
}

// Repay implements DebtService.Repay
func (s *debtServiceImpl) Repay(ctx context.Context, debtID uuid.UUID, amount float64) (*domain.DebtRelationship, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	debt, err := s.debtStore.GetByID(ctx, debtID)
	if err != nil {
		return nil, err
	}
	if err := debt.Repay(amount); err != nil {
		return nil, err
	}
	if err := s.debtStore.Update(ctx, debt); err != nil {
		return nil, NewDebtServiceError("repay", "failed to persist repayment", err)
	}

	s.record(ctx, "debt_repayment", debt.DebtorID, map[string]any{
		"debt_id":   debt.ID.String(),
		"amount":    amount,
		"remaining": debt.Remaining,
		"status":    string(debt.Status),
	})

	if debt.Status == domain.DebtRepaid {
		log.Info("debt fully repaid", slog.String("debt_id", debt.ID.String()))
	}
	return debt, nil
}

// Transfer implements DebtService.Transfer
func (s *debtServiceImpl) Transfer(ctx context.Context, debtID, newDebtorID uuid.UUID) (*domain.DebtRelationship, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	debt, err := s.debtStore.GetByID(ctx, debtID)
	if err != nil {
		return nil, err
	}

	successor, err := debt.TransferTo(newDebtorID)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.debtStore.WithTx(tx).Transfer(ctx, debt, successor)
	})
	if err != nil {
		return nil, NewDebtServiceError("transfer", "failed to persist transfer", err)
	}

	s.record(ctx, "debt_transferred", successor.DebtorID, map[string]any{
		"debt_id":      debt.ID.String(),
		"successor_id": successor.ID.String(),
		"remaining":    successor.Remaining,
	})

	log.Info("debt transferred",
		slog.String("original_id", debt.ID.String()),
		slog.String("successor_id", successor.ID.String()),
		slog.String("new_debtor_id", newDebtorID.String()))
	return successor, nil
}

// ListDebts implements DebtService.ListDebts
func (s *debtServiceImpl) ListDebts(
	ctx context.Context,
	actorID uuid.UUID,
	status *domain.DebtStatus,
) ([]*domain.DebtRelationship, error) {
	debts, err := s.debtStore.ListByDebtor(ctx, actorID, status)
	if err != nil {
		return nil, NewDebtServiceError("list_debts", "failed to list debts", err)
	}
	return debts, nil
}

// ListCredits implements DebtService.ListCredits
func (s *debtServiceImpl) ListCredits(
	ctx context.Context,
	actorID uuid.UUID,
	status *domain.DebtStatus,
) ([]*domain.DebtRelationship, error) {
	debts, err := s.debtStore.ListByReceiver(ctx, actorID, status)
	if err != nil {
		return nil, NewDebtServiceError("list_credits", "failed to list credits", err)
	}
	return debts, nil
}

func (s *debtServiceImpl) record(ctx context.Context, eventType string, actorID uuid.UUID, payload map[string]any) {
	if s.auditor == nil {
		return
	}
	if _, err := s.auditor.RecordEvent(ctx, eventType, actorID.String(), payload); err != nil {
		s.logger.Warn("audit record failed",
			slog.String("error", err.Error()),
			slog.String("event_type", eventType))
	}
}
