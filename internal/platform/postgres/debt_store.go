package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/store"
)

// PostgresDebtStore implements the store.DebtStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDebtStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDebtStore creates a new PostgreSQL implementation of the DebtStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDebtStore(db store.DBTX, logger *slog.Logger) *PostgresDebtStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDebtStore{
		db:     db,
		logger: logger.With(slog.String("component", "debt_store")),
	}
}

// Ensure PostgresDebtStore implements store.DebtStore interface
var _ store.DebtStore = (*PostgresDebtStore)(nil)

// WithTx implements store.DebtStore.WithTx
func (s *PostgresDebtStore) WithTx(tx *sql.Tx) store.DebtStore {
	return &PostgresDebtStore{
		db:     tx,
		logger: s.logger,
	}
}

const debtColumns = `
	id, debtor_id, receiver_id, action, severity, principal, remaining,
	status, description, transferred_from, created_at, updated_at
`

// Create implements store.DebtStore.Create
// Returns store.ErrInvalidEntity if the debtor or receiver does not exist.
func (s *PostgresDebtStore) Create(ctx context.Context, debt *domain.DebtRelationship) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.insert(ctx, debt); err != nil {
		log.Error("failed to create debt relationship",
			slog.String("error", err.Error()),
			slog.String("debt_id", debt.ID.String()))
		return err
	}

	log.Info("debt relationship created",
		slog.String("debt_id", debt.ID.String()),
		slog.String("debtor_id", debt.DebtorID.String()),
		slog.String("receiver_id", debt.ReceiverID.String()),
		slog.Float64("principal", debt.Principal))
	return nil
}

// GetByID implements store.DebtStore.GetByID
// Returns store.ErrDebtNotFound if the relationship does not exist.
func (s *PostgresDebtStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.DebtRelationship, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + debtColumns + ` FROM debts WHERE id = $1`

	debt, err := scanDebt(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("debt relationship not found", slog.String("debt_id", id.String()))
			return nil, store.ErrDebtNotFound
		}
		log.Error("failed to get debt relationship",
			slog.String("error", err.Error()),
			slog.String("debt_id", id.String()))
		return nil, err
	}
	return debt, nil
}

// Update implements store.DebtStore.Update
// Returns store.ErrDebtNotFound if the relationship does not exist.
func (s *PostgresDebtStore) Update(ctx context.Context, debt *domain.DebtRelationship) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE debts
		SET remaining = $2, status = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, debt.ID, debt.Remaining, debt.Status, debt.UpdatedAt)
	if err != nil {
		log.Error("failed to update debt relationship",
			slog.String("error", err.Error()),
			slog.String("debt_id", debt.ID.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "debt relationship"); err != nil {
		return store.ErrDebtNotFound
	}

	log.Debug("debt relationship updated",
		slog.String("debt_id", debt.ID.String()),
		slog.Float64("remaining", debt.Remaining),
		slog.String("status", string(debt.Status)))
	return nil
}

// Transfer implements store.DebtStore.Transfer
// Both writes go through the same DBTX; run it under a transaction via
// store.RunInTransaction so the debt is never active in two places.
func (s *PostgresDebtStore) Transfer(ctx context.Context, original, successor *domain.DebtRelationship) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE debts
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`, original.ID, domain.DebtTransferred, original.UpdatedAt, domain.DebtActive)
	if err != nil {
		log.Error("failed to mark debt transferred",
			slog.String("error", err.Error()),
			slog.String("debt_id", original.ID.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "debt relationship"); err != nil {
		return store.ErrDebtNotFound
	}

	if err := s.insert(ctx, successor); err != nil {
		log.Error("failed to create successor debt",
			slog.String("error", err.Error()),
			slog.String("debt_id", successor.ID.String()))
		return err
	}

	log.Info("debt relationship transferred",
		slog.String("original_id", original.ID.String()),
		slog.String("successor_id", successor.ID.String()),
		slog.String("new_debtor_id", successor.DebtorID.String()))
	return nil
}

// ListByDebtor implements store.DebtStore.ListByDebtor
func (s *PostgresDebtStore) ListByDebtor(
	ctx context.Context,
	debtorID uuid.UUID,
	status *domain.DebtStatus,
) ([]*domain.DebtRelationship, error) {
	return s.list(ctx, "debtor_id", debtorID, status)
}

// ListByReceiver implements store.DebtStore.ListByReceiver
func (s *PostgresDebtStore) ListByReceiver(
	ctx context.Context,
	receiverID uuid.UUID,
	status *domain.DebtStatus,
) ([]*domain.DebtRelationship, error) {
	return s.list(ctx, "receiver_id", receiverID, status)
}

func (s *PostgresDebtStore) list(
	ctx context.Context,
	column string,
	actorID uuid.UUID,
	status *domain.DebtStatus,
) ([]*domain.DebtRelationship, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + debtColumns + ` FROM debts WHERE ` + column + ` = $1`
	args := []any{actorID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query debt relationships",
			slog.String("error", err.Error()),
			slog.String("actor_id", actorID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	debts := []*domain.DebtRelationship{}
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			log.Error("failed to scan debt row", slog.String("error", err.Error()))
			return nil, err
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return debts, nil
}

func (s *PostgresDebtStore) insert(ctx context.Context, debt *domain.DebtRelationship) error {
	query := `
		INSERT INTO debts (` + debtColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		debt.ID,
		debt.DebtorID,
		debt.ReceiverID,
		debt.Action,
		debt.Severity,
		debt.Principal,
		debt.Remaining,
		debt.Status,
		debt.Description,
		debt.TransferredFrom,
		debt.CreatedAt,
		debt.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: debtor or receiver not found", store.ErrInvalidEntity)
		}
		return MapError(err)
	}
	return nil
}

func scanDebt(row rowScanner) (*domain.DebtRelationship, error) {
	var (
		debt                     domain.DebtRelationship
		action, severity, status string
		transferredFrom          uuid.NullUUID
	)
	err := row.Scan(
		&debt.ID,
		&debt.DebtorID,
		&debt.ReceiverID,
		&action,
		&severity,
		&debt.Principal,
		&debt.Remaining,
		&status,
		&debt.Description,
		&transferredFrom,
		&debt.CreatedAt,
		&debt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	debt.Action = domain.Action(action)
	debt.Severity = domain.Severity(severity)
	debt.Status = domain.DebtStatus(status)
	if transferredFrom.Valid {
		id := transferredFrom.UUID
		debt.TransferredFrom = &id
	}
	return &debt, nil
}
