package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/store"
)

// PostgresTransactionStore implements the store.TransactionStore interface
// using a PostgreSQL database as the storage backend. The transactions
// table is append-only.
type PostgresTransactionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTransactionStore creates a new PostgreSQL implementation of the TransactionStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTransactionStore(db store.DBTX, logger *slog.Logger) *PostgresTransactionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTransactionStore{
		db:     db,
		logger: logger.With(slog.String("component", "transaction_store")),
	}
}

// Ensure PostgresTransactionStore implements store.TransactionStore interface
var _ store.TransactionStore = (*PostgresTransactionStore)(nil)

// Create implements store.TransactionStore.Create
func (s *PostgresTransactionStore) Create(ctx context.Context, txn *domain.Transaction) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO transactions (
			id, actor_id, action, token, amount, intent, tier, punishment, note, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		txn.ID,
		txn.ActorID,
		txn.Action,
		txn.Token,
		txn.Amount,
		txn.Intent,
		string(txn.Tier),
		txn.Punishment,
		txn.Note,
		txn.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create transaction",
			slog.String("error", err.Error()),
			slog.String("transaction_id", txn.ID.String()),
			slog.String("actor_id", txn.ActorID.String()))
		return MapError(err)
	}

	log.Debug("transaction recorded",
		slog.String("transaction_id", txn.ID.String()),
		slog.String("actor_id", txn.ActorID.String()),
		slog.String("action", string(txn.Action)),
		slog.Float64("amount", txn.Amount))
	return nil
}

// ListByActor implements store.TransactionStore.ListByActor
func (s *PostgresTransactionStore) ListByActor(
	ctx context.Context,
	actorID uuid.UUID,
	limit int,
) ([]*domain.Transaction, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, actor_id, action, token, amount, intent, tier, punishment, note, created_at
		FROM transactions
		WHERE actor_id = $1
		ORDER BY created_at DESC
	`
	args := []any{actorID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query transactions",
			slog.String("error", err.Error()),
			slog.String("actor_id", actorID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	var txns []*domain.Transaction
	for rows.Next() {
		var (
			txn            domain.Transaction
			action, intent string
			tier           string
		)
		err := rows.Scan(
			&txn.ID,
			&txn.ActorID,
			&action,
			&txn.Token,
			&txn.Amount,
			&intent,
			&tier,
			&txn.Punishment,
			&txn.Note,
			&txn.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan transaction row",
				slog.String("error", err.Error()))
			return nil, err
		}
		txn.Action = domain.Action(action)
		txn.Intent = domain.IntentClass(intent)
		txn.Tier = domain.Severity(tier)
		txns = append(txns, &txn)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	if txns == nil {
		txns = []*domain.Transaction{}
	}
	return txns, nil
}

// CountSince implements store.TransactionStore.CountSince
func (s *PostgresTransactionStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM transactions WHERE created_at >= $1`, since,
	).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}
