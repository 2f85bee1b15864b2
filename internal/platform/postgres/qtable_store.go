package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/store"
)

// qtableRowID pins the advisor's value table to a single row; the table
// is always replaced wholesale.
const qtableRowID = 1

// PostgresQTableStore implements the store.QTableStore interface
// using a PostgreSQL database as the storage backend. The whole value
// matrix lives in one JSONB column.
type PostgresQTableStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQTableStore creates a new PostgreSQL implementation of the QTableStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresQTableStore(db store.DBTX, logger *slog.Logger) *PostgresQTableStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQTableStore{
		db:     db,
		logger: logger.With(slog.String("component", "qtable_store")),
	}
}

// Ensure PostgresQTableStore implements store.QTableStore interface
var _ store.QTableStore = (*PostgresQTableStore)(nil)

// Load implements store.QTableStore.Load
// Returns store.ErrNotFound when no table has been persisted yet.
func (s *PostgresQTableStore) Load(ctx context.Context) (*store.QTable, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		table  store.QTable
		values []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT states, actions, q_values, updated_at FROM qtable WHERE id = $1
	`, qtableRowID).Scan(&table.States, &table.Actions, &values, &table.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no persisted q-table")
			return nil, store.ErrNotFound
		}
		log.Error("failed to load q-table", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if err := json.Unmarshal(values, &table.Values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal q-table values: %w", err)
	}
	return &table, nil
}

// Replace implements store.QTableStore.Replace
func (s *PostgresQTableStore) Replace(ctx context.Context, table *store.QTable) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	values, err := json.Marshal(table.Values)
	if err != nil {
		return fmt.Errorf("failed to marshal q-table values: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO qtable (id, states, actions, q_values, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET states = $2, actions = $3, q_values = $4, updated_at = $5
	`, qtableRowID, table.States, table.Actions, values, table.UpdatedAt)
	if err != nil {
		log.Error("failed to replace q-table", slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Debug("q-table replaced",
		slog.Int("states", table.States),
		slog.Int("actions", table.Actions))
	return nil
}
