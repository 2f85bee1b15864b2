package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vedhika/samsara-api/internal/audit"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/store"
)

// PostgresAuditStore implements the store.AuditStore interface
// using a PostgreSQL database as the storage backend. Appends serialize on
// a transaction-scoped advisory lock so every entry gets a unique index
// and the correct previous hash.
type PostgresAuditStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresAuditStore creates a new PostgreSQL implementation of the AuditStore interface.
// It accepts a database connection that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAuditStore(db *sql.DB, logger *slog.Logger) *PostgresAuditStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAuditStore{
		db:     db,
		logger: logger.With(slog.String("component", "audit_store")),
	}
}

// Ensure PostgresAuditStore implements store.AuditStore interface
var _ store.AuditStore = (*PostgresAuditStore)(nil)

const auditColumns = `
	chain_index, event_type, actor_id, payload, ts, prev_hash, entry_hash, hash
`

// auditChainLockID keys the advisory lock that serializes chain appends.
const auditChainLockID = 4217021379

// Append implements store.AuditStore.Append
// An advisory xact lock is taken before the tip is read. Locking the tip
// row alone is not enough: a writer blocked on the old tip would still
// read a stale maximum from its snapshot after the lock holder commits,
// compute the same index, and collide on the primary key. The advisory
// lock keeps the read-compute-insert sequence exclusive and releases on
// commit or rollback.
func (s *PostgresAuditStore) Append(ctx context.Context, entry *audit.Entry) (*audit.Entry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			SELECT pg_advisory_xact_lock($1)
		`, auditChainLockID); err != nil {
			return MapError(err)
		}

		var (
			index    int64
			prevHash string
		)
		row := tx.QueryRowContext(ctx, `
			SELECT chain_index, hash FROM audit_entries
			ORDER BY chain_index DESC
			LIMIT 1
		`)
		switch err := row.Scan(&index, &prevHash); {
		case errors.Is(err, sql.ErrNoRows):
			index = 0
			prevHash = audit.GenesisHash
		case err != nil:
			return MapError(err)
		default:
			index++
		}

		if err := audit.Enhance(entry, index, prevHash, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to enhance audit entry: %w", err)
		}

		payload, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal audit payload: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO audit_entries (`+auditColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, entry.Index, entry.EventType, entry.ActorID, payload,
			entry.Timestamp, entry.PrevHash, entry.EntryHash, entry.Hash)
		return MapError(err)
	})
	if err != nil {
		log.Error("failed to append audit entry",
			slog.String("error", err.Error()),
			slog.String("event_type", entry.EventType))
		return nil, err
	}

	log.Debug("audit entry appended",
		slog.Int64("index", entry.Index),
		slog.String("event_type", entry.EventType))
	return entry, nil
}

// Latest implements store.AuditStore.Latest
// Returns store.ErrNotFound on an empty chain.
func (s *PostgresAuditStore) Latest(ctx context.Context) (*audit.Entry, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audit_entries
		ORDER BY chain_index DESC
		LIMIT 1
	`
	entry, err := scanAuditEntry(s.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// GetByIndex implements store.AuditStore.GetByIndex
// Returns store.ErrNotFound if no entry holds the index.
func (s *PostgresAuditStore) GetByIndex(ctx context.Context, index int64) (*audit.Entry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entries WHERE chain_index = $1`

	entry, err := scanAuditEntry(s.db.QueryRowContext(ctx, query, index))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// ListByDay implements store.AuditStore.ListByDay
func (s *PostgresAuditStore) ListByDay(ctx context.Context, day time.Time) ([]*audit.Entry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	start := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	query := `
		SELECT ` + auditColumns + `
		FROM audit_entries
		WHERE ts >= $1 AND ts < $2
		ORDER BY ts, chain_index
	`
	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		log.Error("failed to query audit entries by day",
			slog.String("error", err.Error()),
			slog.String("day", start.Format("2006-01-02")))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	entries := []*audit.Entry{}
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			log.Error("failed to scan audit row", slog.String("error", err.Error()))
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return entries, nil
}

// SaveSnapshot implements store.AuditStore.SaveSnapshot
// Returns store.ErrDuplicate if a snapshot for the date already exists.
func (s *PostgresAuditStore) SaveSnapshot(ctx context.Context, snapshot *audit.Snapshot) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	hashes, err := json.Marshal(snapshot.EntryHashes)
	if err != nil {
		return fmt.Errorf("failed to marshal entry hashes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_snapshots (
			date, merkle_root, entry_hashes, entry_count, first_index,
			last_index, created_at, hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, snapshot.Date, snapshot.MerkleRoot, hashes, snapshot.EntryCount,
		snapshot.FirstIndex, snapshot.LastIndex, snapshot.CreatedAt, snapshot.Hash)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("snapshot already exists", slog.String("date", snapshot.Date))
			return fmt.Errorf("%w: snapshot for %s", store.ErrDuplicate, snapshot.Date)
		}
		log.Error("failed to save snapshot",
			slog.String("error", err.Error()),
			slog.String("date", snapshot.Date))
		return MapError(err)
	}

	log.Info("daily snapshot saved",
		slog.String("date", snapshot.Date),
		slog.Int("entries", snapshot.EntryCount),
		slog.String("merkle_root", snapshot.MerkleRoot))
	return nil
}

// GetSnapshot implements store.AuditStore.GetSnapshot
// Returns store.ErrSnapshotNotFound if no snapshot exists for the date.
func (s *PostgresAuditStore) GetSnapshot(ctx context.Context, date string) (*audit.Snapshot, error) {
	var (
		snapshot audit.Snapshot
		hashes   []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT date, merkle_root, entry_hashes, entry_count, first_index,
		       last_index, created_at, hash
		FROM audit_snapshots
		WHERE date = $1
	`, date).Scan(
		&snapshot.Date,
		&snapshot.MerkleRoot,
		&hashes,
		&snapshot.EntryCount,
		&snapshot.FirstIndex,
		&snapshot.LastIndex,
		&snapshot.CreatedAt,
		&snapshot.Hash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSnapshotNotFound
		}
		return nil, MapError(err)
	}

	if err := json.Unmarshal(hashes, &snapshot.EntryHashes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry hashes: %w", err)
	}
	return &snapshot, nil
}

func scanAuditEntry(row rowScanner) (*audit.Entry, error) {
	var (
		entry   audit.Entry
		payload []byte
	)
	err := row.Scan(
		&entry.Index,
		&entry.EventType,
		&entry.ActorID,
		&payload,
		&entry.Timestamp,
		&entry.PrevHash,
		&entry.EntryHash,
		&entry.Hash,
	)
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &entry.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit payload: %w", err)
		}
	}
	return &entry, nil
}
