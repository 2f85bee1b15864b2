package store

import (
	"context"
	"time"
)

// QTable is the persisted form of the advisor's value table: a dense
// states x actions matrix of Q-values. It is replaced wholesale on every
// update (whole-document replace), which makes persistence the advisor's
// serialization point.
type QTable struct {
	States    int         `json:"states"`
	Actions   int         `json:"actions"`
	Values    [][]float64 `json:"values"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// QTableStore defines the interface for Q-table persistence.
type QTableStore interface {
	// Load retrieves the persisted table. Returns ErrNotFound when no
	// table has been saved yet; the advisor then starts from zeros.
	Load(ctx context.Context) (*QTable, error)

	// Replace upserts the whole table.
	Replace(ctx context.Context, table *QTable) error
}
