package task

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedhika/samsara-api/internal/audit"
)

// mockSnapshotBuilder is a test implementation of the SnapshotBuilder interface
type mockSnapshotBuilder struct {
	buildFn   func(ctx context.Context, day time.Time) (*audit.Snapshot, error)
	buildDays []time.Time
}

func (m *mockSnapshotBuilder) BuildSnapshot(ctx context.Context, day time.Time) (*audit.Snapshot, error) {
	m.buildDays = append(m.buildDays, day)
	return m.buildFn(ctx, day)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewAuditSnapshotTask(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	builder := &mockSnapshotBuilder{}

	tests := []struct {
		name        string
		day         time.Time
		builder     SnapshotBuilder
		logger      *slog.Logger
		expectedErr error
	}{
		{
			name:    "valid task",
			day:     day,
			builder: builder,
			logger:  discardLogger(),
		},
		{
			name:        "nil builder",
			day:         day,
			builder:     nil,
			logger:      discardLogger(),
			expectedErr: ErrNilSnapshotBuilder,
		},
		{
			name:        "nil logger",
			day:         day,
			builder:     builder,
			logger:      nil,
			expectedErr: ErrNilLogger,
		},
		{
			name:        "zero day",
			day:         time.Time{},
			builder:     builder,
			logger:      discardLogger(),
			expectedErr: ErrZeroDay,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task, err := NewAuditSnapshotTask(tc.day, tc.builder, tc.logger)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, task)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, TaskTypeAuditSnapshot, task.Type())
			assert.Equal(t, TaskStatusPending, task.Status())
			assert.NotEqual(t, task.ID().String(), "00000000-0000-0000-0000-000000000000")
		})
	}
}

func TestAuditSnapshotTaskPayload(t *testing.T) {
	day := time.Date(2026, 8, 30, 14, 45, 0, 0, time.UTC)
	builder := &mockSnapshotBuilder{}

	task, err := NewAuditSnapshotTask(day, builder, discardLogger())
	require.NoError(t, err)

	var payload struct {
		Date string `json:"date"`
	}
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))

	// Intra-day timestamps truncate to the day boundary.
	assert.Equal(t, "2026-08-30", payload.Date)
	assert.Equal(t, day.Truncate(24*time.Hour), task.Day())
}

func TestAuditSnapshotTaskExecute(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		builder := &mockSnapshotBuilder{
			buildFn: func(ctx context.Context, d time.Time) (*audit.Snapshot, error) {
				return &audit.Snapshot{
					Date:        d.Format("2006-01-02"),
					MerkleRoot:  "abc123",
					EntryHashes: []string{"h1", "h2"},
				}, nil
			},
		}
		task, err := NewAuditSnapshotTask(day, builder, discardLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, TaskStatusCompleted, task.Status())
		require.Len(t, builder.buildDays, 1)
		assert.Equal(t, day, builder.buildDays[0])
	})

	t.Run("builder failure", func(t *testing.T) {
		buildErr := errors.New("store unavailable")
		builder := &mockSnapshotBuilder{
			buildFn: func(ctx context.Context, d time.Time) (*audit.Snapshot, error) {
				return nil, buildErr
			},
		}
		task, err := NewAuditSnapshotTask(day, builder, discardLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())
		assert.ErrorIs(t, err, buildErr)
		assert.Equal(t, TaskStatusFailed, task.Status())
	})
}
