package shared

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	ctxWithTrace := SetTraceID(ctx)
	traceID := GetTraceID(ctxWithTrace)
	assert.Len(t, traceID, 32)

	// The parent context stays untouched.
	assert.Empty(t, GetTraceID(ctx))
}

func TestGetTraceIDWrongValueType(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx))
}

func TestGenerateTraceID(t *testing.T) {
	traceID := generateTraceID()
	require.Len(t, traceID, 32)

	_, err := hex.DecodeString(traceID)
	require.NoError(t, err)

	const iterations = 1000
	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := generateTraceID()
		require.Len(t, id, 32)
		require.False(t, seen[id], "trace IDs must not repeat")
		seen[id] = true
	}
}

func TestFallbackTraceID(t *testing.T) {
	const iterations = 50
	seen := make(map[string]bool, iterations)

	for i := 0; i < iterations; i++ {
		id := generateFallbackTraceID()
		require.Len(t, id, 32)
		_, err := hex.DecodeString(id)
		require.NoError(t, err)

		// The fallback leans on the clock, so give each iteration a
		// distinct timestamp.
		time.Sleep(time.Millisecond)

		require.False(t, seen[id], "fallback trace IDs must not repeat")
		seen[id] = true
	}
}
