package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayEntries(t *testing.T, count int) []*Entry {
	t.Helper()
	entries := make([]*Entry, count)
	prev := GenesisHash
	for i := range entries {
		entries[i] = enhancedEntry(t, int64(i), prev, map[string]any{"n": float64(i)})
		prev = entries[i].Hash
	}
	return entries
}

func TestBuildDailySnapshot(t *testing.T) {
	t.Parallel()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	now := day.Add(25 * time.Hour)

	t.Run("even entry count", func(t *testing.T) {
		t.Parallel()
		entries := dayEntries(t, 4)
		snapshot, err := BuildDailySnapshot(day, entries, now)
		require.NoError(t, err)

		assert.Equal(t, "2025-06-01", snapshot.Date)
		assert.Equal(t, 4, snapshot.EntryCount)
		assert.Equal(t, int64(0), snapshot.FirstIndex)
		assert.Equal(t, int64(3), snapshot.LastIndex)

		// Recompute the root by hand: ((h0+h1)+(h2+h3)).
		left := hashPair(entries[0].Hash, entries[1].Hash)
		right := hashPair(entries[2].Hash, entries[3].Hash)
		assert.Equal(t, hashPair(left, right), snapshot.MerkleRoot)
	})

	t.Run("odd entry count duplicates the last leaf", func(t *testing.T) {
		t.Parallel()
		entries := dayEntries(t, 3)
		snapshot, err := BuildDailySnapshot(day, entries, now)
		require.NoError(t, err)

		left := hashPair(entries[0].Hash, entries[1].Hash)
		right := hashPair(entries[2].Hash, entries[2].Hash)
		assert.Equal(t, hashPair(left, right), snapshot.MerkleRoot)
	})

	t.Run("single entry is its own root", func(t *testing.T) {
		t.Parallel()
		entries := dayEntries(t, 1)
		snapshot, err := BuildDailySnapshot(day, entries, now)
		require.NoError(t, err)
		assert.Equal(t, entries[0].Hash, snapshot.MerkleRoot)
	})

	t.Run("empty day anchors to genesis", func(t *testing.T) {
		t.Parallel()
		snapshot, err := BuildDailySnapshot(day, nil, now)
		require.NoError(t, err)
		assert.Equal(t, GenesisHash, snapshot.MerkleRoot)
		assert.Equal(t, 0, snapshot.EntryCount)
	})

	t.Run("entries are ordered by timestamp", func(t *testing.T) {
		t.Parallel()
		entries := dayEntries(t, 3)
		shuffled := []*Entry{entries[2], entries[0], entries[1]}

		snapshot, err := BuildDailySnapshot(day, shuffled, now)
		require.NoError(t, err)

		ordered, err := BuildDailySnapshot(day, entries, now)
		require.NoError(t, err)
		assert.Equal(t, ordered.MerkleRoot, snapshot.MerkleRoot)
	})
}

func TestVerifySnapshot(t *testing.T) {
	t.Parallel()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	now := day.Add(25 * time.Hour)

	t.Run("untouched snapshot verifies", func(t *testing.T) {
		t.Parallel()
		snapshot, err := BuildDailySnapshot(day, dayEntries(t, 5), now)
		require.NoError(t, err)

		ok, err := VerifySnapshot(snapshot)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("mutated root fails", func(t *testing.T) {
		t.Parallel()
		snapshot, err := BuildDailySnapshot(day, dayEntries(t, 5), now)
		require.NoError(t, err)

		snapshot.MerkleRoot = GenesisHash
		ok, err := VerifySnapshot(snapshot)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("mutated leaf fails root recomputation", func(t *testing.T) {
		t.Parallel()
		snapshot, err := BuildDailySnapshot(day, dayEntries(t, 5), now)
		require.NoError(t, err)

		// Re-hash the package so only the root check can catch the swap.
		snapshot.EntryHashes[2] = snapshot.EntryHashes[3]
		snapshot.Hash = ""
		rehashed, hashErr := canonicalHash(snapshot)
		require.NoError(t, hashErr)
		snapshot.Hash = rehashed

		ok, err := VerifySnapshot(snapshot)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("mutated count fails package hash", func(t *testing.T) {
		t.Parallel()
		snapshot, err := BuildDailySnapshot(day, dayEntries(t, 5), now)
		require.NoError(t, err)

		snapshot.EntryCount = 99
		ok, err := VerifySnapshot(snapshot)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
