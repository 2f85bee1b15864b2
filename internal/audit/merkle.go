package audit

import (
	"sort"
	"time"
)

// Snapshot packages one day's entries under a Merkle root. Like entries,
// snapshots are append-only and never mutated once written.
type Snapshot struct {
	// Date is the UTC day the snapshot covers, in YYYY-MM-DD form.
	Date string `json:"date"`

	// MerkleRoot is the root over the day's entry hashes.
	MerkleRoot string `json:"merkle_root"`

	// EntryHashes preserves the leaves in timestamp order so the root can
	// be recomputed independently.
	EntryHashes []string `json:"entry_hashes"`

	// EntryCount is the number of entries covered.
	EntryCount int `json:"entry_count"`

	// FirstIndex and LastIndex bound the chain segment covered.
	FirstIndex int64 `json:"first_index"`
	LastIndex  int64 `json:"last_index"`

	CreatedAt time.Time `json:"created_at"`

	// Hash is the digest over the whole snapshot, excluding this field.
	Hash string `json:"hash"`
}

// merkleRoot folds the leaf digests pairwise up to a single root,
// duplicating the last element at each level with an odd count. An empty
// leaf set yields the genesis hash.
func merkleRoot(leaves []string) string {
	if len(leaves) == 0 {
		return GenesisHash
	}

	level := append([]string(nil), leaves...)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, hashPair(level[i], level[i+1]))
		}
		level = next
	}
	return level[0]
}

// BuildDailySnapshot collects the day's entries in timestamp order,
// computes their Merkle root, and hashes the resulting package. The input
// slice is not modified.
func BuildDailySnapshot(date time.Time, entries []*Entry, now time.Time) (*Snapshot, error) {
	ordered := append([]*Entry(nil), entries...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	leaves := make([]string, len(ordered))
	var firstIndex, lastIndex int64
	for i, entry := range ordered {
		leaves[i] = entry.Hash
		if i == 0 {
			firstIndex = entry.Index
		}
		lastIndex = entry.Index
	}

	snapshot := &Snapshot{
		Date:        date.UTC().Format("2006-01-02"),
		MerkleRoot:  merkleRoot(leaves),
		EntryHashes: leaves,
		EntryCount:  len(leaves),
		FirstIndex:  firstIndex,
		LastIndex:   lastIndex,
		CreatedAt:   now.UTC(),
	}

	hash, err := canonicalHash(snapshot)
	if err != nil {
		return nil, err
	}
	snapshot.Hash = hash
	return snapshot, nil
}

// VerifySnapshot recomputes both the package hash and the Merkle root from
// the stored leaves and compares them against the stored values.
func VerifySnapshot(snapshot *Snapshot) (bool, error) {
	recomputed, err := canonicalHash(snapshot)
	if err != nil {
		return false, err
	}
	if recomputed != snapshot.Hash {
		return false, nil
	}
	return merkleRoot(snapshot.EntryHashes) == snapshot.MerkleRoot, nil
}
