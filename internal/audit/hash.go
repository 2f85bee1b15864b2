// Package audit implements the tamper-evident audit trail: hash-chained
// entries and daily Merkle-rooted snapshots. Hashing is sha256 over a
// canonically serialized (key-sorted JSON) form of the record with its own
// hash field excluded, so any field mutation invalidates verification.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashField is the key stripped from a record before hashing.
const hashField = "hash"

// canonicalHash computes the sha256 hex digest of the record's canonical
// JSON form with the top-level hash field removed. encoding/json emits map
// keys in sorted order at every nesting level, which makes the
// serialization canonical.
func canonicalHash(record any) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to serialize record for hashing: %w", err)
	}

	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return "", fmt.Errorf("failed to normalize record for hashing: %w", err)
	}
	delete(asMap, hashField)

	canonical, err := json.Marshal(asMap)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize record: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// hashPair combines two hex digests into their parent node digest.
func hashPair(left, right string) string {
	sum := sha256.Sum256([]byte(left + right))
	return hex.EncodeToString(sum[:])
}
