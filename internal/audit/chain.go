package audit

import (
	"time"
)

// GenesisHash anchors the first entry of the chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Entry is one link in the hash chain. Index, PrevHash, Timestamp and
// EntryHash are attached by Enhance; Hash covers the fully enhanced entry.
// Entries are append-only and never mutated once written.
type Entry struct {
	// Index is the entry's position in the chain, assigned at append time.
	Index int64 `json:"index"`

	// EventType names the mutation being audited.
	EventType string `json:"event_type"`

	// ActorID identifies the subject actor, when there is one.
	ActorID string `json:"actor_id,omitempty"`

	// Payload carries the event detail. Structs must be flattened into the
	// map before enhancement so hashing sees plain JSON values.
	Payload map[string]any `json:"payload,omitempty"`

	// Timestamp is when the entry was enhanced into the chain.
	Timestamp time.Time `json:"timestamp"`

	// PrevHash links to the previous entry's Hash, forming the chain.
	PrevHash string `json:"prev_hash"`

	// EntryHash covers the event content alone (type, actor, payload),
	// before the chain fields were attached.
	EntryHash string `json:"entry_hash"`

	// Hash is the top-level digest over the whole enhanced entry,
	// excluding this field itself.
	Hash string `json:"hash"`
}

// NewEntry builds an un-enhanced entry carrying only event content.
func NewEntry(eventType, actorID string, payload map[string]any) *Entry {
	return &Entry{
		EventType: eventType,
		ActorID:   actorID,
		Payload:   payload,
	}
}

// Enhance attaches the chain fields to the entry and computes both digests:
// EntryHash over the bare event content, then Hash over the enhanced entry.
// The entry is immutable after this.
func Enhance(entry *Entry, index int64, prevHash string, now time.Time) error {
	content := &Entry{
		EventType: entry.EventType,
		ActorID:   entry.ActorID,
		Payload:   entry.Payload,
	}
	entryHash, err := canonicalHash(content)
	if err != nil {
		return err
	}

	entry.Index = index
	entry.PrevHash = prevHash
	entry.Timestamp = now.UTC()
	entry.EntryHash = entryHash
	entry.Hash = ""

	topHash, err := canonicalHash(entry)
	if err != nil {
		return err
	}
	entry.Hash = topHash
	return nil
}

// VerifyEntry strips the stored hash, recomputes it over the entry's
// content, and compares. Any field mutation flips the result to false.
// Verification failures are reported, never repaired.
func VerifyEntry(entry *Entry) (bool, error) {
	recomputed, err := canonicalHash(entry)
	if err != nil {
		return false, err
	}
	return recomputed == entry.Hash, nil
}

// VerifyChain walks entries in order and confirms each entry verifies on
// its own and links to its predecessor. The first entry must link to
// GenesisHash when startHash is empty.
func VerifyChain(entries []*Entry, startHash string) (bool, error) {
	if startHash == "" {
		startHash = GenesisHash
	}

	prev := startHash
	for _, entry := range entries {
		ok, err := VerifyEntry(entry)
		if err != nil || !ok {
			return false, err
		}
		if entry.PrevHash != prev {
			return false, nil
		}
		prev = entry.Hash
	}
	return true, nil
}
