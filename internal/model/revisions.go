package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrRevisionOutOfOrder indicates an insertion at or before the newest entry.
	ErrRevisionOutOfOrder = errors.New("model: revision timestamp not after newest entry")
	// ErrEmptyRevisionRef indicates an insertion with no commit log reference.
	ErrEmptyRevisionRef = errors.New("model: empty commit log reference")
)

// RevisionEntry maps one instant to the commit log record that became the
// resource's latest revision at that instant. The reference is opaque here;
// the history package resolves it.
type RevisionEntry struct {
	TimestampMillis int64  `json:"t"`
	CommitLogRef    string `json:"ref"`
}

// Time returns the entry's instant in UTC.
func (e RevisionEntry) Time() time.Time {
	return time.UnixMilli(e.TimestampMillis).UTC()
}

// RevisionIndex is the pruned history of commit log references attached to a
// resource, ordered by strictly increasing timestamp. A floor lookup for any
// instant inside the retention window resolves the record that was current
// at that instant. Persists as a JSON text column.
//
// An index must never be absent on a stored resource; callers initialize it
// to empty at creation time so insertion has prior state to prune against.
type RevisionIndex []RevisionEntry

// NewRevisionIndex returns an empty, non-nil index.
func NewRevisionIndex() RevisionIndex {
	return RevisionIndex{}
}

// Len returns the number of entries.
func (idx RevisionIndex) Len() int {
	return len(idx)
}

// Newest returns the latest entry, or false when the index is empty.
func (idx RevisionIndex) Newest() (RevisionEntry, bool) {
	if len(idx) == 0 {
		return RevisionEntry{}, false
	}
	return idx[len(idx)-1], true
}

// Floor returns the latest entry whose timestamp is at or before t. The
// oldest entry is a collapsed stand-in for every pruned revision before it,
// so lookups predating it resolve to it. Returns false only on an empty
// index.
func (idx RevisionIndex) Floor(t time.Time) (RevisionEntry, bool) {
	if len(idx) == 0 {
		return RevisionEntry{}, false
	}
	millis := t.UnixMilli()
	// First entry strictly after t; its predecessor is the floor.
	pos := sort.Search(len(idx), func(i int) bool {
		return idx[i].TimestampMillis > millis
	})
	if pos == 0 {
		return idx[0], true
	}
	return idx[pos-1], true
}

// Insert returns a copy of the index with a new newest entry appended.
// Timestamps must be strictly increasing.
func (idx RevisionIndex) Insert(t time.Time, commitLogRef string) (RevisionIndex, error) {
	if commitLogRef == "" {
		return nil, ErrEmptyRevisionRef
	}
	millis := t.UnixMilli()
	if newest, ok := idx.Newest(); ok && millis <= newest.TimestampMillis {
		return nil, fmt.Errorf("%w: %s <= %s", ErrRevisionOutOfOrder, t.UTC(), newest.Time())
	}
	updated := make(RevisionIndex, len(idx), len(idx)+1)
	copy(updated, idx)
	return append(updated, RevisionEntry{TimestampMillis: millis, CommitLogRef: commitLogRef}), nil
}

// Value implements driver.Valuer.
func (idx RevisionIndex) Value() (driver.Value, error) {
	if idx == nil {
		idx = RevisionIndex{}
	}
	encoded, err := json.Marshal(idx)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

// Scan implements sql.Scanner.
func (idx *RevisionIndex) Scan(src any) error {
	raw, err := jsonColumnBytes(src)
	if err != nil {
		return fmt.Errorf("model: scanning revision index: %w", err)
	}
	if len(raw) == 0 {
		*idx = RevisionIndex{}
		return nil
	}
	var entries []RevisionEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("model: scanning revision index: %w", err)
	}
	*idx = entries
	return nil
}
