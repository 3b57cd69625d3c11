package app

import (
	"fmt"
	"slices"
	"sync"

	"github.com/bft-labs/dropship/internal/domain"
)

// OutcomeTracker collects one terminal record per chunk.
// Records are append-only and may arrive from concurrent confirmations.
type OutcomeTracker struct {
	mu      sync.Mutex
	records []domain.OutcomeRecord
	seen    map[int]struct{}
	sealed  bool
}

// NewOutcomeTracker creates an empty tracker.
func NewOutcomeTracker() *OutcomeTracker {
	return &OutcomeTracker{seen: make(map[int]struct{})}
}

// Record appends rec. A second record for the same chunk, or any record
// after Seal, is refused.
func (t *OutcomeTracker) Record(rec domain.OutcomeRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		return domain.ErrTrackerSealed
	}
	if _, dup := t.seen[rec.ChunkIndex]; dup {
		return fmt.Errorf("chunk %d already has a terminal record", rec.ChunkIndex)
	}
	t.seen[rec.ChunkIndex] = struct{}{}
	t.records = append(t.records, rec)
	return nil
}

// Seal stops further appends.
func (t *OutcomeTracker) Seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sealed = true
}

// Len returns the number of records so far.
func (t *OutcomeTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Records returns a copy of the records ordered by chunk index.
func (t *OutcomeTracker) Records() []domain.OutcomeRecord {
	t.mu.Lock()
	out := slices.Clone(t.records)
	t.mu.Unlock()
	slices.SortFunc(out, func(a, b domain.OutcomeRecord) int {
		return a.ChunkIndex - b.ChunkIndex
	})
	return out
}

// Summary partitions recipients of all records so far.
func (t *OutcomeTracker) Summary() domain.Summary {
	return domain.Summarize(t.Records())
}
