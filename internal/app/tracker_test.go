package app

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/dropship/internal/domain"
)

func TestOutcomeTracker_OrdersByChunk(t *testing.T) {
	tr := NewOutcomeTracker()
	addrs := testAddrs(3)
	now := time.Now()

	var wg sync.WaitGroup
	for i := 2; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chunk := domain.Chunk{Index: i, Recipients: addrs[i : i+1]}
			if err := tr.Record(domain.Succeeded(chunk, domain.Ticket{}, now)); err != nil {
				t.Errorf("Record(%d): %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	recs := tr.Records()
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	for i, r := range recs {
		if r.ChunkIndex != i {
			t.Errorf("Records()[%d].ChunkIndex = %d", i, r.ChunkIndex)
		}
	}
	s := tr.Summary()
	if len(s.Succeeded) != 3 || s.Succeeded[0] != addrs[0] || s.Succeeded[2] != addrs[2] {
		t.Errorf("Summary().Succeeded = %v", s.Succeeded)
	}
}

func TestOutcomeTracker_RejectsDuplicate(t *testing.T) {
	tr := NewOutcomeTracker()
	chunk := domain.Chunk{Index: 0, Recipients: testAddrs(1)}

	if err := tr.Record(domain.Skipped(chunk, domain.SkipDeadlineExceeded, time.Now())); err != nil {
		t.Fatalf("first Record: %v", err)
	}
	if err := tr.Record(domain.Succeeded(chunk, domain.Ticket{}, time.Now())); err == nil {
		t.Error("second Record for the same chunk should fail")
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tr.Len())
	}
	if tr.Records()[0].Status != domain.StatusSkipped {
		t.Error("first record was overwritten")
	}
}

func TestOutcomeTracker_Sealed(t *testing.T) {
	tr := NewOutcomeTracker()
	tr.Seal()

	err := tr.Record(domain.Skipped(domain.Chunk{Index: 0}, domain.SkipCanceled, time.Now()))
	if !errors.Is(err, domain.ErrTrackerSealed) {
		t.Errorf("Record after Seal error = %v, want ErrTrackerSealed", err)
	}
}
