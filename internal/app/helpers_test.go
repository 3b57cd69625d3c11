package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}
func (m mockLogger) With(fields ...ports.Field) ports.Logger {
	return m
}

// testAddrs returns n distinct addresses.
func testAddrs(n int) []domain.Address {
	out := make([]domain.Address, n)
	for i := range out {
		out[i][0] = byte(i)
		out[i][1] = byte(i >> 8)
		out[i][31] = 1
	}
	return out
}

// fakeLedger is an in-memory ports.Ledger.
type fakeLedger struct {
	mu sync.Mutex

	fetchErr    error
	submitErr   func(op *domain.Operation) error
	confirmErr  func(t domain.Ticket) error
	confirmWait time.Duration

	fetches   int
	submitted []*domain.Operation

	inFlight    int
	maxInFlight int
}

func (f *fakeLedger) FetchWindow(ctx context.Context) (domain.FreshnessWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return domain.FreshnessWindow{}, &domain.WindowFetchError{Err: f.fetchErr}
	}
	f.fetches++
	return domain.FreshnessWindow{
		Reference:    fmt.Sprintf("ref-%d", f.fetches),
		ExpiryHeight: 100,
		FetchedAt:    time.Now(),
	}, nil
}

func (f *fakeLedger) Submit(ctx context.Context, op *domain.Operation) (domain.Ticket, error) {
	f.mu.Lock()
	f.submitted = append(f.submitted, op)
	hook := f.submitErr
	f.mu.Unlock()

	if hook != nil {
		if err := hook(op); err != nil {
			return domain.Ticket{}, err
		}
	}
	return domain.Ticket{Signature: fmt.Sprintf("sig-%d", op.Chunk.Index)}, nil
}

func (f *fakeLedger) AwaitConfirmation(ctx context.Context, t domain.Ticket) error {
	f.mu.Lock()
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.confirmWait > 0 {
		select {
		case <-time.After(f.confirmWait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.confirmErr != nil {
		return f.confirmErr(t)
	}
	return nil
}

func (f *fakeLedger) Submitted() []*domain.Operation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.Operation(nil), f.submitted...)
}

// fakeJournal records journal calls in memory.
type fakeJournal struct {
	mu       sync.Mutex
	begun    []domain.RunInfo
	appended []domain.OutcomeRecord
	finished []string
}

func (j *fakeJournal) BeginRun(ctx context.Context, run domain.RunInfo) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.begun = append(j.begun, run)
	return nil
}

func (j *fakeJournal) Append(ctx context.Context, runID string, rec domain.OutcomeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.appended = append(j.appended, rec)
	return nil
}

func (j *fakeJournal) FinishRun(ctx context.Context, runID, endState string, summary domain.Summary) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.finished = append(j.finished, endState)
	return nil
}

func (j *fakeJournal) Close() error { return nil }

// runEvents captures RunEventEmitter callbacks.
type runEvents struct {
	mu       sync.Mutex
	issued   []int
	recorded []int
	onIssue  func(chunk domain.Chunk)
}

func (e *runEvents) OnChunkIssued(chunk domain.Chunk, ticket domain.Ticket) {
	e.mu.Lock()
	e.issued = append(e.issued, chunk.Index)
	hook := e.onIssue
	e.mu.Unlock()
	if hook != nil {
		hook(chunk)
	}
}

func (e *runEvents) OnChunkRecorded(rec domain.OutcomeRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorded = append(e.recorded, rec.ChunkIndex)
}
