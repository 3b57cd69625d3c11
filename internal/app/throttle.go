package app

import (
	"context"
	"errors"
	"sync"
	"time"
)

// errDeadline is returned by Throttle.Wait when the next slot would open
// after the run deadline.
var errDeadline = errors.New("deadline reached while throttled")

// Throttle enforces a minimum gap between consecutive issuances.
type Throttle struct {
	gap time.Duration
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewThrottle creates a throttle with the given minimum gap.
func NewThrottle(gap time.Duration) *Throttle {
	return &Throttle{gap: gap, now: time.Now}
}

// Wait blocks until at least the minimum gap has passed since the last Mark.
// It returns ctx.Err() if ctx ends first, or errDeadline if the gap would
// only be satisfied after deadline.
func (t *Throttle) Wait(ctx context.Context, deadline time.Time) error {
	for {
		t.mu.Lock()
		last := t.last
		t.mu.Unlock()

		now := t.now()
		if last.IsZero() || now.Sub(last) >= t.gap {
			return nil
		}
		ready := last.Add(t.gap)
		if !ready.Before(deadline) {
			return errDeadline
		}

		timer := time.NewTimer(ready.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Mark records an issuance at the current time and returns it.
func (t *Throttle) Mark() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = t.now()
	return t.last
}
