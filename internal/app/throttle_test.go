package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestThrottle_FirstWaitIsImmediate(t *testing.T) {
	th := NewThrottle(time.Hour)
	start := time.Now()
	if err := th.Wait(context.Background(), start.Add(time.Minute)); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("first Wait should not block")
	}
}

func TestThrottle_EnforcesGap(t *testing.T) {
	gap := 30 * time.Millisecond
	th := NewThrottle(gap)
	deadline := time.Now().Add(time.Minute)

	var marks []time.Time
	for i := 0; i < 4; i++ {
		if err := th.Wait(context.Background(), deadline); err != nil {
			t.Fatalf("Wait: %v", err)
		}
		marks = append(marks, th.Mark())
	}
	for i := 1; i < len(marks); i++ {
		if d := marks[i].Sub(marks[i-1]); d < gap {
			t.Errorf("gap %d = %v, want >= %v", i, d, gap)
		}
	}
}

func TestThrottle_DeadlineBeforeSlot(t *testing.T) {
	th := NewThrottle(time.Second)
	th.Mark()

	err := th.Wait(context.Background(), time.Now().Add(10*time.Millisecond))
	if !errors.Is(err, errDeadline) {
		t.Errorf("Wait() error = %v, want errDeadline", err)
	}
}

func TestThrottle_Canceled(t *testing.T) {
	th := NewThrottle(time.Second)
	th.Mark()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := th.Wait(ctx, time.Now().Add(time.Minute))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}
