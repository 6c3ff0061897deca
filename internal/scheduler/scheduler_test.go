package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foodops/localfood/internal/adapter/logger"
)

func TestRunNow_RetriesUntilSuccess(t *testing.T) {
	s := New(logger.Noop(), time.Millisecond)

	var runs int32
	s.Register(Job{
		Name:     "flaky",
		Interval: time.Hour,
		Retries:  3,
		Run: func(ctx context.Context, now time.Time) error {
			if atomic.AddInt32(&runs, 1) < 3 {
				return errors.New("transient failure")
			}
			return nil
		},
	})

	if err := s.RunNow(context.Background(), "flaky"); err != nil {
		t.Fatalf("RunNow failed: %v", err)
	}
	if got := atomic.LoadInt32(&runs); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestRunNow_ExhaustsAttempts(t *testing.T) {
	s := New(logger.Noop(), time.Millisecond)

	var runs int32
	wantErr := errors.New("persistent failure")
	s.Register(Job{
		Name:     "broken",
		Interval: time.Hour,
		Retries:  2,
		Run: func(ctx context.Context, now time.Time) error {
			atomic.AddInt32(&runs, 1)
			return wantErr
		},
	})

	err := s.RunNow(context.Background(), "broken")
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected the job error, got %v", err)
	}
	if got := atomic.LoadInt32(&runs); got != 3 {
		t.Errorf("Expected 3 attempts (1 + 2 retries), got %d", got)
	}
}

func TestRunNow_FireAndForgetRunsOnce(t *testing.T) {
	s := New(logger.Noop(), time.Millisecond)

	var runs int32
	s.Register(Job{
		Name:     "cleanup",
		Interval: time.Hour,
		Run: func(ctx context.Context, now time.Time) error {
			atomic.AddInt32(&runs, 1)
			return errors.New("failed")
		},
	})

	if err := s.RunNow(context.Background(), "cleanup"); err == nil {
		t.Fatal("Expected an error from the failing job")
	}
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Errorf("Expected a single attempt, got %d", got)
	}
}

func TestRunNow_UnknownJob(t *testing.T) {
	s := New(logger.Noop(), time.Millisecond)

	if err := s.RunNow(context.Background(), "missing"); err == nil {
		t.Fatal("Expected an error for an unknown job")
	}
}

func TestRunNow_PassesPinnedClock(t *testing.T) {
	pinned := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := New(logger.Noop(), time.Millisecond).WithClock(func() time.Time { return pinned })

	var seen time.Time
	s.Register(Job{
		Name:     "clocked",
		Interval: time.Hour,
		Run: func(ctx context.Context, now time.Time) error {
			seen = now
			return nil
		},
	})

	if err := s.RunNow(context.Background(), "clocked"); err != nil {
		t.Fatalf("RunNow failed: %v", err)
	}
	if !seen.Equal(pinned) {
		t.Errorf("Expected the job to see %v, got %v", pinned, seen)
	}
}

func TestRunNow_CancelledContext(t *testing.T) {
	s := New(logger.Noop(), time.Minute)

	var runs int32
	s.Register(Job{
		Name:     "slow",
		Interval: time.Hour,
		Retries:  5,
		Run: func(ctx context.Context, now time.Time) error {
			atomic.AddInt32(&runs, 1)
			return errors.New("failed")
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RunNow(ctx, "slow") }()

	// Cancel while the scheduler waits out the retry delay.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunNow did not return after cancellation")
	}
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Errorf("Expected a single attempt before cancellation, got %d", got)
	}
}

func TestStart_TicksAndStops(t *testing.T) {
	s := New(logger.Noop(), time.Millisecond)

	var runs int32
	s.Register(Job{
		Name:     "ticker",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context, now time.Time) error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	time.Sleep(40 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancellation")
	}
	if atomic.LoadInt32(&runs) == 0 {
		t.Error("Expected at least one tick before cancellation")
	}
}
