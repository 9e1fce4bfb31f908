package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(RecomputeFunc(func(ctx context.Context) error { return nil }), nil, Specs{Recompute: "not a spec"}, time.UTC)
	if err := s.Start(); err == nil {
		t.Fatalf("expected invalid spec error")
	}
}

func TestScheduler_RunsRecompute(t *testing.T) {
	var calls int32
	engine := RecomputeFunc(func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("source down")
		}
		return nil
	})

	s := NewScheduler(engine, nil, Specs{Recompute: "@every 1s", HealthCheck: "@every 1s"}, time.UTC)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Fatalf("health check without checker should be skipped, got %d entries", n)
	}

	deadline := time.Now().Add(5 * time.Second)
	for atomic.LoadInt32(&calls) < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	s.Stop()

	if atomic.LoadInt32(&calls) < 2 {
		t.Fatalf("recompute should keep running after a failure, got %d calls", calls)
	}
}
