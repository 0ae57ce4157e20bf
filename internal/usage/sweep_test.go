package usage

import (
	"context"
	"testing"
	"time"
)

func TestSweepDeletesStaleRateBuckets(t *testing.T) {
	s := newTestStore(t, staticLimits{def: 60})
	clock := fixClock(s, time.Date(2026, 3, 14, 9, 26, 30, 0, time.UTC))
	ctx := context.Background()

	if err := s.IncrementRateLimit(ctx, "openai"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	// Advance past the retention window and sweep
	*clock = clock.Add(2 * time.Hour)
	s.sweep()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM rate_limits`).Scan(&n); err != nil {
		t.Fatalf("count rate rows: %v", err)
	}
	if n != 0 {
		t.Errorf("rate_limits rows = %d, want 0 after sweep", n)
	}
}

func TestSweepKeepsCurrentBucket(t *testing.T) {
	s := newTestStore(t, staticLimits{def: 60})
	fixClock(s, time.Date(2026, 3, 14, 9, 26, 30, 0, time.UTC))
	ctx := context.Background()

	if err := s.IncrementRateLimit(ctx, "openai"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	s.sweep()

	status, err := s.CheckRateLimit(ctx, "openai")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if status.CurrentCount != 1 {
		t.Errorf("currentCount = %d, want 1 (current bucket must survive)", status.CurrentCount)
	}
}

func TestSweepDeletesExpiredEvents(t *testing.T) {
	s := newTestStore(t, staticLimits{def: 60})
	s.cfg.RetentionDays = 30
	clock := fixClock(s, time.Date(2026, 3, 14, 9, 26, 30, 0, time.UTC))
	ctx := context.Background()

	if _, err := s.RecordCall(ctx, CallParams{Provider: "openai", Success: true}); err != nil {
		t.Fatalf("record: %v", err)
	}

	*clock = clock.AddDate(0, 0, 31)
	if _, err := s.RecordCall(ctx, CallParams{Provider: "openai", Success: true}); err != nil {
		t.Fatalf("record recent: %v", err)
	}

	s.sweep()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM api_calls`).Scan(&n); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if n != 1 {
		t.Errorf("api_calls rows = %d, want 1 after sweep", n)
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	s := newTestStore(t, nil)

	// Re-running the schema against the same database must be safe.
	s2, err := NewStore(s.db, staticLimits{def: 60}, Config{SweepInterval: -1})
	if err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	defer s2.Close()

	if _, err := s2.RecordCall(context.Background(), CallParams{Provider: "openai", Success: true}); err != nil {
		t.Errorf("record after re-bootstrap: %v", err)
	}
}
