package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewBulkhead_Defaults(t *testing.T) {
	if got := NewBulkhead(BulkheadConfig{}).Stats().Capacity; got != DefaultMaxConcurrent {
		t.Errorf("Capacity = %d, want %d", got, DefaultMaxConcurrent)
	}
}

func TestBulkhead_RejectsWithoutWait(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 2})
	ctx := context.Background()

	first, err := b.Acquire(ctx)
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	if _, err := b.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
	if _, err := b.Acquire(ctx); !errors.Is(err, ErrBulkheadFull) {
		t.Fatalf("third Acquire() error = %v, want ErrBulkheadFull", err)
	}

	first()
	first()
	if s := b.Stats(); s.Active != 1 {
		t.Errorf("Active = %d after double release, want 1", s.Active)
	}
	if _, err := b.Acquire(ctx); err != nil {
		t.Errorf("Acquire after release error = %v", err)
	}
	if s := b.Stats(); s.Rejected != 1 || s.Peak != 2 {
		t.Errorf("Stats() = %+v, want Rejected=1 Peak=2", s)
	}
}

func TestBulkhead_QueuesUpToMaxWait(t *testing.T) {
	tests := []struct {
		name      string
		holdFor   time.Duration
		maxWait   time.Duration
		wantErr   error
		wantStats func(BulkheadStats) bool
	}{
		{"slot frees in time", 20 * time.Millisecond, 2 * time.Second, nil, func(s BulkheadStats) bool { return s.Rejected == 0 }},
		{"slot held too long", time.Second, 20 * time.Millisecond, ErrBulkheadFull, func(s BulkheadStats) bool { return s.Rejected == 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: tt.maxWait})
			release, err := b.Acquire(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			timer := time.AfterFunc(tt.holdFor, release)
			defer timer.Stop()

			second, err := b.Acquire(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("queued Acquire() error = %v, want %v", err, tt.wantErr)
			}
			if second != nil {
				second()
			}
			if s := b.Stats(); !tt.wantStats(s) || s.Waiting != 0 {
				t.Errorf("Stats() = %+v", s)
			}
		})
	}
}

func TestBulkhead_ContextCancellation(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Second})
	if _, err := b.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	if _, err := b.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
	if s := b.Stats(); s.Rejected != 0 {
		t.Errorf("cancellation counted as rejection: %+v", s)
	}
}

func TestBulkhead_ExecuteBoundsConcurrency(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 3, MaxWait: 5 * time.Second})

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Execute(context.Background(), func(context.Context) error {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				current.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	if peak.Load() > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak.Load())
	}
	s := b.Stats()
	if s.Active != 0 || s.Peak > 3 {
		t.Errorf("Stats() = %+v after completion", s)
	}
}

func TestBulkheadStats_Saturated(t *testing.T) {
	tests := []struct {
		stats BulkheadStats
		want  bool
	}{
		{BulkheadStats{Active: 2, Capacity: 2, Waiting: 1}, true},
		{BulkheadStats{Active: 2, Capacity: 2}, false},
		{BulkheadStats{Active: 1, Capacity: 2, Waiting: 1}, false},
	}
	for _, tt := range tests {
		if got := tt.stats.Saturated(); got != tt.want {
			t.Errorf("%+v.Saturated() = %v, want %v", tt.stats, got, tt.want)
		}
	}
}
