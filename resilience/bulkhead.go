package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent applies when a BulkheadConfig leaves MaxConcurrent
// unset.
const DefaultMaxConcurrent = 10

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the number of executions allowed at once.
	// Default: DefaultMaxConcurrent.
	MaxConcurrent int

	// MaxWait is how long Acquire queues for a slot. Zero fails at once.
	MaxWait time.Duration
}

// Bulkhead caps concurrent executions.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Fairness: waiters are served in arrival order.
type Bulkhead struct {
	config BulkheadConfig
	sem    *semaphore.Weighted

	active   atomic.Int64
	peak     atomic.Int64
	waiting  atomic.Int64
	rejected atomic.Int64
}

// NewBulkhead creates a Bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Bulkhead{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrent)),
	}
}

// Acquire takes a slot, queueing up to MaxWait, and returns the function
// that gives it back. Calling release more than once is harmless.
// Cancellation of ctx while queued is reported as ctx's error.
func (b *Bulkhead) Acquire(ctx context.Context) (release func(), err error) {
	if b.sem.TryAcquire(1) {
		return b.enter(), nil
	}
	if b.config.MaxWait <= 0 {
		b.rejected.Add(1)
		return nil, ErrBulkheadFull
	}

	b.waiting.Add(1)
	waitCtx, cancel := context.WithTimeout(ctx, b.config.MaxWait)
	err = b.sem.Acquire(waitCtx, 1)
	cancel()
	b.waiting.Add(-1)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.rejected.Add(1)
		return nil, ErrBulkheadFull
	}
	return b.enter(), nil
}

func (b *Bulkhead) enter() func() {
	n := b.active.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			b.active.Add(-1)
			b.sem.Release(1)
		})
	}
}

// Execute runs op inside a slot.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	release, err := b.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return op(ctx)
}

// BulkheadStats is a point-in-time view of a Bulkhead.
type BulkheadStats struct {
	Active   int   `json:"active"`
	Peak     int   `json:"peak"`
	Waiting  int   `json:"waiting"`
	Capacity int   `json:"capacity"`
	Rejected int64 `json:"rejected"`
}

// Saturated reports whether every slot is taken and callers are queueing.
func (s BulkheadStats) Saturated() bool {
	return s.Active >= s.Capacity && s.Waiting > 0
}

// Stats returns current counters.
func (b *Bulkhead) Stats() BulkheadStats {
	return BulkheadStats{
		Active:   int(b.active.Load()),
		Peak:     int(b.peak.Load()),
		Waiting:  int(b.waiting.Load()),
		Capacity: b.config.MaxConcurrent,
		Rejected: b.rejected.Load(),
	}
}
