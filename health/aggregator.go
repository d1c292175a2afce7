package health

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultSelfCheckTimeout bounds a readiness evaluation when none is given.
const DefaultSelfCheckTimeout = 10 * time.Second

// Report is one readiness evaluation.
type Report struct {
	Status    Status            `json:"status"`
	CheckedAt time.Time         `json:"checkedAt"`
	Checks    map[string]Result `json:"checks,omitempty"`
}

// Aggregator runs the registered self-checks and rolls them up.
type Aggregator struct {
	timeout time.Duration

	mu       sync.RWMutex
	checkers []Checker
}

// NewAggregator returns an Aggregator whose evaluations are bounded by
// timeout, or DefaultSelfCheckTimeout when timeout <= 0.
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultSelfCheckTimeout
	}
	return &Aggregator{timeout: timeout}
}

// Register adds c, replacing any checker with the same name.
func (a *Aggregator) Register(c Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := slices.IndexFunc(a.checkers, func(existing Checker) bool {
		return existing.Name() == c.Name()
	})
	if i >= 0 {
		a.checkers[i] = c
		return
	}
	a.checkers = append(a.checkers, c)
}

// Names lists the registered checkers in registration order.
func (a *Aggregator) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, len(a.checkers))
	for i, c := range a.checkers {
		names[i] = c.Name()
	}
	return names
}

// Evaluate runs every checker concurrently. A checker that misses the
// deadline is reported unhealthy with ErrSelfCheckTimeout. With nothing
// registered the daemon is healthy.
func (a *Aggregator) Evaluate(ctx context.Context) Report {
	a.mu.RLock()
	checkers := slices.Clone(a.checkers)
	a.mu.RUnlock()

	report := Report{
		Status:    StatusHealthy,
		CheckedAt: time.Now().UTC(),
		Checks:    make(map[string]Result, len(checkers)),
	}
	if len(checkers) == 0 {
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	results := make([]Result, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			results[i] = runBounded(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	statuses := make([]Status, len(results))
	for i, c := range checkers {
		report.Checks[c.Name()] = results[i]
		statuses[i] = results[i].Status
	}
	report.Status = Worst(statuses...)
	return report
}

// runBounded returns as soon as ctx expires even if c ignores it.
func runBounded(ctx context.Context, c Checker) Result {
	start := time.Now()
	done := make(chan Result, 1)
	go func() { done <- c.Check(ctx) }()

	var r Result
	select {
	case r = <-done:
	case <-ctx.Done():
		r = Unhealthy("no answer before deadline", ErrSelfCheckTimeout)
	}
	r.Duration = time.Since(start)
	return r
}
