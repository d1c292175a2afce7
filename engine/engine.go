package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/catalog"
	"github.com/jonwraymond/checkops/observe"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/resilience"
	"github.com/jonwraymond/checkops/store"
)

// RunListener is notified after a run is persisted and folded.
type RunListener interface {
	RunCompleted(ctx context.Context, run probe.Run)
}

// RunListenerFunc adapts a function to a RunListener.
type RunListenerFunc func(ctx context.Context, run probe.Run)

func (f RunListenerFunc) RunCompleted(ctx context.Context, run probe.Run) { f(ctx, run) }

// Config configures an Engine.
type Config struct {
	// MaxConcurrent bounds concurrent RunCheck calls. Default: 16.
	MaxConcurrent int

	// MaxWait is how long RunCheck waits for a slot before failing with
	// resilience.ErrBulkheadFull. Default: 30 seconds.
	MaxWait time.Duration

	// Middleware wraps every probe run. Default: no-op telemetry.
	Middleware *observe.Middleware

	// Logger receives fold and listener problems. Default: no-op.
	Logger observe.Logger
}

// Engine executes checks.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: probe failures are recorded in the returned Run. RunCheck
//     returns an error only for unknown or disabled associations, invalid
//     configurations, a full bulkhead, or persistence failures.
type Engine struct {
	catalog  catalog.Catalog
	runner   *probe.Runner
	store    store.Store
	bulkhead *resilience.Bulkhead
	mw       *observe.Middleware
	logger   observe.Logger
	locks    keyLocks

	mu        sync.RWMutex
	listeners []RunListener
}

// New creates an Engine.
func New(cat catalog.Catalog, runner *probe.Runner, st store.Store, config Config) *Engine {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 16
	}
	if config.MaxWait <= 0 {
		config.MaxWait = 30 * time.Second
	}
	if config.Middleware == nil {
		config.Middleware = observe.NewMiddleware(nil, nil, nil)
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	return &Engine{
		catalog: cat,
		runner:  runner,
		store:   st,
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: config.MaxConcurrent,
			MaxWait:       config.MaxWait,
		}),
		mw:     config.Middleware,
		logger: config.Logger,
	}
}

// AddListener registers l for every completed run.
func (e *Engine) AddListener(l RunListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Bulkhead exposes the concurrency limiter for metrics.
func (e *Engine) Bulkhead() *resilience.Bulkhead { return e.bulkhead }

// RunCheck runs configurationID against systemID once.
func (e *Engine) RunCheck(ctx context.Context, configurationID, systemID string) (probe.Run, error) {
	release, err := e.bulkhead.Acquire(ctx)
	if err != nil {
		return probe.Run{}, err
	}
	defer release()

	assoc, err := e.catalog.Association(systemID, configurationID)
	if err != nil {
		return probe.Run{}, err
	}
	if !assoc.Enabled {
		return probe.Run{}, fmt.Errorf("%w: %s/%s", ErrDisabled, systemID, configurationID)
	}
	cfg, err := e.catalog.Configuration(configurationID)
	if err != nil {
		return probe.Run{}, err
	}

	var run probe.Run
	execute := e.mw.Wrap(func(ctx context.Context, _ observe.ProbeMeta) (observe.Outcome, error) {
		r, err := e.runner.Run(ctx, cfg, systemID)
		if err != nil {
			return observe.Outcome{}, err
		}
		run = r
		return observe.Outcome{Status: r.Status, TimedOut: r.TimedOut, Message: r.Message}, nil
	})
	meta := observe.ProbeMeta{StrategyID: cfg.StrategyID, ConfigurationID: cfg.ID, SystemID: systemID}
	if _, err := execute(ctx, meta); err != nil {
		return probe.Run{}, err
	}

	if err := e.store.SaveRun(ctx, run); err != nil {
		return run, fmt.Errorf("engine: save run: %w", err)
	}
	if err := e.fold(ctx, run); err != nil {
		return run, err
	}
	e.notify(ctx, run)
	return run, nil
}

// fold merges run into its live hourly bucket.
func (e *Engine) fold(ctx context.Context, run probe.Run) error {
	pair := aggregate.Pair{ConfigurationID: run.ConfigurationID, SystemID: run.SystemID}
	key := aggregate.KeyFor(pair, aggregate.Hourly, run.Timestamp)

	unlock := e.locks.lock(key.String())
	defer unlock()

	var foldErr error
	_, err := e.store.MergeBucket(ctx, key, func(b *aggregate.Bucket) error {
		foldErr = e.runner.Registry().Fold(b, run)
		return nil
	})
	if err != nil {
		return fmt.Errorf("engine: fold run %s: %w", run.ID, err)
	}
	if foldErr != nil {
		e.logger.Warn(ctx, "run folded partially",
			observe.F("run_id", run.ID), observe.F("bucket", key.String()), observe.F("error", foldErr))
	}
	return nil
}

func (e *Engine) notify(ctx context.Context, run probe.Run) {
	e.mu.RLock()
	listeners := append([]RunListener(nil), e.listeners...)
	e.mu.RUnlock()
	for _, l := range listeners {
		l.RunCompleted(ctx, run)
	}
}

// RunAll runs every enabled association of systemID concurrently. Runs are
// returned in association order; failed checks are omitted and their
// errors joined. An unknown system is catalog.ErrNotFound.
func (e *Engine) RunAll(ctx context.Context, systemID string) ([]probe.Run, error) {
	if !slices.Contains(e.catalog.Systems(), systemID) {
		return nil, fmt.Errorf("%w: system %q", catalog.ErrNotFound, systemID)
	}
	var assocs []catalog.Association
	for _, a := range e.catalog.Associations(systemID) {
		if a.Enabled {
			assocs = append(assocs, a)
		}
	}

	runs := make([]probe.Run, len(assocs))
	errs := make([]error, len(assocs))
	var g errgroup.Group
	for i, a := range assocs {
		g.Go(func() error {
			runs[i], errs[i] = e.RunCheck(ctx, a.ConfigurationID, systemID)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]probe.Run, 0, len(runs))
	for i, run := range runs {
		if errs[i] == nil {
			out = append(out, run)
		}
	}
	return out, errors.Join(errs...)
}
