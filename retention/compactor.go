package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/observe"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/store"
)

// DefaultSafetyMargin keeps compaction away from buckets that may still
// receive live folds.
const DefaultSafetyMargin = time.Hour

const day = 24 * time.Hour

// CompactorConfig configures a Compactor.
type CompactorConfig struct {
	// Default applies to configurations without an override.
	// Default: Default().
	Default Config

	// Policies supplies per-configuration overrides. Optional.
	Policies Policies

	// SafetyMargin is added to the raw and hourly horizons.
	// Default: DefaultSafetyMargin.
	SafetyMargin time.Duration

	// Logger receives per-bucket failures. Default: no-op.
	Logger observe.Logger
}

// Option configures a Compactor.
type Option func(*Compactor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Compactor) { c.now = now }
}

// Report summarizes one compaction pass.
type Report struct {
	Pairs         int
	HourlyBuilt   int
	DailyBuilt    int
	RunsDeleted   int64
	HourlyDeleted int64
	DailyDeleted  int64
	Failures      int
	Err           error
}

// Compactor performs retention passes over a store.
//
// Contract:
//   - Concurrency: concurrent Run calls on the same store are safe but
//     wasteful; use one Loop per process.
//   - Idempotence: running twice over the same data leaves the same
//     buckets.
type Compactor struct {
	store    store.Store
	registry *probe.Registry
	config   CompactorConfig
	now      func() time.Time
}

// NewCompactor creates a Compactor. registry folds raw runs into hourly
// buckets.
func NewCompactor(s store.Store, registry *probe.Registry, config CompactorConfig, opts ...Option) *Compactor {
	if config.Default == (Config{}) {
		config.Default = Default()
	}
	if config.SafetyMargin <= 0 {
		config.SafetyMargin = DefaultSafetyMargin
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	c := &Compactor{store: s, registry: registry, config: config, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConfigFor returns the retention config that applies to configurationID.
func (c *Compactor) ConfigFor(configurationID string) Config {
	if c.config.Policies != nil {
		if cfg, ok := c.config.Policies.RetentionFor(configurationID); ok {
			return cfg
		}
	}
	return c.config.Default
}

// Run performs one pass over every pair in the store. Failures are logged,
// counted and joined into Report.Err; the pass continues with the next
// bucket or pair.
func (c *Compactor) Run(ctx context.Context) Report {
	var r Report
	pairs, err := c.store.Pairs(ctx)
	if err != nil {
		r.Failures++
		r.Err = fmt.Errorf("retention: list pairs: %w", err)
		return r
	}

	var errs []error
	now := c.now().UTC()
	for _, pair := range pairs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		r.Pairs++
		cfg := c.ConfigFor(pair.ConfigurationID)
		errs = append(errs, c.rollRaw(ctx, pair, cfg, now, &r)...)
		errs = append(errs, c.rollHourly(ctx, pair, cfg, now, &r)...)
		errs = append(errs, c.dropDaily(ctx, pair, cfg, now, &r)...)
	}
	r.Err = errors.Join(errs...)
	return r
}

func (c *Compactor) fail(ctx context.Context, r *Report, pair aggregate.Pair, msg string, err error) error {
	r.Failures++
	c.config.Logger.Warn(ctx, msg, observe.F("pair", pair.String()), observe.F("error", err))
	return fmt.Errorf("%s %s: %w", msg, pair, err)
}

// rollRaw rebuilds hourly buckets from raw runs older than the raw horizon.
func (c *Compactor) rollRaw(ctx context.Context, pair aggregate.Pair, cfg Config, now time.Time, r *Report) []error {
	cutoff := aggregate.Hourly.Truncate(now.Add(-time.Duration(cfg.RawDays)*day - c.config.SafetyMargin))
	runs, err := c.store.LoadRunsBefore(ctx, pair, cutoff)
	if err != nil {
		return []error{c.fail(ctx, r, pair, "load raw runs", err)}
	}

	var errs []error
	committed := true
	for _, group := range groupRuns(pair, runs) {
		b := aggregate.NewBucket(group.key)
		for _, run := range group.runs {
			if err := c.registry.Fold(&b, run); err != nil {
				c.config.Logger.Warn(ctx, "fold run during compaction",
					observe.F("run_id", run.ID), observe.F("error", err))
			}
		}
		if err := c.store.UpsertBucket(ctx, b); err != nil {
			errs = append(errs, c.fail(ctx, r, pair, "upsert hourly bucket", err))
			committed = false
			continue
		}
		r.HourlyBuilt++
		if !committed {
			continue
		}
		n, err := c.store.DeleteRunsBefore(ctx, pair, group.key.End())
		if err != nil {
			errs = append(errs, c.fail(ctx, r, pair, "delete raw runs", err))
			committed = false
			continue
		}
		r.RunsDeleted += n
	}
	return errs
}

// rollHourly rebuilds daily buckets from hourly buckets older than the
// hourly horizon.
func (c *Compactor) rollHourly(ctx context.Context, pair aggregate.Pair, cfg Config, now time.Time, r *Report) []error {
	cutoff := aggregate.Daily.Truncate(now.Add(-time.Duration(cfg.HourlyDays)*day - c.config.SafetyMargin))
	hourly, err := c.store.LoadBuckets(ctx, pair, aggregate.Hourly, time.Time{}, cutoff)
	if err != nil {
		return []error{c.fail(ctx, r, pair, "load hourly buckets", err)}
	}

	var errs []error
	committed := true
	for _, group := range groupBuckets(pair, hourly) {
		daily := aggregate.NewBucket(group.key)
		var mergeErr error
		for _, h := range group.buckets {
			if err := daily.Merge(h); err != nil {
				mergeErr = err
				break
			}
		}
		if mergeErr != nil {
			errs = append(errs, c.fail(ctx, r, pair, "merge hourly buckets", mergeErr))
			committed = false
			continue
		}
		if err := c.store.UpsertBucket(ctx, daily); err != nil {
			errs = append(errs, c.fail(ctx, r, pair, "upsert daily bucket", err))
			committed = false
			continue
		}
		r.DailyBuilt++
		if !committed {
			continue
		}
		n, err := c.store.DeleteBucketsBefore(ctx, pair, aggregate.Hourly, group.key.End())
		if err != nil {
			errs = append(errs, c.fail(ctx, r, pair, "delete hourly buckets", err))
			committed = false
			continue
		}
		r.HourlyDeleted += n
	}
	return errs
}

func (c *Compactor) dropDaily(ctx context.Context, pair aggregate.Pair, cfg Config, now time.Time, r *Report) []error {
	cutoff := aggregate.Daily.Truncate(now.Add(-time.Duration(cfg.DailyDays) * day))
	n, err := c.store.DeleteBucketsBefore(ctx, pair, aggregate.Daily, cutoff)
	if err != nil {
		return []error{c.fail(ctx, r, pair, "delete daily buckets", err)}
	}
	r.DailyDeleted += n
	return nil
}

// Loop runs a pass immediately and then every interval until ctx ends.
func (c *Compactor) Loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		r := c.Run(ctx)
		c.config.Logger.Info(ctx, "retention pass",
			observe.F("pairs", r.Pairs),
			observe.F("hourly_built", r.HourlyBuilt),
			observe.F("daily_built", r.DailyBuilt),
			observe.F("runs_deleted", r.RunsDeleted),
			observe.F("hourly_deleted", r.HourlyDeleted),
			observe.F("daily_deleted", r.DailyDeleted),
			observe.F("failures", r.Failures))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type runGroup struct {
	key  aggregate.Key
	runs []probe.Run
}

// groupRuns splits runs, sorted by timestamp, into consecutive hours.
func groupRuns(pair aggregate.Pair, runs []probe.Run) []runGroup {
	var out []runGroup
	for _, run := range runs {
		key := aggregate.KeyFor(pair, aggregate.Hourly, run.Timestamp)
		if n := len(out); n > 0 && out[n-1].key.Start.Equal(key.Start) {
			out[n-1].runs = append(out[n-1].runs, run)
			continue
		}
		out = append(out, runGroup{key: key, runs: []probe.Run{run}})
	}
	return out
}

type bucketGroup struct {
	key     aggregate.Key
	buckets []aggregate.Bucket
}

func groupBuckets(pair aggregate.Pair, buckets []aggregate.Bucket) []bucketGroup {
	var out []bucketGroup
	for _, b := range buckets {
		key := aggregate.KeyFor(pair, aggregate.Daily, b.Key.Start)
		if n := len(out); n > 0 && out[n-1].key.Start.Equal(key.Start) {
			out[n-1].buckets = append(out[n-1].buckets, b)
			continue
		}
		out = append(out, bucketGroup{key: key, buckets: []aggregate.Bucket{b}})
	}
	return out
}
