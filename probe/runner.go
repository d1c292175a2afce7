package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/checkops/assertion"
	"github.com/jonwraymond/checkops/health"
	"github.com/jonwraymond/checkops/observe"
	"github.com/jonwraymond/checkops/resilience"
	"github.com/jonwraymond/checkops/schema"
	"github.com/jonwraymond/checkops/secret"
)

// DefaultTimeout applies to configs without a timeout key.
const DefaultTimeout = 5 * time.Second

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// DefaultTimeout bounds client creation and each exec when the
	// strategy config has no timeout. Default: 5 seconds.
	DefaultTimeout time.Duration

	// Secrets resolves "secretref:" values in loaded configs. Nil leaves
	// configs untouched.
	Secrets *secret.Resolver

	// Logger receives client close failures. Default: no-op.
	Logger observe.Logger
}

// Runner executes configurations.
//
// Contract:
//   - Concurrency: Run is safe for concurrent use.
//   - Context: cancellation of ctx aborts the pending exec.
//   - Errors: only registry, schema and secret errors are returned; every
//     other failure is recorded in the Run.
//   - Timeouts: a timed-out built-in probe skips the collectors, which
//     then have no entry in Run.Collectors.
type Runner struct {
	registry *Registry
	config   RunnerConfig
	now      func() time.Time
}

// NewRunner creates a Runner over registry.
func NewRunner(registry *Registry, config RunnerConfig) *Runner {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = DefaultTimeout
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	return &Runner{registry: registry, config: config, now: time.Now}
}

// Registry returns the registry the runner resolves plugins from.
func (r *Runner) Registry() *Registry { return r.registry }

type plan struct {
	cfg        Configuration
	strategy   Strategy
	config     map[string]any
	timeout    time.Duration
	collectors []collectorPlan
}

type collectorPlan struct {
	entry     CollectorEntry
	collector Collector
	config    map[string]any
	timeout   time.Duration
}

// Run executes cfg once against systemID.
func (r *Runner) Run(ctx context.Context, cfg Configuration, systemID string) (Run, error) {
	p, err := r.prepare(ctx, cfg)
	if err != nil {
		return Run{}, err
	}

	start := r.now()
	run := Run{
		ID:              uuid.NewString(),
		ConfigurationID: cfg.ID,
		SystemID:        systemID,
		StrategyID:      cfg.StrategyID,
		Status:          health.StatusHealthy,
		ResultVersion:   p.strategy.ResultSchema().Version(),
		Timestamp:       start.UTC(),
	}
	r.execute(ctx, p, &run)
	run.Latency = r.now().Sub(start)
	return run, nil
}

func (r *Runner) prepare(ctx context.Context, cfg Configuration) (*plan, error) {
	s, err := r.registry.Strategy(cfg.StrategyID)
	if err != nil {
		return nil, err
	}
	config, err := r.load(ctx, s.ConfigSchema(), cfg.Config)
	if err != nil {
		return nil, fmt.Errorf("configuration %s: %w", cfg.ID, err)
	}

	fallback := r.config.DefaultTimeout
	if d, ok := s.(TimeoutDefaulter); ok && d.DefaultTimeout() > 0 {
		fallback = d.DefaultTimeout()
	}
	p := &plan{
		cfg:      cfg,
		strategy: s,
		config:   config,
		timeout:  TimeoutOf(config, fallback),
	}
	for _, entry := range cfg.Collectors {
		c, err := r.registry.Collector(entry.CollectorID)
		if err != nil {
			return nil, err
		}
		cc, err := r.load(ctx, c.ConfigSchema(), entry.Config)
		if err != nil {
			return nil, fmt.Errorf("configuration %s: collector %s: %w", cfg.ID, entry.ID, err)
		}
		p.collectors = append(p.collectors, collectorPlan{
			entry:     entry,
			collector: c,
			config:    cc,
			timeout:   TimeoutOf(cc, p.timeout),
		})
	}
	return p, nil
}

// load upgrades a stored config and resolves its secret references.
func (r *Runner) load(ctx context.Context, v *schema.Versioned, p schema.Payload) (map[string]any, error) {
	data, err := v.Load(p)
	if err != nil {
		return nil, err
	}
	if r.config.Secrets == nil {
		return data, nil
	}
	return r.config.Secrets.ResolveConfig(ctx, data)
}

func (r *Runner) execute(ctx context.Context, p *plan, run *Run) {
	id := p.strategy.Meta().ID
	client, err := resilience.Acquire(ctx, p.timeout,
		func(ctx context.Context) (Client, error) {
			c, err := p.strategy.CreateClient(ctx, p.config)
			if err == nil && c == nil {
				err = errors.New("strategy returned no client")
			}
			return c, err
		},
		func(c Client) { _ = c.Close() },
	)
	if err != nil {
		if errors.Is(err, resilience.ErrTimeout) {
			run.TimedOut = true
			err = &TimeoutError{Op: "connect", Timeout: p.timeout}
		}
		run.fail(health.StatusUnhealthy, &ConnectionError{Strategy: id, Err: err})
		return
	}

	closer := &onceCloser{client: client}
	defer func() {
		if err := closer.Close(); err != nil {
			r.config.Logger.Warn(ctx, "probe client close failed",
				observe.F("strategy", id), observe.F("error", err))
		}
	}()

	// Assertions short-circuit across the whole run.
	asserting := true
	check := func(scope string, assertions []assertion.Assertion, values Values) {
		if !asserting || len(assertions) == 0 {
			return
		}
		if f := assertion.Evaluate(assertions, values); f != nil {
			asserting = false
			run.fail(health.StatusUnhealthy, &AssertionFailure{Scope: scope, Failure: f})
		}
	}

	if prober, ok := p.strategy.(Prober); ok {
		values, err := resilience.Call(ctx, p.timeout, func(ctx context.Context) (Values, error) {
			return prober.Probe(ctx, p.config, closer)
		})
		var usable bool
		run.Result, usable = settle(run, "probe", p.timeout, values, err)
		if usable {
			check("", p.cfg.Assertions, run.Result)
		}
		if errors.Is(err, resilience.ErrTimeout) {
			run.Result = p.strategy.ResultSchema().Strip(run.Result)
			return
		}
	}

	for _, cp := range p.collectors {
		values, err := resilience.Call(ctx, cp.timeout, func(ctx context.Context) (Values, error) {
			return cp.collector.Execute(ctx, cp.config, closer)
		})
		if err != nil && !errors.Is(err, resilience.ErrTimeout) {
			err = fmt.Errorf("collector %s: %w", cp.entry.ID, err)
		}
		values, usable := settle(run, "collector "+cp.entry.ID, cp.timeout, values, err)
		if usable {
			check(cp.entry.ID, cp.entry.Assertions, values)
		}

		result := CollectorResult{
			CollectorID:   cp.entry.CollectorID,
			Values:        cp.collector.ResultSchema().Strip(values),
			ResultVersion: cp.collector.ResultSchema().Version(),
		}
		if err != nil {
			result.Error = err.Error()
			result.TimedOut = errors.Is(err, resilience.ErrTimeout)
		}
		if run.Collectors == nil {
			run.Collectors = make(map[string]CollectorResult, len(p.collectors))
		}
		run.Collectors[cp.entry.ID] = result
	}

	run.Result = p.strategy.ResultSchema().Strip(run.Result)
}

// settle folds an exec outcome into run and reports whether the values
// may be asserted on. Timed-out execs yield only the timedOut marker.
func settle(run *Run, op string, timeout time.Duration, values Values, err error) (Values, bool) {
	var degraded *DegradedError
	switch {
	case err == nil:
		return values, true
	case errors.Is(err, resilience.ErrTimeout):
		run.TimedOut = true
		run.fail(health.StatusUnhealthy, &TimeoutError{Op: op, Timeout: timeout})
		return timedOutValues(), false
	case errors.As(err, &degraded):
		run.fail(health.StatusDegraded, err)
		return values, true
	default:
		run.fail(health.StatusUnhealthy, err)
		return values, false
	}
}

// onceCloser guarantees a single Close on every exit path.
type onceCloser struct {
	client Client
	once   sync.Once
	err    error
}

func (c *onceCloser) Exec(ctx context.Context, req Request) (Values, error) {
	return c.client.Exec(ctx, req)
}

func (c *onceCloser) Close() error {
	c.once.Do(func() { c.err = c.client.Close() })
	return c.err
}

var _ Client = (*onceCloser)(nil)
