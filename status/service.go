package status

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/cache"
	"github.com/jonwraymond/checkops/catalog"
	"github.com/jonwraymond/checkops/health"
	"github.com/jonwraymond/checkops/observe"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/store"
	"github.com/jonwraymond/checkops/threshold"
)

// Config configures a Service.
type Config struct {
	// Cache stores history results. Default: a MemoryCache with
	// CachePolicy.
	Cache cache.Cache

	// CachePolicy controls history entry lifetimes.
	// Default: cache.DefaultPolicy().
	CachePolicy *cache.Policy

	// Logger. Default: no-op.
	Logger observe.Logger
}

// Service implements the status queries.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - State: the last known verdict of every pair is kept in memory and
//     used as the previous verdict of the next consecutive evaluation.
type Service struct {
	catalog  catalog.Catalog
	store    store.Store
	registry *probe.Registry
	history  *cache.Loader[[]aggregate.Bucket]
	logger   observe.Logger
	now      func() time.Time

	mu       sync.Mutex
	previous map[aggregate.Pair]threshold.Verdict
}

// New creates a Service.
func New(cat catalog.Catalog, st store.Store, registry *probe.Registry, config Config) *Service {
	policy := cache.DefaultPolicy()
	if config.CachePolicy != nil {
		policy = *config.CachePolicy
	}
	if config.Cache == nil {
		config.Cache = cache.NewMemoryCache(policy)
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	return &Service{
		catalog:  cat,
		store:    st,
		registry: registry,
		history:  cache.NewLoader[[]aggregate.Bucket](config.Cache, nil, policy),
		logger:   config.Logger,
		now:      time.Now,
		previous: make(map[aggregate.Pair]threshold.Verdict),
	}
}

// CheckStatus is the verdict of one association.
type CheckStatus struct {
	ConfigurationID string         `json:"configurationId"`
	Status          health.Status  `json:"status"`
	Known           bool           `json:"known"`
	Mode            threshold.Mode `json:"mode"`
	RunsEvaluated   int            `json:"runsEvaluated"`
	LastRunAt       *time.Time     `json:"lastRunAt,omitempty"`
	LastMessage     string         `json:"lastMessage,omitempty"`
}

// SystemStatus is the overall verdict of a system.
type SystemStatus struct {
	SystemID    string        `json:"systemId"`
	Status      health.Status `json:"status"`
	EvaluatedAt time.Time     `json:"evaluatedAt"`
	Checks      []CheckStatus `json:"checks"`
}

// EvaluateSystemStatus evaluates every enabled association of systemID.
// The overall status is the most severe known verdict, or unknown.
func (s *Service) EvaluateSystemStatus(ctx context.Context, systemID string) (SystemStatus, error) {
	if !slices.Contains(s.catalog.Systems(), systemID) {
		return SystemStatus{}, fmt.Errorf("%w: system %q", catalog.ErrNotFound, systemID)
	}
	var assocs []catalog.Association
	for _, a := range s.catalog.Associations(systemID) {
		if a.Enabled {
			assocs = append(assocs, a)
		}
	}

	recent := make([][]probe.Run, len(assocs))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range assocs {
		g.Go(func() error {
			pair := aggregate.Pair{ConfigurationID: a.ConfigurationID, SystemID: systemID}
			runs, err := s.store.LoadRecentRuns(gctx, pair, a.Policy.Depth())
			if err != nil {
				return fmt.Errorf("status: load runs of %s: %w", pair, err)
			}
			recent[i] = runs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SystemStatus{}, err
	}

	out := SystemStatus{SystemID: systemID, EvaluatedAt: s.now().UTC(), Checks: make([]CheckStatus, 0, len(assocs))}
	known := make([]health.Status, 0, len(assocs))
	for i, a := range assocs {
		check := s.evaluate(systemID, a, recent[i])
		if check.Known {
			known = append(known, check.Status)
		}
		out.Checks = append(out.Checks, check)
	}
	out.Status = health.Worst(known...)
	return out, nil
}

func (s *Service) evaluate(systemID string, a catalog.Association, runs []probe.Run) CheckStatus {
	statuses := make([]health.Status, len(runs))
	for i, r := range runs {
		statuses[i] = r.Status
	}
	pair := aggregate.Pair{ConfigurationID: a.ConfigurationID, SystemID: systemID}

	s.mu.Lock()
	previous, ok := s.previous[pair]
	if !ok {
		previous = threshold.Initial
	}
	verdict := threshold.Evaluate(a.Policy, statuses, previous)
	if verdict.Known {
		s.previous[pair] = verdict
	}
	s.mu.Unlock()

	check := CheckStatus{
		ConfigurationID: a.ConfigurationID,
		Status:          verdict.Status,
		Known:           verdict.Known,
		Mode:            a.Policy.Mode,
		RunsEvaluated:   len(runs),
	}
	if len(runs) > 0 {
		at := runs[0].Timestamp
		check.LastRunAt = &at
		check.LastMessage = runs[0].Message
	}
	return check
}

// RecentRuns returns up to limit runs of one association, most recent
// first.
func (s *Service) RecentRuns(ctx context.Context, systemID, configurationID string, limit int) ([]probe.Run, error) {
	if _, err := s.catalog.Association(systemID, configurationID); err != nil {
		return nil, err
	}
	pair := aggregate.Pair{ConfigurationID: configurationID, SystemID: systemID}
	return s.store.LoadRecentRuns(ctx, pair, limit)
}
