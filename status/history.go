package status

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jonwraymond/checkops/aggregate"
)

// Granularity selects the bucket size of a history query.
type Granularity string

const (
	Auto   Granularity = "auto"
	Hourly Granularity = "hourly"
	Daily  Granularity = "daily"
)

// AutoThreshold is the range below which Auto picks hourly buckets.
const AutoThreshold = 72 * time.Hour

// ParseGranularity parses "", "auto", "hourly" or "daily". Empty means
// Auto.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case "", Auto:
		return Auto, nil
	case Hourly, Daily:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
}

// Size resolves g for a range of the given length.
func (g Granularity) Size(span time.Duration) aggregate.Size {
	switch g {
	case Hourly:
		return aggregate.Hourly
	case Daily:
		return aggregate.Daily
	}
	if span < AutoThreshold {
		return aggregate.Hourly
	}
	return aggregate.Daily
}

type historyQuery struct {
	SystemID        string         `json:"systemId"`
	ConfigurationID string         `json:"configurationId"`
	From            time.Time      `json:"from"`
	To              time.Time      `json:"to"`
	Size            aggregate.Size `json:"size"`
}

// GetAggregatedHistory returns the buckets of one association whose start
// lies in [from, to), oldest first. Daily views merge hourly buckets that
// were not rolled up yet, preferring an existing daily bucket for a day.
// Identical concurrent queries share one load and results are cached
// briefly.
func (s *Service) GetAggregatedHistory(ctx context.Context, systemID, configurationID string, from, to time.Time, g Granularity) ([]aggregate.Bucket, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: from %s is not before to %s", ErrInvalidRange, from, to)
	}
	if _, err := s.catalog.Association(systemID, configurationID); err != nil {
		return nil, err
	}

	size := g.Size(to.Sub(from))
	q := historyQuery{
		SystemID:        systemID,
		ConfigurationID: configurationID,
		From:            size.Truncate(from),
		To:              to.UTC(),
		Size:            size,
	}
	return s.history.Load(ctx, "history", q, 0, func(ctx context.Context) ([]aggregate.Bucket, error) {
		return s.loadHistory(ctx, q)
	})
}

func (s *Service) loadHistory(ctx context.Context, q historyQuery) ([]aggregate.Bucket, error) {
	pair := aggregate.Pair{ConfigurationID: q.ConfigurationID, SystemID: q.SystemID}
	hourly, err := s.store.LoadBuckets(ctx, pair, aggregate.Hourly, q.From, q.To)
	if err != nil {
		return nil, fmt.Errorf("status: load hourly buckets: %w", err)
	}
	if q.Size == aggregate.Hourly {
		return nonNil(hourly), nil
	}

	daily, err := s.store.LoadBuckets(ctx, pair, aggregate.Daily, q.From, q.To)
	if err != nil {
		return nil, fmt.Errorf("status: load daily buckets: %w", err)
	}
	return mergeDays(pair, daily, hourly)
}

// mergeDays combines stored daily buckets with day buckets built from
// hourly ones.
func mergeDays(pair aggregate.Pair, daily, hourly []aggregate.Bucket) ([]aggregate.Bucket, error) {
	byDay := make(map[int64]int, len(daily))
	out := make([]aggregate.Bucket, 0, len(daily))
	for _, d := range daily {
		byDay[d.Key.Start.Unix()] = len(out)
		out = append(out, d)
	}
	stored := len(out)

	for _, h := range hourly {
		key := aggregate.KeyFor(pair, aggregate.Daily, h.Key.Start)
		i, ok := byDay[key.Start.Unix()]
		if ok && i < stored {
			continue
		}
		if !ok {
			i = len(out)
			byDay[key.Start.Unix()] = i
			out = append(out, aggregate.NewBucket(key))
		}
		if err := out[i].Merge(h); err != nil {
			return nil, fmt.Errorf("status: merge %s: %w", h.Key, err)
		}
	}

	slices.SortFunc(out, func(a, b aggregate.Bucket) int {
		return a.Key.Start.Compare(b.Key.Start)
	})
	return out, nil
}

func nonNil(b []aggregate.Bucket) []aggregate.Bucket {
	if b == nil {
		return []aggregate.Bucket{}
	}
	return b
}
