package aggregate

import (
	"fmt"
	"math"
	"time"

	"github.com/jonwraymond/checkops/health"
)

// HistogramBounds are the upper bounds, in milliseconds, of the latency
// histogram bins. A final overflow bin follows the last bound.
var HistogramBounds = []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 30000, 60000}

// Sample is the part of a run every bucket keeps, independent of strategy.
type Sample struct {
	Status    health.Status
	LatencyMs float64
	Timestamp time.Time
}

// Statuses counts runs per classification.
type Statuses struct {
	Healthy   int64 `json:"healthy"`
	Degraded  int64 `json:"degraded"`
	Unhealthy int64 `json:"unhealthy"`
}

// Latency summarizes run durations in milliseconds.
type Latency struct {
	Mean      Average `json:"mean"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Histogram []int64 `json:"histogram"`
}

// Bucket is the summary of one configuration on one system over one
// hour or day.
type Bucket struct {
	Key        Key            `json:"key"`
	RunCount   int64          `json:"runCount"`
	Statuses   Statuses       `json:"statuses"`
	Success    Rate           `json:"success"`
	Latency    Latency        `json:"latency"`
	Strategy   Set            `json:"strategy,omitempty"`
	Collectors map[string]Set `json:"collectors,omitempty"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// NewBucket returns an empty bucket for key.
func NewBucket(key Key) Bucket {
	return Bucket{Key: key}
}

// AddSample folds one run's status and latency into b. Only healthy runs
// count as successes.
func (b *Bucket) AddSample(s Sample) {
	b.RunCount++
	switch s.Status {
	case health.StatusHealthy:
		b.Statuses.Healthy++
	case health.StatusDegraded:
		b.Statuses.Degraded++
	default:
		b.Statuses.Unhealthy++
	}
	b.Success = MergeRate(b.Success, s.Status == health.StatusHealthy)
	b.Latency.add(s.LatencyMs)
	if s.Timestamp.After(b.UpdatedAt) {
		b.UpdatedAt = s.Timestamp
	}
}

// Merge folds other into b. Both must describe the same pair; other may be
// narrower, as when hourly buckets roll into a day.
func (b *Bucket) Merge(other Bucket) error {
	if b.Key.Pair() != other.Key.Pair() {
		return fmt.Errorf("%w: %s and %s", ErrKeyMismatch, b.Key, other.Key)
	}
	strategy, err := b.Strategy.Combine(other.Strategy)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	collectors := make(map[string]Set, len(b.Collectors)+len(other.Collectors))
	for id, set := range b.Collectors {
		collectors[id] = set.Clone()
	}
	for id, set := range other.Collectors {
		merged, err := collectors[id].Combine(set)
		if err != nil {
			return fmt.Errorf("collector %s: %w", id, err)
		}
		collectors[id] = merged
	}

	b.RunCount += other.RunCount
	b.Statuses.Healthy += other.Statuses.Healthy
	b.Statuses.Degraded += other.Statuses.Degraded
	b.Statuses.Unhealthy += other.Statuses.Unhealthy
	b.Success = CombineRate(b.Success, other.Success)
	b.Latency.combine(other.Latency)
	if len(strategy) > 0 {
		b.Strategy = strategy
	}
	if len(collectors) > 0 {
		b.Collectors = collectors
	}
	if other.UpdatedAt.After(b.UpdatedAt) {
		b.UpdatedAt = other.UpdatedAt
	}
	return nil
}

// Clone returns a deep copy of b.
func (b Bucket) Clone() Bucket {
	out := b
	out.Latency.Histogram = append([]int64(nil), b.Latency.Histogram...)
	out.Strategy = b.Strategy.Clone()
	if b.Collectors != nil {
		out.Collectors = make(map[string]Set, len(b.Collectors))
		for id, set := range b.Collectors {
			out.Collectors[id] = set.Clone()
		}
	}
	return out
}

// SuccessRate returns the success percentage rounded to two decimals.
func (b Bucket) SuccessRate() float64 {
	return b.Success.Rounded()
}

// P95 estimates the 95th percentile latency from the histogram. The
// estimate is the upper bound of the bin holding the 95th percentile
// sample, clamped to the observed range.
func (b Bucket) P95() float64 {
	return b.Latency.quantile(0.95)
}

// Status returns the most severe classification present in the bucket.
func (b Bucket) Status() health.Status {
	switch {
	case b.Statuses.Unhealthy > 0:
		return health.StatusUnhealthy
	case b.Statuses.Degraded > 0:
		return health.StatusDegraded
	case b.Statuses.Healthy > 0:
		return health.StatusHealthy
	}
	return health.StatusUnknown
}

func (l *Latency) add(ms float64) {
	if math.IsNaN(ms) || ms < 0 {
		return
	}
	if l.Mean.Count == 0 || ms < l.Min {
		l.Min = ms
	}
	if l.Mean.Count == 0 || ms > l.Max {
		l.Max = ms
	}
	l.Mean = MergeAverage(l.Mean, ms, true)
	l.ensureHistogram()
	l.Histogram[binFor(ms)]++
}

func (l *Latency) combine(o Latency) {
	if o.Mean.Count == 0 {
		return
	}
	if l.Mean.Count == 0 {
		l.Min, l.Max = o.Min, o.Max
	} else {
		l.Min = math.Min(l.Min, o.Min)
		l.Max = math.Max(l.Max, o.Max)
	}
	l.Mean = CombineAverage(l.Mean, o.Mean)
	l.ensureHistogram()
	for i := range l.Histogram {
		if i < len(o.Histogram) {
			l.Histogram[i] += o.Histogram[i]
		}
	}
}

func (l *Latency) ensureHistogram() {
	if len(l.Histogram) != len(HistogramBounds)+1 {
		h := make([]int64, len(HistogramBounds)+1)
		copy(h, l.Histogram)
		l.Histogram = h
	}
}

func (l Latency) quantile(q float64) float64 {
	var total int64
	for _, n := range l.Histogram {
		total += n
	}
	if total == 0 {
		return 0
	}
	rank := int64(math.Ceil(q * float64(total)))
	var seen int64
	for i, n := range l.Histogram {
		seen += n
		if seen < rank {
			continue
		}
		if i >= len(HistogramBounds) {
			return l.Max
		}
		return math.Max(l.Min, math.Min(HistogramBounds[i], l.Max))
	}
	return l.Max
}

func binFor(ms float64) int {
	for i, bound := range HistogramBounds {
		if ms <= bound {
			return i
		}
	}
	return len(HistogramBounds)
}
