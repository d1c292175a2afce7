// Package storetest is the behavior suite for store.Store implementations.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/health"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/store"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) store.Store

var (
	base  = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	pairA = aggregate.Pair{ConfigurationID: "cfg-a", SystemID: "sys-1"}
	pairB = aggregate.Pair{ConfigurationID: "cfg-b", SystemID: "sys-1"}
)

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"SaveRun_Idempotent", testSaveRunIdempotent},
		{"LoadRecentRuns_Order", testLoadRecentRuns},
		{"LoadRunsBefore_Exclusive", testLoadRunsBefore},
		{"DeleteRunsBefore", testDeleteRunsBefore},
		{"Pairs", testPairs},
		{"GetBucket_NotFound", testGetBucketNotFound},
		{"UpsertBucket_Replaces", testUpsertReplaces},
		{"MergeBucket", testMergeBucket},
		{"MergeBucket_ErrorDiscards", testMergeBucketError},
		{"MergeBucket_Concurrent", testMergeBucketConcurrent},
		{"LoadBuckets_Range", testLoadBuckets},
		{"DeleteBucketsBefore", testDeleteBucketsBefore},
		{"Ping", func(t *testing.T, s store.Store) {
			if err := s.Ping(context.Background()); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func makeRun(pair aggregate.Pair, n int, at time.Time) probe.Run {
	return probe.Run{
		ID:              fmt.Sprintf("%s-%d", pair, n),
		ConfigurationID: pair.ConfigurationID,
		SystemID:        pair.SystemID,
		StrategyID:      "http",
		Status:          health.StatusHealthy,
		Result:          probe.Values{"statusCode": float64(200)},
		ResultVersion:   1,
		Timestamp:       at,
		Latency:         time.Duration(n) * time.Millisecond,
	}
}

func saveRuns(t *testing.T, s store.Store, pair aggregate.Pair, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := s.SaveRun(context.Background(), makeRun(pair, i, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}
}

func ids(runs []probe.Run) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.ID
	}
	return out
}

func equalIDs(got []probe.Run, want ...string) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func testSaveRunIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	run := makeRun(pairA, 0, base)
	for i := 0; i < 2; i++ {
		if err := s.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}
	runs, err := s.LoadRecentRuns(ctx, pairA, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	got := runs[0]
	if got.Status != health.StatusHealthy || !got.Timestamp.Equal(base) || got.Latency != 0 {
		t.Errorf("run = %+v", got)
	}
	if v, _ := got.Result.Float("statusCode"); v != 200 {
		t.Errorf("Result = %v", got.Result)
	}
}

func testLoadRecentRuns(t *testing.T, s store.Store) {
	saveRuns(t, s, pairA, 5)
	saveRuns(t, s, pairB, 2)

	runs, err := s.LoadRecentRuns(context.Background(), pairA, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(runs, "cfg-a@sys-1-4", "cfg-a@sys-1-3", "cfg-a@sys-1-2") {
		t.Errorf("LoadRecentRuns() = %v", ids(runs))
	}
}

func testLoadRunsBefore(t *testing.T, s store.Store) {
	saveRuns(t, s, pairA, 5)

	runs, err := s.LoadRunsBefore(context.Background(), pairA, base.Add(2*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(runs, "cfg-a@sys-1-0", "cfg-a@sys-1-1") {
		t.Errorf("LoadRunsBefore() = %v", ids(runs))
	}
}

func testDeleteRunsBefore(t *testing.T, s store.Store) {
	ctx := context.Background()
	saveRuns(t, s, pairA, 5)
	saveRuns(t, s, pairB, 5)

	n, err := s.DeleteRunsBefore(ctx, pairA, base.Add(3*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("deleted = %d, want 3", n)
	}
	runs, _ := s.LoadRecentRuns(ctx, pairA, 0)
	if !equalIDs(runs, "cfg-a@sys-1-4", "cfg-a@sys-1-3") {
		t.Errorf("remaining = %v", ids(runs))
	}
	other, _ := s.LoadRecentRuns(ctx, pairB, 0)
	if len(other) != 5 {
		t.Errorf("other pair = %d runs, want 5", len(other))
	}
}

func testPairs(t *testing.T, s store.Store) {
	ctx := context.Background()
	saveRuns(t, s, pairA, 1)
	if err := s.UpsertBucket(ctx, aggregate.NewBucket(aggregate.KeyFor(pairB, aggregate.Daily, base))); err != nil {
		t.Fatal(err)
	}

	pairs, err := s.Pairs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 2 || pairs[0] != pairA || pairs[1] != pairB {
		t.Errorf("Pairs() = %v", pairs)
	}
}

func testGetBucketNotFound(t *testing.T, s store.Store) {
	_, err := s.GetBucket(context.Background(), aggregate.KeyFor(pairA, aggregate.Hourly, base))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetBucket() error = %v, want ErrNotFound", err)
	}
}

func sampleBucket(key aggregate.Key, n int) aggregate.Bucket {
	b := aggregate.NewBucket(key)
	for i := 0; i < n; i++ {
		b.AddSample(aggregate.Sample{Status: health.StatusHealthy, LatencyMs: 10, Timestamp: key.Start.Add(time.Duration(i) * time.Second)})
		b.Strategy = b.Strategy.Average("latencyMs", 10, true)
	}
	return b
}

func testUpsertReplaces(t *testing.T, s store.Store) {
	ctx := context.Background()
	key := aggregate.KeyFor(pairA, aggregate.Hourly, base)
	for _, n := range []int{3, 2} {
		if err := s.UpsertBucket(ctx, sampleBucket(key, n)); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.GetBucket(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got.RunCount != 2 || got.Strategy["latencyMs"].Average.Count != 2 {
		t.Errorf("bucket = %+v", got)
	}
	if !got.Key.Start.Equal(base) || got.Key.Size != aggregate.Hourly {
		t.Errorf("Key = %+v", got.Key)
	}

	got.RunCount = 99
	again, _ := s.GetBucket(ctx, key)
	if again.RunCount != 2 {
		t.Error("GetBucket() returned shared state")
	}
}

func addOne(b *aggregate.Bucket) error {
	b.AddSample(aggregate.Sample{Status: health.StatusHealthy, LatencyMs: 5, Timestamp: b.Key.Start})
	b.Strategy = b.Strategy.Counter("runs", true)
	return nil
}

func testMergeBucket(t *testing.T, s store.Store) {
	ctx := context.Background()
	key := aggregate.KeyFor(pairA, aggregate.Hourly, base)
	for i := 0; i < 3; i++ {
		if _, err := s.MergeBucket(ctx, key, addOne); err != nil {
			t.Fatalf("MergeBucket() error = %v", err)
		}
	}
	got, err := s.GetBucket(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got.RunCount != 3 || got.Strategy["runs"].Counter.Count != 3 {
		t.Errorf("bucket = %+v", got)
	}
}

func testMergeBucketError(t *testing.T, s store.Store) {
	ctx := context.Background()
	key := aggregate.KeyFor(pairA, aggregate.Hourly, base)
	if _, err := s.MergeBucket(ctx, key, addOne); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	_, err := s.MergeBucket(ctx, key, func(b *aggregate.Bucket) error {
		_ = addOne(b)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("MergeBucket() error = %v, want boom", err)
	}
	got, _ := s.GetBucket(ctx, key)
	if got.RunCount != 1 {
		t.Errorf("RunCount = %d, want 1", got.RunCount)
	}
}

func testMergeBucketConcurrent(t *testing.T, s store.Store) {
	ctx := context.Background()
	key := aggregate.KeyFor(pairA, aggregate.Hourly, base)
	const n = 20

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.MergeBucket(ctx, key, addOne); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("MergeBucket() error = %v", err)
	}

	got, _ := s.GetBucket(ctx, key)
	if got.RunCount != n {
		t.Errorf("RunCount = %d, want %d", got.RunCount, n)
	}
}

func testLoadBuckets(t *testing.T, s store.Store) {
	ctx := context.Background()
	for h := 0; h < 5; h++ {
		key := aggregate.KeyFor(pairA, aggregate.Hourly, base.Add(time.Duration(h)*time.Hour))
		if err := s.UpsertBucket(ctx, sampleBucket(key, h+1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.UpsertBucket(ctx, sampleBucket(aggregate.KeyFor(pairA, aggregate.Daily, base), 1)); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadBuckets(ctx, pairA, aggregate.Hourly, base.Add(time.Hour), base.Add(4*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("LoadBuckets() = %d buckets, want 3", len(got))
	}
	for i, b := range got {
		if !b.Key.Start.Equal(base.Add(time.Duration(i+1) * time.Hour)) {
			t.Errorf("bucket %d starts %v", i, b.Key.Start)
		}
		if b.RunCount != int64(i+2) {
			t.Errorf("bucket %d RunCount = %d", i, b.RunCount)
		}
	}
}

func testDeleteBucketsBefore(t *testing.T, s store.Store) {
	ctx := context.Background()
	for h := 0; h < 4; h++ {
		for _, p := range []aggregate.Pair{pairA, pairB} {
			key := aggregate.KeyFor(p, aggregate.Hourly, base.Add(time.Duration(h)*time.Hour))
			if err := s.UpsertBucket(ctx, sampleBucket(key, 1)); err != nil {
				t.Fatal(err)
			}
		}
	}

	n, err := s.DeleteBucketsBefore(ctx, pairA, aggregate.Hourly, base.Add(2*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	left, _ := s.LoadBuckets(ctx, pairA, aggregate.Hourly, base, base.Add(24*time.Hour))
	if len(left) != 2 {
		t.Errorf("pair A left = %d, want 2", len(left))
	}
	other, _ := s.LoadBuckets(ctx, pairB, aggregate.Hourly, base, base.Add(24*time.Hour))
	if len(other) != 4 {
		t.Errorf("pair B left = %d, want 4", len(other))
	}
}
