// Package memstore is an in-memory store.Store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/store"
)

// Store keeps runs and buckets in maps guarded by a single mutex.
type Store struct {
	mu      sync.RWMutex
	runs    map[aggregate.Pair][]probe.Run
	runIDs  map[string]struct{}
	buckets map[string]aggregate.Bucket
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		runs:    make(map[aggregate.Pair][]probe.Run),
		runIDs:  make(map[string]struct{}),
		buckets: make(map[string]aggregate.Bucket),
	}
}

func bucketID(k aggregate.Key) string { return k.String() }

// SaveRun keeps runs of a pair ordered by timestamp.
func (s *Store) SaveRun(_ context.Context, run probe.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runIDs[run.ID]; ok {
		return nil
	}
	s.runIDs[run.ID] = struct{}{}

	pair := aggregate.Pair{ConfigurationID: run.ConfigurationID, SystemID: run.SystemID}
	runs := s.runs[pair]
	i := sort.Search(len(runs), func(i int) bool { return runs[i].Timestamp.After(run.Timestamp) })
	runs = append(runs, probe.Run{})
	copy(runs[i+1:], runs[i:])
	runs[i] = run
	s.runs[pair] = runs
	return nil
}

func (s *Store) LoadRecentRuns(_ context.Context, pair aggregate.Pair, limit int) ([]probe.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := s.runs[pair]
	if limit <= 0 || limit > len(runs) {
		limit = len(runs)
	}
	out := make([]probe.Run, 0, limit)
	for i := len(runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, runs[i])
	}
	return out, nil
}

func (s *Store) LoadRunsBefore(_ context.Context, pair aggregate.Pair, before time.Time) ([]probe.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := s.runs[pair]
	n := sort.Search(len(runs), func(i int) bool { return !runs[i].Timestamp.Before(before) })
	return append([]probe.Run(nil), runs[:n]...), nil
}

func (s *Store) DeleteRunsBefore(_ context.Context, pair aggregate.Pair, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	runs := s.runs[pair]
	n := sort.Search(len(runs), func(i int) bool { return !runs[i].Timestamp.Before(before) })
	for _, r := range runs[:n] {
		delete(s.runIDs, r.ID)
	}
	if n == len(runs) {
		delete(s.runs, pair)
	} else {
		s.runs[pair] = append([]probe.Run(nil), runs[n:]...)
	}
	return int64(n), nil
}

func (s *Store) Pairs(_ context.Context) ([]aggregate.Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[aggregate.Pair]struct{}, len(s.runs))
	for p := range s.runs {
		seen[p] = struct{}{}
	}
	for _, b := range s.buckets {
		seen[b.Key.Pair()] = struct{}{}
	}
	out := make([]aggregate.Pair, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (s *Store) GetBucket(_ context.Context, key aggregate.Key) (aggregate.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buckets[bucketID(key)]
	if !ok {
		return aggregate.Bucket{}, store.ErrNotFound
	}
	return b.Clone(), nil
}

func (s *Store) UpsertBucket(_ context.Context, b aggregate.Bucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[bucketID(b.Key)] = b.Clone()
	return nil
}

func (s *Store) MergeBucket(_ context.Context, key aggregate.Key, fn store.MergeFunc) (aggregate.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucketID(key)]
	if ok {
		b = b.Clone()
	} else {
		b = aggregate.NewBucket(key)
	}
	if err := fn(&b); err != nil {
		return aggregate.Bucket{}, err
	}
	s.buckets[bucketID(key)] = b.Clone()
	return b, nil
}

func (s *Store) LoadBuckets(_ context.Context, pair aggregate.Pair, size aggregate.Size, from, to time.Time) ([]aggregate.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []aggregate.Bucket
	for _, b := range s.buckets {
		k := b.Key
		if k.Pair() != pair || k.Size != size || k.Start.Before(from) || !k.Start.Before(to) {
			continue
		}
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Start.Before(out[j].Key.Start) })
	return out, nil
}

func (s *Store) DeleteBucketsBefore(_ context.Context, pair aggregate.Pair, size aggregate.Size, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, b := range s.buckets {
		if b.Key.Pair() == pair && b.Key.Size == size && b.Key.Start.Before(before) {
			delete(s.buckets, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) Ping(context.Context) error { return nil }

var _ store.Store = (*Store)(nil)
