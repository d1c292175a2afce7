package store

import (
	"context"
	"time"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
)

// RunStore persists raw runs.
type RunStore interface {
	// SaveRun stores run. Saving the same run id twice is a no-op.
	SaveRun(ctx context.Context, run probe.Run) error

	// LoadRecentRuns returns up to limit runs of pair, most recent first.
	LoadRecentRuns(ctx context.Context, pair aggregate.Pair, limit int) ([]probe.Run, error)

	// LoadRunsBefore returns the runs of pair with a timestamp before
	// before, oldest first.
	LoadRunsBefore(ctx context.Context, pair aggregate.Pair, before time.Time) ([]probe.Run, error)

	// DeleteRunsBefore removes the runs of pair older than before and
	// returns how many were removed.
	DeleteRunsBefore(ctx context.Context, pair aggregate.Pair, before time.Time) (int64, error)

	// Pairs lists every pair with stored runs or buckets.
	Pairs(ctx context.Context) ([]aggregate.Pair, error)
}

// MergeFunc updates a bucket in place. Returning an error discards the
// update.
type MergeFunc func(b *aggregate.Bucket) error

// BucketStore persists aggregate buckets.
type BucketStore interface {
	// GetBucket returns ErrNotFound for a missing key.
	GetBucket(ctx context.Context, key aggregate.Key) (aggregate.Bucket, error)

	// UpsertBucket stores b, replacing any bucket with the same key.
	UpsertBucket(ctx context.Context, b aggregate.Bucket) error

	// MergeBucket applies fn to the bucket at key, or to an empty one,
	// and stores the result. The read-modify-write is atomic with
	// respect to other MergeBucket and UpsertBucket calls for key.
	MergeBucket(ctx context.Context, key aggregate.Key, fn MergeFunc) (aggregate.Bucket, error)

	// LoadBuckets returns buckets of pair and size whose start lies in
	// [from, to), oldest first.
	LoadBuckets(ctx context.Context, pair aggregate.Pair, size aggregate.Size, from, to time.Time) ([]aggregate.Bucket, error)

	// DeleteBucketsBefore removes buckets of pair and size starting
	// before before and returns how many were removed.
	DeleteBucketsBefore(ctx context.Context, pair aggregate.Pair, size aggregate.Size, before time.Time) (int64, error)
}

// Store is the full persistence surface.
//
// Contract:
//   - Concurrency: implementations are safe for concurrent use.
//   - Ownership: returned runs and buckets are copies; callers may modify
//     them freely.
//   - Time: bucket starts and run timestamps are compared in UTC.
type Store interface {
	RunStore
	BucketStore

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
