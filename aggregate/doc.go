// Package aggregate folds probe runs into time buckets one run at a time.
//
// Three merge primitives cover every aggregate shape:
//
//   - Average: running mean, newAvg = avg + (value-avg)/newCount
//   - Rate: success percentage over a count
//   - Counter: occurrences of a condition
//
// Each primitive has an incremental form (MergeX) used for live folding and
// a Combine form used when two partial aggregates meet, for example when
// hourly buckets roll into a day. Combining is weighted by count, so the
// order in which runs or buckets arrive never changes the result.
//
// A Set is a named collection of primitives; strategies and collectors
// decide which names and shapes they keep. A Bucket holds the per-interval
// summary of one configuration on one system.
package aggregate
