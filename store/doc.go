// Package store defines persistence for runs and aggregate buckets.
//
// Implementations live in subpackages: memstore keeps everything in
// process memory, pgstore persists to PostgreSQL. storetest holds the
// behavior suite every implementation must pass.
package store
