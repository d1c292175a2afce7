// Package cache provides a short-lived cache for aggregated history queries.
//
// Loader combines cache-aside lookups with singleflight so that concurrent
// identical queries hit the store once. Keys are derived from the query
// parameters by a Keyer; entries expire according to a Policy.
package cache
