// Package retention ages raw runs into hourly buckets, hourly buckets into
// daily buckets, and drops daily buckets past their horizon.
//
// Every rollup rebuilds its target bucket from the sources and replaces it,
// so a compaction that fails part way can simply run again. Sources are
// deleted only once every earlier target of the same pair was written.
package retention
