// Package engine runs health checks end to end: it resolves the
// configuration, executes the probe, persists the run, folds it into the
// live hourly bucket and notifies listeners.
//
// Folds into the same bucket are serialized by a per-key lock on top of
// the store's atomic MergeBucket.
package engine
