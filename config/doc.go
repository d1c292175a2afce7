// Package config loads the checkd configuration file and the check catalog
// file.
//
// Load(path) reads the daemon file (listen address, store, engine,
// retention, cache, NATS, auth, telemetry), expands ${VAR} references,
// applies defaults and validates. LoadCatalog(path) reads configurations,
// associations and per-configuration retention into a catalog.Snapshot.
// WatchCatalog reloads the catalog file on change and hands every valid
// snapshot to a callback; a broken edit is logged and skipped.
package config
