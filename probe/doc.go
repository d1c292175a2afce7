// Package probe defines the plugin contract for health checks and the
// runner that executes one check.
//
// A Strategy turns a validated configuration into a connected Client. Its
// optional Prober performs the built-in action, and Collectors are
// additional actions that share the same client, addressed by the
// qualified id "plugin.collector". The Runner loads configs through their
// versioned schemas, resolves secret references, races every exec against
// the configured timeout, evaluates assertions, and always closes the
// client exactly once.
//
// Failures of a single execution are recorded in the returned Run. Only
// deployment defects (unknown plugins, schema errors, unresolvable
// secrets) are returned as errors.
package probe
