// Package secret resolves credentials referenced from configuration.
//
// Daemon configuration files go through ExpandEnvStrict before parsing.
// Probe configurations never see environment expansion (script bodies use
// $VAR freely); instead, string values of the form
//
//	secretref:<provider>:<ref>
//
// are replaced by Resolver.ResolveConfig just before a probe runs, so
// resolved values are never persisted. Two providers are built in: env
// (environment variables) and file (files under a directory, as mounted by
// container orchestrators).
package secret
