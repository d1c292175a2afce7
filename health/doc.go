// Package health defines the status vocabulary shared by every checkops
// package and the self-checks the daemon exposes for its own dependencies.
//
// # Status
//
// A probe run, a threshold verdict and a system rollup all speak the same
// Status: Healthy, Degraded or Unhealthy. StatusUnknown is reserved for
// "no verdict", for example a check with no runs yet; it is never the
// outcome of a run.
//
//	overall := health.Worst(health.StatusHealthy, health.StatusDegraded)
//	// overall == health.StatusDegraded
//
// # Self-checks
//
// Checker and Aggregator cover the daemon's own dependencies (store,
// message bus) and back the /healthz and /readyz endpoints:
//
//	agg := health.NewAggregator(5 * time.Second)
//	agg.Register(health.Ping("store", st.Ping))
//	health.RegisterHandlers(router, agg)
package health
