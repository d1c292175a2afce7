// Package consulprobe reports the health of a service registered in Consul.
//
// Every instance's checks are folded worst-wins: one critical check makes
// the run unhealthy, a warning makes it degraded. A service with no
// instances is unhealthy.
package consulprobe
