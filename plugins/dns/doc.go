// Package dns probes name resolution.
//
// The strategy resolves one hostname for one record type and reports the
// answers with the time taken. A "dns.lookup" collector resolves further
// records over the same client. NXDOMAIN answers are unhealthy.
package dns
