// Package api serves the checkd HTTP API.
//
// Routes under /api/v1:
//
//	GET  /systems
//	GET  /systems/{systemID}/status
//	POST /systems/{systemID}/run
//	GET  /systems/{systemID}/checks/{configurationID}/history?from=&to=&bucket=auto|hourly|daily
//	GET  /systems/{systemID}/checks/{configurationID}/runs?limit=
//	POST /systems/{systemID}/checks/{configurationID}/run
//	GET  /schemas
//
// Outside the versioned tree: /healthz, /readyz and /metrics.
package api
