// Package httpprobe checks HTTP endpoints.
//
// The strategy requests the configured URL and classifies the status
// code. Collectors reuse its client: "http.request" requests another
// path, and "http.prometheus" scrapes a Prometheus text exposition and
// reports summed metric families.
package httpprobe
