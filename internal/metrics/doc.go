// Package metrics defines the Prometheus collectors reelforge exports on
// /metrics and the HTTP middleware that feeds the request collectors.
package metrics
