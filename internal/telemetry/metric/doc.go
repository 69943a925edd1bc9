// Package metric provides Prometheus metrics for SnapWatch.
//
//   - prometheus.go: registry, poll and request metrics, HTTP handler
//   - collector.go: scrape-time collector for snapshot sizes
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
