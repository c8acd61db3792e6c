// Package metric provides Prometheus metrics for starledger.
//
//   - prometheus.go: registry, pipeline metrics, /metrics handler
//   - collector.go: collector reporting stored sessions on scrape
package metric
