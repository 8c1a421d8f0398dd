// Package prometheus exports userauth engine metrics through
// github.com/prometheus/client_golang.
//
// [Collector] implements prometheus.Collector by reading an engine snapshot on
// every scrape, so engine counters stay lock-free atomics and nothing is
// double counted. Register it on your own registry, or use [Handler] for a
// ready /metrics endpoint backed by a private registry.
package prometheus
