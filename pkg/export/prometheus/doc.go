// Package prometheus bridges a metrics.Registry into client_golang.
//
// Collector is an unchecked prometheus.Collector: every scrape walks the
// registry with Report and converts each instrument into const metrics.
//
//   - Counter and Gauge become gauges (counters may be decremented).
//   - Meter becomes <name>_total plus <name>_rate{window="1m|5m|15m|mean"}.
//   - Histogram becomes a summary with the configured quantiles.
//   - Timer becomes a <name>_seconds summary plus <name>_rate.
//
// Instrument names are sanitized to the Prometheus name grammar and
// prefixed with the namespace.
package prometheus
