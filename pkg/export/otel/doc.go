// Package otel exports a metrics.Registry through OpenTelemetry observable
// instruments.
//
// Instruments in the registry come and go at runtime, so the exporter
// creates a fixed set of observable gauges and tells registry instruments
// apart with the "metric" attribute:
//
//   - <prefix>.count: counters, meter and timer counts
//   - <prefix>.value: gauges and histogram/timer statistics ("stat" attribute)
//   - <prefix>.rate:  meter and timer rates ("window" attribute)
//
// A single callback walks the registry with Report on every collection.
package otel
