// Package reporter periodically walks a metrics registry and writes one
// structured log record per instrument. It is the console reporter of the
// daemon; exporters serve the same data on demand.
package reporter
