// Package handler implements the HTTP surface of the metrics daemon: a
// middleware that records request latency, rate and status classes into a
// metrics.Registry, a JSON view of the registry and a liveness endpoint.
package handler
