// Package httpserver wraps http.Server with address validation, fixed
// timeouts and a context-driven lifecycle for the metrics endpoints.
package httpserver
