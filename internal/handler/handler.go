package handler

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/angeloszaimis/asyncmetrics/pkg/metrics"
)

// Instrumentation records every wrapped request into a registry.
type Instrumentation struct {
	registry *metrics.Registry
	logger   *slog.Logger
	requests *metrics.Meter
	inFlight *metrics.Counter
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func NewInstrumentation(registry *metrics.Registry, logger *slog.Logger) *Instrumentation {
	return &Instrumentation{
		registry: registry,
		logger:   logger,
		requests: registry.Meter("http.requests"),
		inFlight: registry.Counter("http.in_flight"),
	}
}

// Wrap times next under http.<route>.latency and counts its responses by
// status class under http.<route>.responses.<class>.
func (in *Instrumentation) Wrap(route string, next http.Handler) http.Handler {
	latency := in.registry.Timer("http." + route + ".latency")
	prefix := "http." + route + ".responses."

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in.requests.Mark(1)
		in.inFlight.Inc()
		defer in.inFlight.Dec()

		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		elapsed := latency.Start()
		completed := false

		// net/http recovers handler panics, record those as 5xx
		defer func() {
			took := elapsed.Stop()
			status := wrapped.statusCode
			if !completed {
				status = http.StatusInternalServerError
			}
			in.registry.Counter(prefix + statusClass(status)).Inc()

			in.logger.Debug("served request",
				slog.String("route", route),
				slog.String("from", extractClientIP(r)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("took", took))
		}()

		next.ServeHTTP(wrapped, r)
		completed = true
	})
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// statusClass maps 404 to "4xx".
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "other"
	}
	return strconv.Itoa(code/100) + "xx"
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
