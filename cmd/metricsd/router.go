package main

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angeloszaimis/asyncmetrics/internal/handler"
	"github.com/angeloszaimis/asyncmetrics/pkg/logger"
	"github.com/angeloszaimis/asyncmetrics/pkg/metrics"
)

func setupRouter(registry *metrics.Registry, promRegistry *prometheus.Registry, log *slog.Logger) *http.ServeMux {
	in := handler.NewInstrumentation(registry, logger.For(log, "http"))
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", in.Wrap("prometheus", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))
	mux.Handle("GET /metrics.json", in.Wrap("json", handler.SnapshotHandler(registry, logger.For(log, "json"))))
	mux.HandleFunc("GET /health", handler.Health)

	return mux
}
