package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/angeloszaimis/asyncmetrics/config"
)

const (
	meterName       = "github.com/angeloszaimis/asyncmetrics"
	shutdownTimeout = 5 * time.Second
)

// newMeterProvider builds the SDK provider the OTel exporter publishes
// through: OTLP over HTTP when an endpoint is configured, JSON on out
// otherwise.
func newMeterProvider(ctx context.Context, cfg config.ExporterConfig, out io.Writer) (*sdkmetric.MeterProvider, error) {
	var (
		exporter sdkmetric.Exporter
		err      error
	)

	if cfg.OTLPEndpoint != "" {
		exporter, err = otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetrichttp.WithInsecure(),
		)
	} else {
		exporter, err = stdoutmetric.New(stdoutmetric.WithWriter(out))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", "metricsd"),
		attribute.String("service.version", version),
	)

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.OTelEvery()),
		)),
	), nil
}

// shutdownMeterProvider flushes a final export.
func shutdownMeterProvider(provider *sdkmetric.MeterProvider, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := provider.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown meter provider", slog.String("error", err.Error()))
	}
}
