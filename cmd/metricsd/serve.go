package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/asyncmetrics/config"
	"github.com/angeloszaimis/asyncmetrics/internal/httpserver"
	"github.com/angeloszaimis/asyncmetrics/internal/reporter"
	"github.com/angeloszaimis/asyncmetrics/internal/runtimestats"
	otelexport "github.com/angeloszaimis/asyncmetrics/pkg/export/otel"
	promexport "github.com/angeloszaimis/asyncmetrics/pkg/export/prometheus"
	"github.com/angeloszaimis/asyncmetrics/pkg/logger"
	"github.com/angeloszaimis/asyncmetrics/pkg/mailbox"
	"github.com/angeloszaimis/asyncmetrics/pkg/metrics"
	"github.com/angeloszaimis/asyncmetrics/pkg/sample"
)

// engine is the registry together with the executor draining it.
type engine struct {
	registry *metrics.Registry
	pool     *mailbox.Pool
}

func newEngine(cfg config.EngineConfig, log *slog.Logger) (*engine, error) {
	factory, err := sample.NewFactory(cfg.Sample, cfg.ReservoirSize, cfg.Alpha)
	if err != nil {
		return nil, fmt.Errorf("sample factory: %w", err)
	}

	opts := []metrics.Option{
		metrics.WithSample(factory),
		metrics.WithLogger(logger.For(log, "instrument")),
		metrics.WithSegmentSize(cfg.SegmentSize),
		metrics.WithThroughput(cfg.Throughput),
		metrics.WithTickInterval(cfg.Tick()),
	}

	e := &engine{}
	if cfg.Executor == config.ExecutorPool {
		e.pool = mailbox.NewPool(cfg.PoolSize,
			mailbox.WithName("engine"),
			mailbox.WithLogger(logger.For(log, "pool")),
		)
		opts = append(opts, metrics.WithExecutor(e.pool))
	}

	e.registry = metrics.NewRegistry(opts...)
	return e, nil
}

// Close drains every instrument before stopping the shared workers.
func (e *engine) Close() {
	e.registry.Close()
	if e.pool != nil {
		e.pool.Close()
	}
}

func newPrometheusRegistry(cfg config.ExporterConfig, registry *metrics.Registry, log *slog.Logger) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if cfg.Prometheus {
		promRegistry.MustRegister(promexport.NewCollector(registry, cfg.Namespace,
			promexport.WithLogger(logger.For(log, "prometheus")),
		))
	}

	return promRegistry
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return serve(ctx, cfg, log, cmd.OutOrStdout())
}

// serve runs the daemon until ctx is cancelled. OTel data goes to out when
// no OTLP endpoint is configured.
func serve(ctx context.Context, cfg *config.Config, log *slog.Logger, out io.Writer) error {
	eng, err := newEngine(cfg.Engine, log)
	if err != nil {
		return err
	}
	defer eng.Close()

	runtimestats.Register(eng.registry)

	if cfg.Exporter.OTel {
		provider, err := newMeterProvider(ctx, cfg.Exporter, out)
		if err != nil {
			return err
		}
		otel.SetMeterProvider(provider)

		exp, err := otelexport.NewExporter(provider.Meter(meterName), eng.registry, cfg.Exporter.Namespace)
		if err != nil {
			shutdownMeterProvider(provider, logger.For(log, "otel"))
			return fmt.Errorf("otel exporter: %w", err)
		}
		defer exp.Close()
		// the final export still needs the exporter's callback
		defer shutdownMeterProvider(provider, logger.For(log, "otel"))
	}

	promRegistry := newPrometheusRegistry(cfg.Exporter, eng.registry, log)
	router := setupRouter(eng.registry, promRegistry, log)

	srv, err := httpserver.New(cfg.Server.Address, router, logger.For(log, "http"))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx)
	})

	g.Go(func() error {
		metrics.NewTicker(eng.registry, eng.registry.TickInterval(), logger.For(log, "ticker")).Run(gctx)
		return nil
	})

	if cfg.Reporter.Enabled {
		g.Go(func() error {
			reporter.New(eng.registry, cfg.Reporter.Every(), logger.For(log, "reporter")).Run(gctx)
			return nil
		})
	}

	log.Info("metricsd started",
		slog.String("address", cfg.Server.Address),
		slog.String("executor", cfg.Engine.Executor),
		slog.String("sample", cfg.Engine.Sample))

	err = g.Wait()
	log.Info("metricsd stopped")
	return err
}
