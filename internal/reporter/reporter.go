package reporter

import (
	"context"
	"log/slog"
	"time"

	"github.com/angeloszaimis/asyncmetrics/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// Reporter logs a registry on a fixed schedule.
type Reporter struct {
	registry  *metrics.Registry
	interval  time.Duration
	predicate metrics.Predicate
	logger    *slog.Logger
	level     slog.Level
}

type Option func(*Reporter)

func WithPredicate(predicate metrics.Predicate) Option {
	return func(r *Reporter) {
		r.predicate = predicate
	}
}

// WithLevel sets the level instrument records are logged at.
func WithLevel(level slog.Level) Option {
	return func(r *Reporter) {
		r.level = level
	}
}

func New(registry *metrics.Registry, interval time.Duration, logger *slog.Logger, opts ...Option) *Reporter {
	r := &Reporter{
		registry:  registry,
		interval:  interval,
		predicate: metrics.All,
		logger:    logger,
		level:     slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reports every interval until ctx is cancelled, then reports once more
// so the final values are not lost.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reporter started", slog.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.ReportOnce(context.Background())
			r.logger.Info("reporter stopped")
			return

		case <-ticker.C:
			r.ReportOnce(ctx)
		}
	}
}

// ReportOnce logs every selected instrument and returns the read errors.
func (r *Reporter) ReportOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	v := &logVisitor{ctx: ctx, logger: r.logger, level: r.level}
	err := r.registry.Report(ctx, r.predicate, v)
	if err != nil {
		r.logger.Warn("some instruments did not report", slog.String("error", err.Error()))
	}
	return err
}

type logVisitor struct {
	ctx    context.Context
	logger *slog.Logger
	level  slog.Level
}

func (v *logVisitor) log(kind, name string, attrs ...slog.Attr) {
	attrs = append([]slog.Attr{slog.String("type", kind), slog.String("name", name)}, attrs...)
	v.logger.LogAttrs(v.ctx, v.level, "metric", attrs...)
}

func (v *logVisitor) rates(s metrics.MeterSnapshot) slog.Attr {
	return slog.Group("rate",
		slog.Float64("mean", s.MeanRate),
		slog.Float64("m1", s.Rate1),
		slog.Float64("m5", s.Rate5),
		slog.Float64("m15", s.Rate15),
		slog.String("unit", "per "+s.RateUnit.String()),
	)
}

func (v *logVisitor) VisitCounter(name string, count int64) {
	v.log("counter", name, slog.Int64("count", count))
}

func (v *logVisitor) VisitGauge(name string, value float64) {
	v.log("gauge", name, slog.Float64("value", value))
}

func (v *logVisitor) VisitMeter(name string, s metrics.MeterSnapshot) {
	v.log("meter", name, slog.Int64("count", s.Count), v.rates(s))
}

func (v *logVisitor) VisitHistogram(name string, s metrics.HistogramSnapshot) {
	v.log("histogram", name,
		slog.Int64("count", s.Count),
		slog.Int64("min", s.Min),
		slog.Int64("max", s.Max),
		slog.Float64("mean", s.Mean),
		slog.Float64("stddev", s.StdDev),
		slog.Float64("p50", s.Median()),
		slog.Float64("p95", s.Quantile(0.95)),
		slog.Float64("p99", s.Quantile(0.99)),
	)
}

func (v *logVisitor) VisitTimer(name string, s metrics.TimerSnapshot) {
	v.log("timer", name,
		slog.Int64("count", s.Count),
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
		slog.Float64("mean", s.Mean),
		slog.Float64("stddev", s.StdDev),
		slog.Float64("p50", s.Median),
		slog.Float64("p95", s.P95),
		slog.Float64("p99", s.P99),
		slog.String("unit", s.DurationUnit.String()),
		v.rates(s.Rate),
	)
}
