package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/angeloszaimis/asyncmetrics/pkg/metrics"
)

var (
	ErrNilMeter    = errors.New("nil meter")
	ErrNilRegistry = errors.New("nil metrics registry")
)

// DefaultPrefix names the exported instruments.
const DefaultPrefix = "asyncmetrics"

var quantiles = []float64{0.5, 0.75, 0.95, 0.99, 0.999}

type Exporter struct {
	registry     *metrics.Registry
	predicate    metrics.Predicate
	registration metric.Registration
	count        metric.Int64ObservableGauge
	value        metric.Float64ObservableGauge
	rate         metric.Float64ObservableGauge
}

type Option func(*Exporter)

func WithPredicate(predicate metrics.Predicate) Option {
	return func(e *Exporter) {
		e.predicate = predicate
	}
}

// NewExporter creates the observable instruments on meter and registers the
// collection callback.
func NewExporter(meter metric.Meter, registry *metrics.Registry, prefix string, opts ...Option) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	e := &Exporter{
		registry:  registry,
		predicate: metrics.All,
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	e.count, err = meter.Int64ObservableGauge(prefix+".count",
		metric.WithDescription("Counts of counters, meters and timers."))
	if err != nil {
		return nil, fmt.Errorf("create count gauge: %w", err)
	}

	e.value, err = meter.Float64ObservableGauge(prefix+".value",
		metric.WithDescription("Gauge values and distribution statistics."))
	if err != nil {
		return nil, fmt.Errorf("create value gauge: %w", err)
	}

	e.rate, err = meter.Float64ObservableGauge(prefix+".rate",
		metric.WithDescription("Event rates per rate unit."))
	if err != nil {
		return nil, fmt.Errorf("create rate gauge: %w", err)
	}

	e.registration, err = meter.RegisterCallback(e.observe, e.count, e.value, e.rate)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	return e, nil
}

func (e *Exporter) observe(ctx context.Context, observer metric.Observer) error {
	return e.registry.Report(ctx, e.predicate, &visitor{exporter: e, observer: observer})
}

func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

type visitor struct {
	exporter *Exporter
	observer metric.Observer
}

func (v *visitor) observeCount(name string, count int64) {
	v.observer.ObserveInt64(v.exporter.count, count,
		metric.WithAttributes(attribute.String("metric", name)))
}

func (v *visitor) observeValue(name, stat string, value float64) {
	v.observer.ObserveFloat64(v.exporter.value, value,
		metric.WithAttributes(attribute.String("metric", name), attribute.String("stat", stat)))
}

func (v *visitor) observeRates(name string, s metrics.MeterSnapshot) {
	for _, r := range []struct {
		window string
		value  float64
	}{
		{"mean", s.MeanRate},
		{"1m", s.Rate1},
		{"5m", s.Rate5},
		{"15m", s.Rate15},
	} {
		v.observer.ObserveFloat64(v.exporter.rate, r.value,
			metric.WithAttributes(attribute.String("metric", name), attribute.String("window", r.window)))
	}
}

func (v *visitor) VisitCounter(name string, count int64) {
	v.observeCount(name, count)
}

func (v *visitor) VisitGauge(name string, value float64) {
	v.observeValue(name, "value", value)
}

func (v *visitor) VisitMeter(name string, s metrics.MeterSnapshot) {
	v.observeCount(name, s.Count)
	v.observeRates(name, s)
}

func (v *visitor) VisitHistogram(name string, s metrics.HistogramSnapshot) {
	v.observeCount(name, s.Count)
	v.observeValue(name, "min", float64(s.Min))
	v.observeValue(name, "max", float64(s.Max))
	v.observeValue(name, "mean", s.Mean)
	v.observeValue(name, "stddev", s.StdDev)
	for _, q := range quantiles {
		v.observeValue(name, quantileStat(q), s.Quantile(q))
	}
}

func (v *visitor) VisitTimer(name string, s metrics.TimerSnapshot) {
	v.observeCount(name, s.Count)
	v.observeValue(name, "min", s.Min)
	v.observeValue(name, "max", s.Max)
	v.observeValue(name, "mean", s.Mean)
	v.observeValue(name, "stddev", s.StdDev)
	for _, q := range quantiles {
		v.observeValue(name, quantileStat(q), s.Quantile(q))
	}
	v.observeRates(name, s.Rate)
}

// quantileStat renders 0.95 as "p95" and 0.999 as "p99.9".
func quantileStat(q float64) string {
	return "p" + strconv.FormatFloat(q*100, 'f', -1, 64)
}
