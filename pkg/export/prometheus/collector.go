package prometheus

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angeloszaimis/asyncmetrics/pkg/metrics"
)

// DefaultQuantiles are exported for histograms and timers.
var DefaultQuantiles = []float64{0.5, 0.75, 0.95, 0.99, 0.999}

const defaultTimeout = 5 * time.Second

// Collector exports a metrics.Registry on every scrape.
type Collector struct {
	registry  *metrics.Registry
	namespace string
	predicate metrics.Predicate
	quantiles []float64
	timeout   time.Duration
	logger    *slog.Logger
}

type Option func(*Collector)

// WithPredicate limits the exported instruments.
func WithPredicate(predicate metrics.Predicate) Option {
	return func(c *Collector) {
		c.predicate = predicate
	}
}

func WithQuantiles(quantiles ...float64) Option {
	return func(c *Collector) {
		c.quantiles = quantiles
	}
}

// WithTimeout bounds how long one scrape waits for instrument actors.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Collector) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCollector(registry *metrics.Registry, namespace string, opts ...Option) *Collector {
	c := &Collector{
		registry:  registry,
		namespace: sanitize(namespace),
		predicate: metrics.All,
		quantiles: DefaultQuantiles,
		timeout:   defaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Describe sends nothing, which makes the collector unchecked: the set of
// instruments changes at runtime.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	v := &visitor{collector: c, ch: ch}
	if err := c.registry.Report(ctx, c.predicate, v); err != nil {
		c.logger.Warn("incomplete metrics scrape", slog.String("error", err.Error()))
	}
}

func (c *Collector) fqName(name, suffix string) string {
	return prometheus.BuildFQName(c.namespace, "", sanitize(name)+suffix)
}

type visitor struct {
	collector *Collector
	ch        chan<- prometheus.Metric
}

func (v *visitor) gauge(name, help string, value float64) {
	desc := prometheus.NewDesc(v.collector.fqName(name, ""), help, nil, nil)
	v.ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value)
}

func (v *visitor) rates(name string, s metrics.MeterSnapshot) {
	desc := prometheus.NewDesc(
		v.collector.fqName(name, "_rate"),
		"Event rate per "+s.RateUnit.String()+".",
		[]string{"window"}, nil,
	)
	v.ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, s.MeanRate, "mean")
	v.ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, s.Rate1, "1m")
	v.ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, s.Rate5, "5m")
	v.ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, s.Rate15, "15m")
}

func (v *visitor) VisitCounter(name string, count int64) {
	v.gauge(name, "Counter "+name+".", float64(count))
}

func (v *visitor) VisitGauge(name string, value float64) {
	v.gauge(name, "Gauge "+name+".", value)
}

func (v *visitor) VisitMeter(name string, s metrics.MeterSnapshot) {
	desc := prometheus.NewDesc(v.collector.fqName(name, "_total"), "Events marked on "+name+".", nil, nil)
	v.ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(s.Count))
	v.rates(name, s)
}

func (v *visitor) VisitHistogram(name string, s metrics.HistogramSnapshot) {
	quantiles := make(map[float64]float64, len(v.collector.quantiles))
	for _, q := range v.collector.quantiles {
		quantiles[q] = s.Quantile(q)
	}

	desc := prometheus.NewDesc(v.collector.fqName(name, ""), "Histogram "+name+".", nil, nil)
	v.ch <- prometheus.MustNewConstSummary(desc, uint64(s.Count), float64(s.Sum), quantiles)
}

func (v *visitor) VisitTimer(name string, s metrics.TimerSnapshot) {
	toSeconds := s.DurationUnit.Seconds()

	quantiles := make(map[float64]float64, len(v.collector.quantiles))
	for _, q := range v.collector.quantiles {
		quantiles[q] = s.Quantile(q) * toSeconds
	}
	sum := s.Mean * float64(s.Count) * toSeconds

	desc := prometheus.NewDesc(v.collector.fqName(name, "_seconds"), "Durations of "+name+".", nil, nil)
	v.ch <- prometheus.MustNewConstSummary(desc, uint64(s.Count), sum, quantiles)
	v.rates(name, s.Rate)
}

// sanitize maps a dotted instrument name onto [a-zA-Z0-9_:].
func sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
