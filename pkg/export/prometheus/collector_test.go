package prometheus_test

import (
	"io"
	"log/slog"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/angeloszaimis/asyncmetrics/pkg/metrics"
	exporter "github.com/angeloszaimis/asyncmetrics/pkg/export/prometheus"
)

var _ = Describe("Collector", func() {
	var (
		registry *metrics.Registry
		logger   *slog.Logger
	)

	BeforeEach(func() {
		registry = metrics.NewRegistry()
		DeferCleanup(registry.Close)
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

		registry.Counter("http.requests").Increment(16)
		registry.Gauge("queue.depth", func() float64 { return 3 })
		registry.Meter("jobs").Mark(4)
		registry.Histogram("payload.bytes").Update(512)

		latency := registry.Timer("http.latency")
		for _, ms := range []int64{10, 20, 20, 30, 40} {
			latency.Update(ms, time.Millisecond)
		}
	})

	It("should export every instrument", func() {
		collector := exporter.NewCollector(registry, "app", exporter.WithLogger(logger))

		// 1 counter, 1 gauge, meter total + 4 rates, 1 summary, timer summary + 4 rates
		Expect(testutil.CollectAndCount(collector)).To(Equal(13))
	})

	It("should expose counters as gauges under the namespace", func() {
		collector := exporter.NewCollector(registry, "app",
			exporter.WithPredicate(metrics.WithPrefix("http.requests")),
			exporter.WithLogger(logger),
		)

		expected := `
# HELP app_http_requests Counter http.requests.
# TYPE app_http_requests gauge
app_http_requests 16
`
		Expect(testutil.CollectAndCompare(collector, strings.NewReader(expected))).To(Succeed())
		Expect(testutil.ToFloat64(collector)).To(Equal(16.0))
	})

	It("should export timers as summaries in seconds", func() {
		promRegistry := prometheus.NewRegistry()
		promRegistry.MustRegister(exporter.NewCollector(registry, "app", exporter.WithLogger(logger)))

		families, err := promRegistry.Gather()
		Expect(err).NotTo(HaveOccurred())

		var found bool
		for _, family := range families {
			if family.GetName() != "app_http_latency_seconds" {
				continue
			}
			found = true

			summary := family.GetMetric()[0].GetSummary()
			Expect(summary.GetSampleCount()).To(Equal(uint64(5)))
			Expect(summary.GetSampleSum()).To(BeNumerically("~", 0.12, 1e-9))

			for _, q := range summary.GetQuantile() {
				if q.GetQuantile() == 0.5 {
					Expect(q.GetValue()).To(BeNumerically("~", 0.02, 1e-9))
				}
			}
		}
		Expect(found).To(BeTrue())
	})

	It("should label meter rates by window", func() {
		collector := exporter.NewCollector(registry, "",
			exporter.WithPredicate(metrics.WithPrefix("jobs")),
			exporter.WithLogger(logger),
		)

		Expect(testutil.CollectAndCount(collector, "jobs_total")).To(Equal(1))
		Expect(testutil.CollectAndCount(collector, "jobs_rate")).To(Equal(4))
	})

	It("should sanitize instrument names", func() {
		registry.Counter("9-lives.total")
		collector := exporter.NewCollector(registry, "",
			exporter.WithPredicate(metrics.WithPrefix("9-lives")),
			exporter.WithLogger(logger),
		)

		Expect(testutil.CollectAndCount(collector, "_9_lives_total")).To(Equal(1))
	})
})
