package sample_test

import (
	"context"
	"math/rand/v2"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/asyncmetrics/pkg/clock"
	"github.com/angeloszaimis/asyncmetrics/pkg/sample"
)

func seeded() sample.Option {
	return sample.WithRand(rand.New(rand.NewPCG(7, 11)))
}

func countOf(values []int64, v int64) int {
	n := 0
	for _, x := range values {
		if x == v {
			n++
		}
	}
	return n
}

var _ = Describe("Uniform", func() {
	It("should keep every value until it is full", func() {
		u := sample.NewUniform(10, seeded())
		for i := int64(0); i < 5; i++ {
			u.Update(i)
		}

		Expect(u.Size()).To(Equal(5))
		Expect(u.Count()).To(Equal(int64(5)))
		Expect(u.Snapshot().Values()).To(Equal([]int64{0, 1, 2, 3, 4}))
	})

	It("should cap its size at the reservoir size", func() {
		u := sample.NewUniform(100, seeded())
		for i := int64(0); i < 1000; i++ {
			u.Update(i)
		}

		Expect(u.Size()).To(Equal(100))
		Expect(u.Count()).To(Equal(int64(1000)))
		for _, v := range u.Snapshot().Values() {
			Expect(v).To(BeNumerically(">=", 0))
			Expect(v).To(BeNumerically("<", 1000))
		}
	})

	It("should sample the whole stream evenly", func() {
		u := sample.NewUniform(1000, seeded())
		for i := int64(0); i < 100_000; i++ {
			u.Update(i)
		}

		Expect(u.Snapshot().Mean()).To(BeNumerically("~", 50_000, 5_000))
	})

	It("should forget everything on Clear", func() {
		u := sample.NewUniform(10, seeded())
		u.Update(1)
		u.Clear()

		Expect(u.Size()).To(BeZero())
		Expect(u.Count()).To(BeZero())
	})
})

var _ = Describe("ExpDecay", func() {
	var (
		start time.Time
		clk   *clock.Manual
	)

	BeforeEach(func() {
		start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		clk = clock.NewManual(start)
	})

	It("should cap its size at the reservoir size", func() {
		e := sample.NewExpDecay(100, 0.99, seeded(), sample.WithClock(clk))
		for i := int64(0); i < 1000; i++ {
			e.Update(i)
		}

		Expect(e.Size()).To(Equal(100))
		Expect(e.Count()).To(Equal(int64(1000)))
	})

	It("should keep all values of a short stream", func() {
		e := sample.NewExpDecay(100, sample.DefaultAlpha, seeded(), sample.WithClock(clk))
		for i := int64(0); i < 10; i++ {
			e.Update(i)
		}

		Expect(e.Size()).To(Equal(10))
		Expect(e.Snapshot().Values()).To(Equal([]int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
	})

	It("should favour recent values", func() {
		e := sample.NewExpDecay(100, sample.DefaultAlpha, seeded(), sample.WithClock(clk))
		for i := 0; i < 1000; i++ {
			e.Update(1)
		}

		clk.Advance(10 * time.Minute)
		for i := 0; i < 1000; i++ {
			e.Update(2)
		}

		recent := 0
		for _, v := range e.Snapshot().Values() {
			if v == 2 {
				recent++
			}
		}
		Expect(recent).To(BeNumerically(">=", 95))
	})

	It("should move its landmark once the rescale threshold passes", func() {
		e := sample.NewExpDecay(100, sample.DefaultAlpha, seeded(), sample.WithClock(clk))
		for i := int64(0); i < 50; i++ {
			e.Update(i)
		}
		Expect(e.StartTime()).To(Equal(start))

		clk.Advance(2 * time.Hour)
		e.Update(99)

		Expect(e.StartTime()).To(Equal(start.Add(2 * time.Hour)))
		Expect(e.Size()).To(Equal(51))
		Expect(e.Count()).To(Equal(int64(51)))
	})

	It("should keep its size and recency bias across a rescale", func() {
		e := sample.NewExpDecay(100, sample.DefaultAlpha, seeded(), sample.WithClock(clk))
		for i := 0; i < 100; i++ {
			e.Update(1)
		}

		clk.Advance(50 * time.Minute)
		for i := 0; i < 50; i++ {
			e.Update(2)
		}
		Expect(e.Size()).To(Equal(100))
		Expect(countOf(e.Snapshot().Values(), 1)).To(Equal(50))

		clk.Advance(20 * time.Minute)
		for i := 0; i < 50; i++ {
			e.Update(3)
		}

		values := e.Snapshot().Values()
		Expect(e.StartTime()).To(Equal(start.Add(70 * time.Minute)))
		Expect(e.Size()).To(Equal(100))
		Expect(countOf(values, 1)).To(BeZero())
		Expect(countOf(values, 2)).To(Equal(50))
		Expect(countOf(values, 3)).To(Equal(50))
	})

	It("should keep accepting updates with a large alpha", func() {
		e := sample.NewExpDecay(10, 1.0, seeded(), sample.WithClock(clk))
		for i := 0; i < 10; i++ {
			e.Update(1)
		}

		clk.Advance(20 * time.Minute)
		for i := 0; i < 100; i++ {
			e.Update(2)
		}

		Expect(e.Count()).To(Equal(int64(110)))
		Expect(e.Size()).To(Equal(10))
		Expect(countOf(e.Snapshot().Values(), 2)).To(Equal(10))
	})

	It("should move its landmark to observations far ahead of it", func() {
		e := sample.NewExpDecay(10, 1.0, seeded(), sample.WithClock(clk))
		e.UpdateAt(5, start.Add(10*time.Minute))
		e.UpdateAt(6, start.Add(10*time.Minute))

		Expect(e.StartTime()).To(Equal(start.Add(10 * time.Minute)))
		Expect(e.Snapshot().Values()).To(ConsistOf(int64(5), int64(6)))
	})

	DescribeTable("RescalePeriod",
		func(alpha float64, want time.Duration) {
			Expect(sample.RescalePeriod(alpha)).To(Equal(want))
		},
		Entry("default alpha", sample.DefaultAlpha, sample.RescaleThreshold),
		Entry("small alpha", 0.001, sample.RescaleThreshold),
		Entry("alpha of one", 1.0, 100*time.Second),
		Entry("alpha of ten", 10.0, 10*time.Second),
	)

	It("should accept explicit observation times", func() {
		e := sample.NewExpDecay(10, sample.DefaultAlpha, seeded(), sample.WithClock(clk))
		e.UpdateAt(5, start.Add(time.Minute))

		Expect(e.Snapshot().Values()).To(Equal([]int64{5}))
	})

	It("should reset the landmark on Clear", func() {
		e := sample.NewExpDecay(10, sample.DefaultAlpha, seeded(), sample.WithClock(clk))
		e.Update(1)
		clk.Advance(time.Minute)
		e.Clear()

		Expect(e.Size()).To(BeZero())
		Expect(e.StartTime()).To(Equal(start.Add(time.Minute)))
	})
})

var _ = Describe("NewFactory", func() {
	It("should build fresh reservoirs per call", func() {
		factory, err := sample.NewFactory(sample.StrategyUniform, 10, 0)
		Expect(err).NotTo(HaveOccurred())

		a, b := factory(), factory()
		a.Update(1)

		Expect(a).To(BeAssignableToTypeOf(&sample.Uniform{}))
		Expect(b.Size()).To(BeZero())
	})

	It("should build decaying reservoirs", func() {
		factory, err := sample.NewFactory(sample.StrategyExpDecay, 10, sample.DefaultAlpha)
		Expect(err).NotTo(HaveOccurred())
		Expect(factory()).To(BeAssignableToTypeOf(&sample.ExpDecay{}))
	})

	It("should use the clock passed by the caller", func() {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		factory, err := sample.NewFactory(sample.StrategyExpDecay, 10, sample.DefaultAlpha)
		Expect(err).NotTo(HaveOccurred())

		r := factory(sample.WithClock(clock.NewManual(start)))
		Expect(r.(*sample.ExpDecay).StartTime()).To(Equal(start))
	})

	It("should prefer its own clock over the caller's", func() {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		own := clock.NewManual(start.Add(time.Hour))
		factory, err := sample.NewFactory(sample.StrategyExpDecay, 10, sample.DefaultAlpha, sample.WithClock(own))
		Expect(err).NotTo(HaveOccurred())

		r := factory(sample.WithClock(clock.NewManual(start)))
		Expect(r.(*sample.ExpDecay).StartTime()).To(Equal(start.Add(time.Hour)))
	})

	It("should reject unknown strategies", func() {
		_, err := sample.NewFactory("sliding", 10, 0)
		Expect(err).To(MatchError(sample.ErrUnknownStrategy))
	})
})

var _ = Describe("Async", func() {
	var async *sample.Async

	BeforeEach(func() {
		async = sample.NewAsync(sample.NewUniform(sample.DefaultSize))
		DeferCleanup(async.Close)
	})

	It("should apply updates before a later read", func() {
		for i := int64(1); i <= 100; i++ {
			async.Update(i)
		}

		snapshot, err := async.Snapshot(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshot.Size()).To(Equal(100))
		Expect(snapshot.Max()).To(Equal(int64(100)))
	})

	It("should deliver reads to callbacks", func() {
		async.Update(3)
		async.UpdateAt(4, time.Now())

		sizes := make(chan int, 1)
		async.GetSize(func(n int) { sizes <- n })

		Eventually(sizes).Should(Receive(Equal(2)))
	})

	It("should empty the reservoir on Clear", func() {
		async.Update(3)
		async.Clear()

		size, err := async.Size(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(size).To(BeZero())
	})
})
