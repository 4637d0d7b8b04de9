// Loadgen hammers an in-process metrics registry from concurrent producers
// and reports producer throughput and what the instruments observed.
//
// Usage:
//
//	go run ./scripts/loadgen -producers 16 -ops 100000 -instruments 8
//	go run ./scripts/loadgen -executor dedicated -sample uniform -out summary.json
//
// Every producer round-robins over the instruments, issuing one counter
// increment, one histogram update, one meter mark and one timed section per
// operation. The run fails if any counter disagrees with what was sent.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/asyncmetrics/pkg/mailbox"
	"github.com/angeloszaimis/asyncmetrics/pkg/metrics"
	"github.com/angeloszaimis/asyncmetrics/pkg/sample"
)

type instrumentSet struct {
	counter   *metrics.Counter
	histogram *metrics.Histogram
	meter     *metrics.Meter
	timer     *metrics.Timer
}

type summary struct {
	Producers    int                              `json:"producers"`
	Ops          int                              `json:"ops_per_producer"`
	Instruments  int                              `json:"instruments"`
	Executor     string                           `json:"executor"`
	Sample       string                           `json:"sample"`
	GoMaxProcs   int                              `json:"gomaxprocs"`
	SendDuration string                           `json:"send_duration"`
	DrainLatency string                           `json:"drain_duration"`
	MessagesSec  float64                          `json:"messages_per_sec"`
	Counters     map[string]int64                 `json:"counters"`
	Timers       map[string]metrics.TimerSnapshot `json:"timers"`
}

type collector struct {
	counters map[string]int64
	timers   map[string]metrics.TimerSnapshot
}

func (c *collector) VisitCounter(name string, count int64) {
	c.counters[name] = count
}

func (c *collector) VisitTimer(name string, snapshot metrics.TimerSnapshot) {
	c.timers[name] = snapshot
}

func (c *collector) VisitGauge(string, float64)                       {}
func (c *collector) VisitMeter(string, metrics.MeterSnapshot)         {}
func (c *collector) VisitHistogram(string, metrics.HistogramSnapshot) {}

func main() {
	var (
		producers   = flag.Int("producers", runtime.GOMAXPROCS(0), "Number of concurrent producers")
		ops         = flag.Int("ops", 10000, "Operations per producer")
		instruments = flag.Int("instruments", 4, "Number of instrument sets")
		executor    = flag.String("executor", "pool", "Executor: pool or dedicated")
		poolSize    = flag.Int("pool-size", runtime.GOMAXPROCS(0), "Workers when -executor=pool")
		strategy    = flag.String("sample", sample.StrategyExpDecay, "Reservoir: uniform or exp_decay")
		outJSON     = flag.String("out", "", "Write JSON summary to this file (optional)")
	)
	flag.Parse()

	factory, err := sample.NewFactory(*strategy, sample.DefaultSize, sample.DefaultAlpha)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid sample: %v\n", err)
		os.Exit(1)
	}

	opts := []metrics.Option{metrics.WithSample(factory)}
	var pool *mailbox.Pool
	switch *executor {
	case "pool":
		pool = mailbox.NewPool(*poolSize)
		opts = append(opts, metrics.WithExecutor(pool))
	case "dedicated":
	default:
		fmt.Fprintf(os.Stderr, "unknown executor %q\n", *executor)
		os.Exit(1)
	}

	registry := metrics.NewRegistry(opts...)
	sets := make([]instrumentSet, *instruments)
	for i := range sets {
		prefix := fmt.Sprintf("set%02d.", i)
		sets[i] = instrumentSet{
			counter:   registry.Counter(prefix + "ops"),
			histogram: registry.Histogram(prefix + "values"),
			meter:     registry.Meter(prefix + "marks"),
			timer:     registry.Timer(prefix + "sections"),
		}
	}

	start := time.Now()

	var g errgroup.Group
	for p := 0; p < *producers; p++ {
		g.Go(func() error {
			for op := 0; op < *ops; op++ {
				set := sets[(p+op)%len(sets)]
				set.counter.Inc()
				set.histogram.Update(int64(op))
				set.meter.Mark(1)
				set.timer.Time(func() {})
			}
			return nil
		})
	}
	_ = g.Wait()
	sent := time.Since(start)

	c := &collector{counters: make(map[string]int64), timers: make(map[string]metrics.TimerSnapshot)}
	if err := registry.Report(context.Background(), metrics.All, c); err != nil {
		fmt.Fprintf(os.Stderr, "report failed: %v\n", err)
		os.Exit(1)
	}
	drained := time.Since(start)

	registry.Close()
	if pool != nil {
		pool.Close()
	}

	messages := float64(*producers) * float64(*ops) * 4
	s := summary{
		Producers:    *producers,
		Ops:          *ops,
		Instruments:  *instruments,
		Executor:     *executor,
		Sample:       *strategy,
		GoMaxProcs:   runtime.GOMAXPROCS(0),
		SendDuration: sent.String(),
		DrainLatency: drained.String(),
		MessagesSec:  messages / drained.Seconds(),
		Counters:     c.counters,
		Timers:       c.timers,
	}

	var total int64
	for _, n := range c.counters {
		total += n
	}

	fmt.Printf("producers=%d ops=%d instruments=%d executor=%s sample=%s\n",
		s.Producers, s.Ops, s.Instruments, s.Executor, s.Sample)
	fmt.Printf("sent in %s, drained in %s, %.0f messages/sec\n", sent, drained, s.MessagesSec)
	fmt.Printf("counted %d of %d operations\n", total, *producers**ops)

	if *outJSON != "" {
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to marshal summary: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*outJSON, b, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write summary: %v\n", err)
			os.Exit(1)
		}
	}

	if total != int64(*producers**ops) {
		fmt.Fprintln(os.Stderr, "lost operations")
		os.Exit(1)
	}
}
