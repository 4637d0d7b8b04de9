package metrics

import (
	"time"

	"github.com/angeloszaimis/asyncmetrics/pkg/clock"
	"github.com/angeloszaimis/asyncmetrics/pkg/ewma"
	"github.com/angeloszaimis/asyncmetrics/pkg/mailbox"
	"github.com/angeloszaimis/asyncmetrics/pkg/sample"
)

type options struct {
	name         string
	executor     mailbox.Executor
	logger       mailbox.Logger
	throughput   int
	segmentSize  int
	clock        clock.Clock
	sample       sample.Factory
	durationUnit time.Duration
	rateUnit     time.Duration
	tickInterval time.Duration
}

// Option configures an instrument or, passed to NewRegistry, every
// instrument the registry creates.
type Option func(*options)

// WithName labels the instrument and its mailbox. Registries set it from
// the registration name.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithExecutor drains the instrument on a shared executor, typically a
// mailbox.Pool, instead of a dedicated goroutine.
func WithExecutor(executor mailbox.Executor) Option {
	return func(o *options) {
		o.executor = executor
	}
}

// WithLogger receives panics recovered from callbacks and gauge functions.
func WithLogger(logger mailbox.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithThroughput(n int) Option {
	return func(o *options) {
		o.throughput = n
	}
}

func WithSegmentSize(size int) Option {
	return func(o *options) {
		o.segmentSize = size
	}
}

func WithClock(clk clock.Clock) Option {
	return func(o *options) {
		if clk != nil {
			o.clock = clk
		}
	}
}

// WithSample selects the reservoir used by histograms and timers.
func WithSample(factory sample.Factory) Option {
	return func(o *options) {
		if factory != nil {
			o.sample = factory
		}
	}
}

// WithDurationUnit sets the unit timers report durations in.
func WithDurationUnit(unit time.Duration) Option {
	return func(o *options) {
		if unit > 0 {
			o.durationUnit = unit
		}
	}
}

// WithRateUnit sets the unit meters and timers report rates per.
func WithRateUnit(unit time.Duration) Option {
	return func(o *options) {
		if unit > 0 {
			o.rateUnit = unit
		}
	}
}

// WithTickInterval sets the cadence meters and timers are ticked at. It must
// match the interval of the Ticker driving them.
func WithTickInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.tickInterval = interval
		}
	}
}

func defaultSample(opts ...sample.Option) sample.Reservoir {
	return sample.NewExpDecay(sample.DefaultSize, sample.DefaultAlpha, opts...)
}

func buildOptions(kind string, opts []Option) options {
	o := options{
		name:         kind,
		clock:        clock.System,
		sample:       defaultSample,
		durationUnit: time.Millisecond,
		rateUnit:     time.Second,
		tickInterval: ewma.DefaultInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// newSample builds the instrument's reservoir on the instrument's clock.
func (o options) newSample() sample.Reservoir {
	return o.sample(sample.WithClock(o.clock))
}

func (o options) mailboxOptions() []mailbox.Option {
	mopts := []mailbox.Option{
		mailbox.WithName(o.name),
		mailbox.WithLogger(o.logger),
		mailbox.WithExecutor(o.executor),
	}
	if o.throughput > 0 {
		mopts = append(mopts, mailbox.WithThroughput(o.throughput))
	}
	if o.segmentSize > 0 {
		mopts = append(mopts, mailbox.WithSegmentSize(o.segmentSize))
	}
	return mopts
}
