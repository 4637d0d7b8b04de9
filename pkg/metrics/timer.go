package metrics

import (
	"context"
	"time"

	"github.com/angeloszaimis/asyncmetrics/pkg/clock"
	"github.com/angeloszaimis/asyncmetrics/pkg/sample"
)

// Timer combines a histogram of durations with a meter of their rate.
// Durations are stored in nanoseconds and reported in the duration unit.
type Timer struct {
	actor
	clock        clock.Clock
	durationUnit time.Duration
	rateUnit     time.Duration
	histogram    histogramState
	meter        meterState
}

// NewTimer creates a timer reporting durations in durationUnit and rates per
// rateUnit. A nil factory selects an exponentially decaying reservoir and a
// nil clock the system clock.
func NewTimer(durationUnit, rateUnit time.Duration, factory sample.Factory, clk clock.Clock, opts ...Option) *Timer {
	opts = append(append([]Option{}, opts...),
		WithDurationUnit(durationUnit),
		WithRateUnit(rateUnit),
		WithSample(factory),
		WithClock(clk),
	)

	return newTimer(buildOptions("timer", opts))
}

func newTimer(o options) *Timer {
	return &Timer{
		actor:        newActor(o),
		clock:        o.clock,
		durationUnit: o.durationUnit,
		rateUnit:     o.rateUnit,
		histogram:    newHistogramState(o.newSample()),
		meter:        newMeterState(o.clock, o.tickInterval),
	}
}

// Update records value expressed in unit.
func (t *Timer) Update(value int64, unit time.Duration) {
	t.UpdateDuration(time.Duration(value) * unit)
}

// UpdateDuration records d. Negative durations are ignored.
func (t *Timer) UpdateDuration(d time.Duration) {
	if d < 0 {
		return
	}

	t.tell(func() {
		t.histogram.update(int64(d))
		t.meter.mark(1)
	})
}

// Time runs fn on the calling goroutine and records how long it took, even
// if fn panics.
func (t *Timer) Time(fn func()) {
	stopwatch := t.Start()
	defer stopwatch.Stop()

	fn()
}

// TimeValue runs fn on the calling goroutine, records its duration on t and
// returns its result.
func TimeValue[T any](t *Timer, fn func() T) T {
	stopwatch := t.Start()
	defer stopwatch.Stop()

	return fn()
}

// Stopwatch measures one timed section.
type Stopwatch struct {
	timer *Timer
	start time.Time
}

func (t *Timer) Start() Stopwatch {
	return Stopwatch{timer: t, start: t.clock.Now()}
}

// Stop records and returns the elapsed time.
func (s Stopwatch) Stop() time.Duration {
	elapsed := s.timer.clock.Now().Sub(s.start)
	s.timer.UpdateDuration(elapsed)
	return elapsed
}

// Tick advances the rate averages. Call it every ewma.DefaultInterval.
func (t *Timer) Tick() {
	t.tell(t.meter.tick)
}

func (t *Timer) GetCount(cb func(int64)) {
	t.tell(func() {
		cb(t.histogram.count)
	})
}

// GetMean delivers the mean duration in the duration unit.
func (t *Timer) GetMean(cb func(float64)) {
	t.tell(func() {
		cb(t.histogram.mean() / float64(t.durationUnit))
	})
}

func (t *Timer) GetMin(cb func(float64)) {
	t.tell(func() {
		cb(float64(t.histogram.min) / float64(t.durationUnit))
	})
}

func (t *Timer) GetMax(cb func(float64)) {
	t.tell(func() {
		cb(float64(t.histogram.max) / float64(t.durationUnit))
	})
}

func (t *Timer) GetStandardDeviation(cb func(float64)) {
	t.tell(func() {
		cb(t.histogram.stdDev() / float64(t.durationUnit))
	})
}

func (t *Timer) GetSnapshot(cb func(TimerSnapshot)) {
	t.tell(func() {
		cb(t.snapshot())
	})
}

func (t *Timer) Count(ctx context.Context) (int64, error) {
	return ask(ctx, &t.actor, func() int64 {
		return t.histogram.count
	})
}

func (t *Timer) Snapshot(ctx context.Context) (TimerSnapshot, error) {
	return ask(ctx, &t.actor, t.snapshot)
}

func (t *Timer) Clear() {
	t.tell(func() {
		t.histogram.clear()
		t.meter.clear()
	})
}

func (t *Timer) DurationUnit() time.Duration {
	return t.durationUnit
}

func (t *Timer) snapshot() TimerSnapshot {
	return newTimerSnapshot(t.histogram.snapshot(), t.meter.snapshot(t.rateUnit), t.durationUnit)
}

func (t *Timer) report(ctx context.Context) (func(Visitor), error) {
	snapshot, err := t.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return func(v Visitor) {
		v.VisitTimer(t.name, snapshot)
	}, nil
}
