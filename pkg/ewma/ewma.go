package ewma

import (
	"math"
	"time"

	"github.com/angeloszaimis/asyncmetrics/pkg/atomiccell"
)

// DefaultInterval is the tick period assumed by the standard constructors.
const DefaultInterval = 5 * time.Second

// EWMA is an exponentially weighted moving average of a rate.
type EWMA struct {
	alpha    float64
	interval time.Duration

	uncounted   atomiccell.PaddedInt64
	rate        atomiccell.Float64
	initialized atomiccell.Bool
}

// New creates an EWMA with the given smoothing constant, ticked every
// interval.
func New(alpha float64, interval time.Duration) *EWMA {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &EWMA{
		alpha:    alpha,
		interval: interval,
	}
}

// NewWindow derives alpha from an averaging window: 1 - exp(-interval/window).
func NewWindow(window, interval time.Duration) *EWMA {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return New(1-math.Exp(-interval.Seconds()/window.Seconds()), interval)
}

func OneMinute() *EWMA {
	return NewWindow(time.Minute, DefaultInterval)
}

func FiveMinute() *EWMA {
	return NewWindow(5*time.Minute, DefaultInterval)
}

func FifteenMinute() *EWMA {
	return NewWindow(15*time.Minute, DefaultInterval)
}

// Update records n events.
func (e *EWMA) Update(n int64) {
	e.uncounted.Add(n)
}

// Tick folds the events seen since the previous tick into the average.
func (e *EWMA) Tick() {
	count := e.uncounted.Exchange(0)
	instant := float64(count) / float64(e.interval.Nanoseconds())

	if !e.initialized.Get() {
		e.rate.Set(instant)
		e.initialized.Set(true)
		return
	}

	rate := e.rate.Get()
	e.rate.Set(rate + e.alpha*(instant-rate))
}

// Rate returns the average number of events per unit.
func (e *EWMA) Rate(unit time.Duration) float64 {
	return e.rate.Get() * float64(unit.Nanoseconds())
}

func (e *EWMA) Alpha() float64 {
	return e.alpha
}

func (e *EWMA) Interval() time.Duration {
	return e.interval
}

// Reset drops the average and any uncounted events.
func (e *EWMA) Reset() {
	e.uncounted.Set(0)
	e.rate.Set(0)
	e.initialized.Set(false)
}
