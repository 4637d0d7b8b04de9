package sample

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/angeloszaimis/asyncmetrics/pkg/clock"
)

const (
	// DefaultSize matches the reservoir size commonly used for 99.9%
	// confidence with a 5% margin of error on a normal distribution.
	DefaultSize = 1028

	// DefaultAlpha gives the decaying reservoir a bias toward roughly the
	// last five minutes.
	DefaultAlpha = 0.015

	StrategyUniform  = "uniform"
	StrategyExpDecay = "exp_decay"
)

var ErrUnknownStrategy = errors.New("sample: unknown strategy")

// Reservoir is a bounded sample of a value stream. Implementations are not
// safe for concurrent use; wrap them in Async or own them from an actor.
type Reservoir interface {
	Update(value int64)
	// Size is the number of values currently held.
	Size() int
	// Count is the number of values offered since the last Clear.
	Count() int64
	Snapshot() Snapshot
	Clear()
}

// TimedReservoir accepts an explicit observation time.
type TimedReservoir interface {
	Reservoir
	UpdateAt(value int64, at time.Time)
}

// Factory builds a fresh reservoir for each instrument. Options passed by
// the caller are applied before the factory's own, so a clock given to
// NewFactory wins over the instrument's.
type Factory func(opts ...Option) Reservoir

type config struct {
	rng   *rand.Rand
	clock clock.Clock
}

// Option configures a reservoir.
type Option func(*config)

// WithRand injects the random source, for deterministic tests. The source
// is not safe for concurrent use, so a Factory built with it must only feed
// reservoirs owned by the same goroutine.
func WithRand(rng *rand.Rand) Option {
	return func(c *config) {
		c.rng = rng
	}
}

// WithClock injects the clock used by ExpDecay.
func WithClock(clk clock.Clock) Option {
	return func(c *config) {
		c.clock = clk
	}
}

func buildConfig(opts []Option) config {
	c := config{clock: clock.System}
	for _, opt := range opts {
		opt(&c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return c
}

// NewFactory returns a Factory for the named strategy.
func NewFactory(strategy string, size int, alpha float64, opts ...Option) (Factory, error) {
	switch strategy {
	case StrategyUniform:
		return func(extra ...Option) Reservoir {
			return NewUniform(size, slices.Concat(extra, opts)...)
		}, nil
	case StrategyExpDecay:
		return func(extra ...Option) Reservoir {
			return NewExpDecay(size, alpha, slices.Concat(extra, opts)...)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}
