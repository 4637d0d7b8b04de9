package atomiccell

import (
	"math"
	"sync/atomic"
)

const cacheLineSize = 64

// Int64 is an atomically accessed int64. The zero value is ready to use.
type Int64 struct {
	v atomic.Int64
}

// NewInt64 returns a cell holding initial.
func NewInt64(initial int64) *Int64 {
	c := &Int64{}
	c.v.Store(initial)
	return c
}

func (c *Int64) Get() int64 {
	return c.v.Load()
}

func (c *Int64) Set(value int64) {
	c.v.Store(value)
}

// Exchange stores value and returns the previous value.
func (c *Int64) Exchange(value int64) int64 {
	return c.v.Swap(value)
}

// CompareExchange stores value if the cell holds expected. It returns the
// value observed before the operation, so the swap happened iff the result
// equals expected.
func (c *Int64) CompareExchange(expected, value int64) int64 {
	for {
		if c.v.CompareAndSwap(expected, value) {
			return expected
		}
		current := c.v.Load()
		if current != expected {
			return current
		}
	}
}

// Add adds delta and returns the new value.
func (c *Int64) Add(delta int64) int64 {
	return c.v.Add(delta)
}

// Increment adds one and returns the new value.
func (c *Int64) Increment() int64 {
	return c.v.Add(1)
}

// Decrement subtracts one and returns the new value.
func (c *Int64) Decrement() int64 {
	return c.v.Add(-1)
}

// PaddedInt64 is an Int64 that fills a cache line.
type PaddedInt64 struct {
	Int64
	_ [cacheLineSize - 8]byte
}

// Float64 stores a float64 as its IEEE-754 bit pattern.
type Float64 struct {
	bits atomic.Uint64
}

// NewFloat64 returns a cell holding initial.
func NewFloat64(initial float64) *Float64 {
	c := &Float64{}
	c.Set(initial)
	return c
}

func (c *Float64) Get() float64 {
	return math.Float64frombits(c.bits.Load())
}

func (c *Float64) Set(value float64) {
	c.bits.Store(math.Float64bits(value))
}

func (c *Float64) Exchange(value float64) float64 {
	return math.Float64frombits(c.bits.Swap(math.Float64bits(value)))
}

// CompareExchange compares bit patterns, so NaN only matches the identical
// NaN payload and 0.0 does not match -0.0.
func (c *Float64) CompareExchange(expected, value float64) float64 {
	exp, val := math.Float64bits(expected), math.Float64bits(value)
	for {
		if c.bits.CompareAndSwap(exp, val) {
			return expected
		}
		current := c.bits.Load()
		if current != exp {
			return math.Float64frombits(current)
		}
	}
}

// Add adds delta with a CAS loop and returns the new value.
func (c *Float64) Add(delta float64) float64 {
	for {
		old := c.bits.Load()
		next := math.Float64frombits(old) + delta
		if c.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// Bool is an atomically accessed flag.
type Bool struct {
	v atomic.Bool
}

func (c *Bool) Get() bool {
	return c.v.Load()
}

func (c *Bool) Set(value bool) {
	c.v.Store(value)
}

func (c *Bool) Exchange(value bool) bool {
	return c.v.Swap(value)
}

// CompareExchange returns the value observed before the operation.
func (c *Bool) CompareExchange(expected, value bool) bool {
	if c.v.CompareAndSwap(expected, value) {
		return expected
	}
	return !expected
}

// Ref is an atomically accessed reference. CompareExchange compares pointer
// identity, not the pointed-to values.
type Ref[T any] struct {
	p atomic.Pointer[T]
}

// NewRef returns a cell holding initial.
func NewRef[T any](initial *T) *Ref[T] {
	c := &Ref[T]{}
	c.p.Store(initial)
	return c
}

func (c *Ref[T]) Get() *T {
	return c.p.Load()
}

func (c *Ref[T]) Set(value *T) {
	c.p.Store(value)
}

func (c *Ref[T]) Exchange(value *T) *T {
	return c.p.Swap(value)
}

func (c *Ref[T]) CompareExchange(expected, value *T) *T {
	for {
		if c.p.CompareAndSwap(expected, value) {
			return expected
		}
		current := c.p.Load()
		if current != expected {
			return current
		}
	}
}
