package sample

import "math/rand/v2"

// Uniform is a fixed-size reservoir using Vitter's Algorithm R.
type Uniform struct {
	size   int
	count  int64
	values []int64
	rng    *rand.Rand
}

// NewUniform creates a reservoir that holds at most size values.
func NewUniform(size int, opts ...Option) *Uniform {
	if size <= 0 {
		size = DefaultSize
	}

	cfg := buildConfig(opts)

	return &Uniform{
		size:   size,
		values: make([]int64, 0, size),
		rng:    cfg.rng,
	}
}

// Update offers value to the reservoir. Once full, the n-th value replaces a
// random slot with probability size/n.
func (u *Uniform) Update(value int64) {
	u.count++

	if len(u.values) < u.size {
		u.values = append(u.values, value)
		return
	}

	if r := u.rng.Int64N(u.count); r < int64(u.size) {
		u.values[r] = value
	}
}

func (u *Uniform) Size() int {
	return len(u.values)
}

func (u *Uniform) Count() int64 {
	return u.count
}

func (u *Uniform) Snapshot() Snapshot {
	return NewSnapshot(u.values)
}

func (u *Uniform) Clear() {
	u.count = 0
	u.values = u.values[:0]
}
