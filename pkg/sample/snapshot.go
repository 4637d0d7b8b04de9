package sample

import (
	"math"
	"sort"
)

// Snapshot is an immutable sorted view of a sample. It is safe to share
// across goroutines.
type Snapshot struct {
	values []int64
}

// NewSnapshot copies and sorts values.
func NewSnapshot(values []int64) Snapshot {
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	return Snapshot{values: sorted}
}

func (s Snapshot) Size() int {
	return len(s.values)
}

// Values returns a sorted copy of the sampled values.
func (s Snapshot) Values() []int64 {
	out := make([]int64, len(s.values))
	copy(out, s.values)
	return out
}

// Quantile interpolates the value at quantile q in [0, 1]. It returns 0 for
// an empty snapshot and NaN for an invalid q.
func (s Snapshot) Quantile(q float64) float64 {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return math.NaN()
	}

	n := len(s.values)
	if n == 0 {
		return 0
	}

	pos := q * float64(n+1)
	if pos < 1 {
		return float64(s.values[0])
	}
	if pos >= float64(n) {
		return float64(s.values[n-1])
	}

	lower := float64(s.values[int(pos)-1])
	upper := float64(s.values[int(pos)])

	return lower + (pos-math.Floor(pos))*(upper-lower)
}

func (s Snapshot) Median() float64 { return s.Quantile(0.5) }
func (s Snapshot) P75() float64    { return s.Quantile(0.75) }
func (s Snapshot) P95() float64    { return s.Quantile(0.95) }
func (s Snapshot) P98() float64    { return s.Quantile(0.98) }
func (s Snapshot) P99() float64    { return s.Quantile(0.99) }
func (s Snapshot) P999() float64   { return s.Quantile(0.999) }

func (s Snapshot) Min() int64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[0]
}

func (s Snapshot) Max() int64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[len(s.values)-1]
}

func (s Snapshot) Mean() float64 {
	if len(s.values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range s.values {
		sum += float64(v)
	}

	return sum / float64(len(s.values))
}

// StdDev is the sample standard deviation of the sampled values.
func (s Snapshot) StdDev() float64 {
	n := len(s.values)
	if n < 2 {
		return 0
	}

	mean := s.Mean()
	var sum float64
	for _, v := range s.values {
		d := float64(v) - mean
		sum += d * d
	}

	return math.Sqrt(sum / float64(n-1))
}
