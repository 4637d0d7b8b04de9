package sample

import (
	"container/heap"
	"math"
	"math/rand/v2"
	"time"

	"github.com/angeloszaimis/asyncmetrics/pkg/clock"
)

// RescaleThreshold is how often ExpDecay renormalizes its priorities. Large
// alphas rescale sooner, see RescalePeriod.
const RescaleThreshold = time.Hour

const (
	maxCollisionRetries = 8

	// maxExponent bounds alpha*age so exp(alpha*age)/u stays finite for
	// every u the random source can return.
	maxExponent = 100.0
)

// RescalePeriod is how long a reservoir decaying with alpha may go between
// rescales: RescaleThreshold, or less when alpha would let the weights
// overflow first.
func RescalePeriod(alpha float64) time.Duration {
	if alpha <= 0 {
		return RescaleThreshold
	}

	limit := maxExponent / alpha
	if limit >= RescaleThreshold.Seconds() {
		return RescaleThreshold
	}
	return time.Duration(limit * float64(time.Second))
}

type entry struct {
	priority float64
	value    int64
}

// priorityHeap is a min-heap on priority.
type priorityHeap []entry

func (h priorityHeap) Len() int           { return len(h) }
func (h priorityHeap) Less(i, j int) bool { return h[i].priority < h[j].priority }
func (h priorityHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *priorityHeap) Push(x any) {
	*h = append(*h, x.(entry))
}

func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// ExpDecay is a forward-decaying priority reservoir.
type ExpDecay struct {
	size        int
	alpha       float64
	period      time.Duration
	count       int64
	startTime   time.Time
	nextRescale time.Time
	entries     priorityHeap
	priorities  map[float64]struct{}
	clock       clock.Clock
	rng         *rand.Rand
}

// NewExpDecay creates a reservoir of at most size values decaying with alpha.
func NewExpDecay(size int, alpha float64, opts ...Option) *ExpDecay {
	if size <= 0 {
		size = DefaultSize
	}
	if alpha <= 0 {
		alpha = DefaultAlpha
	}

	cfg := buildConfig(opts)
	e := &ExpDecay{
		size:   size,
		alpha:  alpha,
		period: RescalePeriod(alpha),
		clock:  cfg.clock,
		rng:    cfg.rng,
	}
	e.reset(cfg.clock.Now())

	return e
}

func (e *ExpDecay) reset(now time.Time) {
	e.count = 0
	e.startTime = now
	e.nextRescale = now.Add(e.period)
	e.entries = make(priorityHeap, 0, e.size+1)
	e.priorities = make(map[float64]struct{}, e.size+1)
}

// Update records value at the current clock time.
func (e *ExpDecay) Update(value int64) {
	e.UpdateAt(value, e.clock.Now())
}

// UpdateAt records value observed at the given time.
func (e *ExpDecay) UpdateAt(value int64, at time.Time) {
	e.rescaleIfNeeded(e.clock.Now())
	if e.alpha*at.Sub(e.startTime).Seconds() > maxExponent {
		// observation far ahead of the landmark
		e.rescale(at)
	}
	e.count++

	weight := e.weight(at.Sub(e.startTime))

	for attempt := 0; attempt < maxCollisionRetries; attempt++ {
		priority := weight / e.uniform()

		if len(e.entries) >= e.size && priority <= e.entries[0].priority {
			// would be evicted straight away
			return
		}
		if _, taken := e.priorities[priority]; taken {
			continue
		}

		heap.Push(&e.entries, entry{priority: priority, value: value})
		e.priorities[priority] = struct{}{}

		for len(e.entries) > e.size {
			evicted := heap.Pop(&e.entries).(entry)
			delete(e.priorities, evicted.priority)
		}
		return
	}
}

func (e *ExpDecay) weight(age time.Duration) float64 {
	return math.Exp(e.alpha * age.Seconds())
}

// uniform draws from (0, 1].
func (e *ExpDecay) uniform() float64 {
	return 1 - e.rng.Float64()
}

func (e *ExpDecay) rescaleIfNeeded(now time.Time) {
	if now.Before(e.nextRescale) {
		return
	}
	e.rescale(now)
}

// rescale moves the landmark to now. Multiplying every priority by the same
// positive factor keeps the heap ordered.
func (e *ExpDecay) rescale(now time.Time) {
	factor := math.Exp(-e.alpha * now.Sub(e.startTime).Seconds())

	e.startTime = now
	e.nextRescale = now.Add(e.period)

	clear(e.priorities)
	for i := range e.entries {
		e.entries[i].priority *= factor
		e.priorities[e.entries[i].priority] = struct{}{}
	}
}

func (e *ExpDecay) Size() int {
	return len(e.entries)
}

func (e *ExpDecay) Count() int64 {
	return e.count
}

// Snapshot copies the sampled values, ignoring their priorities.
func (e *ExpDecay) Snapshot() Snapshot {
	values := make([]int64, len(e.entries))
	for i, en := range e.entries {
		values[i] = en.value
	}
	return NewSnapshot(values)
}

func (e *ExpDecay) Clear() {
	e.reset(e.clock.Now())
}

// StartTime returns the current forward-decay landmark.
func (e *ExpDecay) StartTime() time.Time {
	return e.startTime
}
