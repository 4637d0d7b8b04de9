package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrDuplicate    = errors.New("metrics: name already registered")
	ErrTypeMismatch = errors.New("metrics: name registered with another instrument type")
)

// reportConcurrency bounds how many instruments Report reads at once.
const reportConcurrency = 16

// Metric is an instrument that can be held by a Registry.
type Metric interface {
	Name() string
	Close()
	report(ctx context.Context) (func(Visitor), error)
}

// Tickable instruments keep moving averages advanced by a Ticker.
type Tickable interface {
	Tick()
}

// Visitor receives one callback per instrument from Report.
type Visitor interface {
	VisitCounter(name string, count int64)
	VisitGauge(name string, value float64)
	VisitMeter(name string, snapshot MeterSnapshot)
	VisitHistogram(name string, snapshot HistogramSnapshot)
	VisitTimer(name string, snapshot TimerSnapshot)
}

// Predicate selects the instruments Report visits.
type Predicate func(name string, m Metric) bool

// All selects every instrument.
func All(string, Metric) bool {
	return true
}

// WithPrefix selects instruments whose name starts with prefix.
func WithPrefix(prefix string) Predicate {
	return func(name string, _ Metric) bool {
		return strings.HasPrefix(name, prefix)
	}
}

// Registry maps names to instruments. Instruments created through it share
// the registry's options.
type Registry struct {
	mutex   sync.RWMutex
	metrics map[string]Metric
	opts    []Option
}

func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		metrics: make(map[string]Metric),
		opts:    opts,
	}
}

// TickInterval is the cadence the registry's meters and timers expect to be
// ticked at.
func (r *Registry) TickInterval() time.Duration {
	return buildOptions("", r.opts).tickInterval
}

func (r *Registry) options(kind, name string) options {
	return buildOptions(kind, append(append([]Option{}, r.opts...), WithName(name)))
}

func getOrCreate[M Metric](r *Registry, name string, build func() M) M {
	r.mutex.RLock()
	existing, exists := r.metrics[name]
	r.mutex.RUnlock()

	if exists {
		return mustBe[M](name, existing)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// another goroutine may have created it
	if existing, exists = r.metrics[name]; exists {
		return mustBe[M](name, existing)
	}

	m := build()
	r.metrics[name] = m
	return m
}

func mustBe[M Metric](name string, m Metric) M {
	typed, ok := m.(M)
	if !ok {
		panic(fmt.Errorf("%w: %q is a %T", ErrTypeMismatch, name, m))
	}
	return typed
}

// Counter returns the counter registered under name, creating it if needed.
// It panics if name holds another instrument type.
func (r *Registry) Counter(name string) *Counter {
	return getOrCreate(r, name, func() *Counter {
		return &Counter{actor: newActor(r.options("counter", name))}
	})
}

// Gauge returns the gauge registered under name. compute is only used when
// the gauge is created.
func (r *Registry) Gauge(name string, compute func() float64) *Gauge {
	return getOrCreate(r, name, func() *Gauge {
		return &Gauge{actor: newActor(r.options("gauge", name)), compute: compute}
	})
}

func (r *Registry) Meter(name string) *Meter {
	return getOrCreate(r, name, func() *Meter {
		o := r.options("meter", name)
		return &Meter{actor: newActor(o), state: newMeterState(o.clock, o.tickInterval), rateUnit: o.rateUnit}
	})
}

func (r *Registry) Histogram(name string) *Histogram {
	return getOrCreate(r, name, func() *Histogram {
		o := r.options("histogram", name)
		return &Histogram{actor: newActor(o), state: newHistogramState(o.newSample())}
	})
}

func (r *Registry) Timer(name string) *Timer {
	return getOrCreate(r, name, func() *Timer {
		return newTimer(r.options("timer", name))
	})
}

// Register adds an instrument built elsewhere under its own name.
func (r *Registry) Register(m Metric) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.metrics[m.Name()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, m.Name())
	}
	r.metrics[m.Name()] = m
	return nil
}

func (r *Registry) Get(name string) (Metric, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	m, ok := r.metrics[name]
	return m, ok
}

// Unregister removes and closes the instrument under name.
func (r *Registry) Unregister(name string) bool {
	r.mutex.Lock()
	m, ok := r.metrics[name]
	delete(r.metrics, name)
	r.mutex.Unlock()

	if ok {
		m.Close()
	}
	return ok
}

// Names returns the registered names in order.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Each calls fn for every instrument in name order.
func (r *Registry) Each(fn func(name string, m Metric)) {
	for _, entry := range r.selected(All) {
		fn(entry.name, entry.metric)
	}
}

type namedMetric struct {
	name   string
	metric Metric
}

func (r *Registry) selected(predicate Predicate) []namedMetric {
	r.mutex.RLock()
	entries := make([]namedMetric, 0, len(r.metrics))
	for name, m := range r.metrics {
		entries = append(entries, namedMetric{name: name, metric: m})
	}
	r.mutex.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].name < entries[j].name
	})

	selected := entries[:0]
	for _, entry := range entries {
		if predicate == nil || predicate(entry.name, entry.metric) {
			selected = append(selected, entry)
		}
	}
	return selected
}

// Report reads every instrument accepted by predicate and hands the values
// to visitor in name order, on the calling goroutine. Reads run
// concurrently on the instruments' actors. Instruments that fail to answer
// are skipped and their errors joined into the result.
func (r *Registry) Report(ctx context.Context, predicate Predicate, visitor Visitor) error {
	entries := r.selected(predicate)
	visits := make([]func(Visitor), len(entries))
	errs := make([]error, len(entries))

	var g errgroup.Group
	g.SetLimit(reportConcurrency)

	for i, entry := range entries {
		g.Go(func() error {
			visit, err := entry.metric.report(ctx)
			if err != nil {
				errs[i] = fmt.Errorf("report %q: %w", entry.name, err)
				return nil
			}
			visits[i] = visit
			return nil
		})
	}
	_ = g.Wait()

	for _, visit := range visits {
		if visit != nil {
			visit(visitor)
		}
	}

	return errors.Join(errs...)
}

// Tick advances every tickable instrument and returns how many were ticked.
func (r *Registry) Tick() int {
	ticked := 0
	r.Each(func(_ string, m Metric) {
		if t, ok := m.(Tickable); ok {
			t.Tick()
			ticked++
		}
	})
	return ticked
}

// Close closes and forgets every instrument.
func (r *Registry) Close() {
	r.mutex.Lock()
	metrics := r.metrics
	r.metrics = make(map[string]Metric)
	r.mutex.Unlock()

	for _, m := range metrics {
		m.Close()
	}
}
