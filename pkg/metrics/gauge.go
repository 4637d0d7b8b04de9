package metrics

import "context"

// Gauge reports an instantaneous value. With a compute function the value is
// evaluated on the gauge's actor at read time; otherwise it is the last
// value passed to Update.
type Gauge struct {
	actor
	compute func() float64
	value   float64
}

// NewGauge creates a gauge. compute may be nil.
func NewGauge(compute func() float64, opts ...Option) *Gauge {
	return &Gauge{
		actor:   newActor(buildOptions("gauge", opts)),
		compute: compute,
	}
}

// Update stores value. It is ignored while a compute function is set.
func (g *Gauge) Update(value float64) {
	g.tell(func() {
		g.value = value
	})
}

func (g *Gauge) read() float64 {
	if g.compute != nil {
		return g.compute()
	}
	return g.value
}

func (g *Gauge) GetValue(cb func(float64)) {
	g.tell(func() {
		cb(g.read())
	})
}

// Value waits for the current value. A panicking compute function is
// reported as an error.
func (g *Gauge) Value(ctx context.Context) (float64, error) {
	return ask(ctx, &g.actor, g.read)
}

func (g *Gauge) report(ctx context.Context) (func(Visitor), error) {
	value, err := g.Value(ctx)
	if err != nil {
		return nil, err
	}
	return func(v Visitor) {
		v.VisitGauge(g.name, value)
	}, nil
}
