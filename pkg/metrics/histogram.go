package metrics

import "context"

// Histogram tracks the distribution of int64 values: exact count, min, max,
// mean and standard deviation, and quantiles from a bounded reservoir.
type Histogram struct {
	actor
	state histogramState
}

func NewHistogram(opts ...Option) *Histogram {
	o := buildOptions("histogram", opts)

	return &Histogram{
		actor: newActor(o),
		state: newHistogramState(o.newSample()),
	}
}

func (h *Histogram) Update(value int64) {
	h.tell(func() {
		h.state.update(value)
	})
}

func (h *Histogram) GetCount(cb func(int64)) {
	h.tell(func() {
		cb(h.state.count)
	})
}

func (h *Histogram) GetMean(cb func(float64)) {
	h.tell(func() {
		cb(h.state.mean())
	})
}

func (h *Histogram) GetMin(cb func(int64)) {
	h.tell(func() {
		cb(h.state.min)
	})
}

func (h *Histogram) GetMax(cb func(int64)) {
	h.tell(func() {
		cb(h.state.max)
	})
}

func (h *Histogram) GetStandardDeviation(cb func(float64)) {
	h.tell(func() {
		cb(h.state.stdDev())
	})
}

func (h *Histogram) GetSnapshot(cb func(HistogramSnapshot)) {
	h.tell(func() {
		cb(h.state.snapshot())
	})
}

func (h *Histogram) Count(ctx context.Context) (int64, error) {
	return ask(ctx, &h.actor, func() int64 {
		return h.state.count
	})
}

func (h *Histogram) Mean(ctx context.Context) (float64, error) {
	return ask(ctx, &h.actor, h.state.mean)
}

func (h *Histogram) StandardDeviation(ctx context.Context) (float64, error) {
	return ask(ctx, &h.actor, h.state.stdDev)
}

func (h *Histogram) Snapshot(ctx context.Context) (HistogramSnapshot, error) {
	return ask(ctx, &h.actor, h.state.snapshot)
}

func (h *Histogram) Clear() {
	h.tell(h.state.clear)
}

func (h *Histogram) report(ctx context.Context) (func(Visitor), error) {
	snapshot, err := h.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return func(v Visitor) {
		v.VisitHistogram(h.name, snapshot)
	}, nil
}
