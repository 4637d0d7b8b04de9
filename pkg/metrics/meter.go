package metrics

import (
	"context"
	"time"
)

// Meter measures the rate of events: a mean rate since creation and
// 1, 5 and 15 minute exponentially weighted rates.
type Meter struct {
	actor
	state    meterState
	rateUnit time.Duration
}

func NewMeter(opts ...Option) *Meter {
	o := buildOptions("meter", opts)

	return &Meter{
		actor:    newActor(o),
		state:    newMeterState(o.clock, o.tickInterval),
		rateUnit: o.rateUnit,
	}
}

func (m *Meter) Mark(n int64) {
	m.tell(func() {
		m.state.mark(n)
	})
}

// Tick advances the moving averages. Call it every ewma.DefaultInterval.
func (m *Meter) Tick() {
	m.tell(m.state.tick)
}

func (m *Meter) GetCount(cb func(int64)) {
	m.tell(func() {
		cb(m.state.count)
	})
}

func (m *Meter) GetSnapshot(cb func(MeterSnapshot)) {
	m.tell(func() {
		cb(m.state.snapshot(m.rateUnit))
	})
}

func (m *Meter) Count(ctx context.Context) (int64, error) {
	return ask(ctx, &m.actor, func() int64 {
		return m.state.count
	})
}

func (m *Meter) Snapshot(ctx context.Context) (MeterSnapshot, error) {
	return ask(ctx, &m.actor, func() MeterSnapshot {
		return m.state.snapshot(m.rateUnit)
	})
}

func (m *Meter) Clear() {
	m.tell(m.state.clear)
}

func (m *Meter) report(ctx context.Context) (func(Visitor), error) {
	snapshot, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return func(v Visitor) {
		v.VisitMeter(m.name, snapshot)
	}, nil
}
