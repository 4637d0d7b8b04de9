package metrics

import (
	"math"
	"time"

	"github.com/angeloszaimis/asyncmetrics/pkg/clock"
	"github.com/angeloszaimis/asyncmetrics/pkg/ewma"
	"github.com/angeloszaimis/asyncmetrics/pkg/sample"
)

// The state types below are only touched from an instrument's actor.

type meterState struct {
	clock clock.Clock
	start time.Time
	count int64
	m1    *ewma.EWMA
	m5    *ewma.EWMA
	m15   *ewma.EWMA
}

func newMeterState(clk clock.Clock, interval time.Duration) meterState {
	return meterState{
		clock: clk,
		start: clk.Now(),
		m1:    ewma.NewWindow(time.Minute, interval),
		m5:    ewma.NewWindow(5*time.Minute, interval),
		m15:   ewma.NewWindow(15*time.Minute, interval),
	}
}

func (m *meterState) mark(n int64) {
	m.count += n
	m.m1.Update(n)
	m.m5.Update(n)
	m.m15.Update(n)
}

func (m *meterState) tick() {
	m.m1.Tick()
	m.m5.Tick()
	m.m15.Tick()
}

func (m *meterState) meanRate(unit time.Duration) float64 {
	elapsed := m.clock.Now().Sub(m.start)
	if m.count == 0 || elapsed <= 0 {
		return 0
	}
	return float64(m.count) / float64(elapsed) * float64(unit)
}

func (m *meterState) snapshot(unit time.Duration) MeterSnapshot {
	return MeterSnapshot{
		Count:    m.count,
		MeanRate: m.meanRate(unit),
		Rate1:    m.m1.Rate(unit),
		Rate5:    m.m5.Rate(unit),
		Rate15:   m.m15.Rate(unit),
		RateUnit: unit,
	}
}

func (m *meterState) clear() {
	m.start = m.clock.Now()
	m.count = 0
	m.m1.Reset()
	m.m5.Reset()
	m.m15.Reset()
}

type histogramState struct {
	reservoir sample.Reservoir
	count     int64
	min       int64
	max       int64
	sum       int64
	// Welford accumulators for the variance.
	runningMean float64
	m2          float64
}

func newHistogramState(reservoir sample.Reservoir) histogramState {
	return histogramState{reservoir: reservoir}
}

func (h *histogramState) update(value int64) {
	h.count++
	h.sum += value

	if h.count == 1 || value < h.min {
		h.min = value
	}
	if h.count == 1 || value > h.max {
		h.max = value
	}

	delta := float64(value) - h.runningMean
	h.runningMean += delta / float64(h.count)
	h.m2 += delta * (float64(value) - h.runningMean)

	h.reservoir.Update(value)
}

func (h *histogramState) mean() float64 {
	if h.count == 0 {
		return 0
	}
	return float64(h.sum) / float64(h.count)
}

func (h *histogramState) stdDev() float64 {
	if h.count < 2 {
		return 0
	}
	return math.Sqrt(h.m2 / float64(h.count-1))
}

func (h *histogramState) snapshot() HistogramSnapshot {
	return HistogramSnapshot{
		Count:  h.count,
		Min:    h.min,
		Max:    h.max,
		Sum:    h.sum,
		Mean:   h.mean(),
		StdDev: h.stdDev(),
		Sample: h.reservoir.Snapshot(),
	}
}

func (h *histogramState) clear() {
	h.count, h.min, h.max, h.sum = 0, 0, 0, 0
	h.runningMean, h.m2 = 0, 0
	h.reservoir.Clear()
}
