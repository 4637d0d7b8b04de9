package metrics

import (
	"time"

	"github.com/angeloszaimis/asyncmetrics/pkg/sample"
)

// MeterSnapshot holds meter rates expressed per RateUnit.
type MeterSnapshot struct {
	Count    int64         `json:"count"`
	MeanRate float64       `json:"mean_rate"`
	Rate1    float64       `json:"m1_rate"`
	Rate5    float64       `json:"m5_rate"`
	Rate15   float64       `json:"m15_rate"`
	RateUnit time.Duration `json:"-"`
}

// HistogramSnapshot holds exact aggregates over every update plus the
// sampled distribution.
type HistogramSnapshot struct {
	Count  int64           `json:"count"`
	Min    int64           `json:"min"`
	Max    int64           `json:"max"`
	Sum    int64           `json:"sum"`
	Mean   float64         `json:"mean"`
	StdDev float64         `json:"stddev"`
	Sample sample.Snapshot `json:"-"`
}

func (s HistogramSnapshot) Quantile(q float64) float64 {
	return s.Sample.Quantile(q)
}

func (s HistogramSnapshot) Median() float64 {
	return s.Sample.Median()
}

// TimerSnapshot reports durations as float64 multiples of DurationUnit.
type TimerSnapshot struct {
	Count        int64           `json:"count"`
	Min          float64         `json:"min"`
	Max          float64         `json:"max"`
	Mean         float64         `json:"mean"`
	StdDev       float64         `json:"stddev"`
	Median       float64         `json:"p50"`
	P75          float64         `json:"p75"`
	P95          float64         `json:"p95"`
	P98          float64         `json:"p98"`
	P99          float64         `json:"p99"`
	P999         float64         `json:"p999"`
	Rate         MeterSnapshot   `json:"rate"`
	DurationUnit time.Duration   `json:"-"`
	Sample       sample.Snapshot `json:"-"`
}

// Quantile returns quantile q of the sampled durations in DurationUnit.
func (s TimerSnapshot) Quantile(q float64) float64 {
	return s.Sample.Quantile(q) / float64(s.DurationUnit)
}

func newTimerSnapshot(h HistogramSnapshot, rate MeterSnapshot, unit time.Duration) TimerSnapshot {
	scale := float64(unit)

	return TimerSnapshot{
		Count:        h.Count,
		Min:          float64(h.Min) / scale,
		Max:          float64(h.Max) / scale,
		Mean:         h.Mean / scale,
		StdDev:       h.StdDev / scale,
		Median:       h.Sample.Median() / scale,
		P75:          h.Sample.P75() / scale,
		P95:          h.Sample.P95() / scale,
		P98:          h.Sample.P98() / scale,
		P99:          h.Sample.P99() / scale,
		P999:         h.Sample.P999() / scale,
		Rate:         rate,
		DurationUnit: unit,
		Sample:       h.Sample,
	}
}
