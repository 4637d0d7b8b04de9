package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/angeloszaimis/asyncmetrics/pkg/metrics"
)

const snapshotTimeout = 5 * time.Second

// Snapshot is the JSON document served by SnapshotHandler.
type Snapshot struct {
	Uptime     string                               `json:"uptime"`
	Counters   map[string]int64                     `json:"counters"`
	Gauges     map[string]float64                   `json:"gauges"`
	Meters     map[string]metrics.MeterSnapshot     `json:"meters"`
	Histograms map[string]metrics.HistogramSnapshot `json:"histograms"`
	Timers     map[string]metrics.TimerSnapshot     `json:"timers"`
	Errors     []string                             `json:"errors,omitempty"`
}

func newSnapshot(uptime time.Duration) *Snapshot {
	return &Snapshot{
		Uptime:     uptime.Round(time.Second).String(),
		Counters:   make(map[string]int64),
		Gauges:     make(map[string]float64),
		Meters:     make(map[string]metrics.MeterSnapshot),
		Histograms: make(map[string]metrics.HistogramSnapshot),
		Timers:     make(map[string]metrics.TimerSnapshot),
	}
}

func (s *Snapshot) VisitCounter(name string, count int64) {
	s.Counters[name] = count
}

func (s *Snapshot) VisitGauge(name string, value float64) {
	s.Gauges[name] = value
}

func (s *Snapshot) VisitMeter(name string, snapshot metrics.MeterSnapshot) {
	s.Meters[name] = snapshot
}

func (s *Snapshot) VisitHistogram(name string, snapshot metrics.HistogramSnapshot) {
	s.Histograms[name] = snapshot
}

func (s *Snapshot) VisitTimer(name string, snapshot metrics.TimerSnapshot) {
	s.Timers[name] = snapshot
}

// SnapshotHandler serves every instrument of registry as JSON. The optional
// "prefix" query parameter narrows the instruments.
func SnapshotHandler(registry *metrics.Registry, logger *slog.Logger) http.HandlerFunc {
	started := time.Now()

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
		defer cancel()

		predicate := metrics.Predicate(metrics.All)
		if prefix := r.URL.Query().Get("prefix"); prefix != "" {
			predicate = metrics.WithPrefix(prefix)
		}

		snap := newSnapshot(time.Since(started))
		if err := registry.Report(ctx, predicate, snap); err != nil {
			logger.Warn("partial metrics snapshot", slog.String("error", err.Error()))
			snap.Errors = append(snap.Errors, err.Error())
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

// Health answers liveness probes.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
