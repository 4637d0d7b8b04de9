package runtimestats

import (
	"runtime"

	"github.com/angeloszaimis/asyncmetrics/pkg/metrics"
)

const (
	Goroutines = "runtime.goroutines"
	HeapAlloc  = "runtime.heap_alloc_bytes"
	HeapInuse  = "runtime.heap_inuse_bytes"
	GCCount    = "runtime.gc_count"
	CPUs       = "runtime.cpus"
)

// Register adds the runtime gauges to registry and returns their names.
func Register(registry *metrics.Registry) []string {
	registry.Gauge(Goroutines, func() float64 {
		return float64(runtime.NumGoroutine())
	})
	registry.Gauge(HeapAlloc, func() float64 {
		return float64(memStats().HeapAlloc)
	})
	registry.Gauge(HeapInuse, func() float64 {
		return float64(memStats().HeapInuse)
	})
	registry.Gauge(GCCount, func() float64 {
		return float64(memStats().NumGC)
	})
	registry.Gauge(CPUs, func() float64 {
		return float64(runtime.NumCPU())
	})

	return []string{Goroutines, HeapAlloc, HeapInuse, GCCount, CPUs}
}

func memStats() runtime.MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m
}
