// Package runtimestats registers Go runtime gauges into a metrics registry.
// Values are computed on each gauge's actor when the gauge is read.
package runtimestats
