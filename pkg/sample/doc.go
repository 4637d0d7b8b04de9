// Package sample keeps statistically representative, bounded samples of
// unbounded value streams.
//
// Two reservoir strategies are provided:
//
//   - Uniform implements Vitter's Algorithm R: every value seen so far has the
//     same probability of being in the sample.
//   - ExpDecay implements forward-decay priority sampling (Cormode et al.):
//     a value recorded at time t gets priority exp(alpha*(t-start))/u, the
//     smallest priority is evicted when the reservoir is full, so recent
//     values dominate. Priorities are rescaled every hour to stay within
//     float64 range.
//
// Reservoirs are plain single-threaded structures. Concurrent producers go
// through Async, which owns a mailbox and applies every update and read on
// its private consumer. The metric instruments embed reservoirs inside their
// own actors instead.
//
// Snapshot is an immutable sorted copy of the sample and carries the
// quantile helpers used by reporters.
package sample
