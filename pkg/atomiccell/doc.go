// Package atomiccell provides linearizable, non-blocking cells over a single
// word or reference.
//
// Every cell exposes Get, Set, Exchange and CompareExchange. Integral cells
// also expose Add. The cells are thin wrappers over sync/atomic and never
// block; they are the foundation for the queue counters, the mailbox
// scheduling state and the EWMA event accumulator.
//
//	var c atomiccell.Int64
//	c.Add(5)
//	old := c.Exchange(0) // read and reset in one step
//
// PaddedInt64 occupies a full cache line so that hot counters owned by
// different goroutines do not share a line.
package atomiccell
