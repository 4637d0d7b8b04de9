// Package metrics provides the asynchronous instrument family: Counter,
// Gauge, Meter, Histogram and Timer.
//
// Every instrument owns one active mailbox. Writes such as Increment, Update
// and Mark are posted as closures and never block the caller. Reads are
// posted the same way, so a read observes every write issued before it by
// the same goroutine. Two read styles exist for each value:
//
//	counter.GetCount(func(n int64) { ... }) // callback on the instrument actor
//	n, err := counter.Count(ctx)            // waits for the actor or ctx
//
// Callbacks run on the instrument's consumer and must not block it or call
// blocking reads on the same instrument. A panicking callback is recovered,
// logged through the configured logger, and the instrument keeps working.
//
// Instruments are grouped in a Registry, which a reporter walks on its own
// schedule with Report. Meters and Timers keep EWMA rates that need a Ticker
// (or manual Tick calls) on a fixed cadence.
package metrics
