// Package mailbox provides a multi-producer, single-consumer message handoff
// built on segqueue.
//
// A Mailbox runs in one of two modes.
//
// Passive mode (New): producers call Send from any goroutine; one consumer
// calls Receive, optionally blocking up to a timeout until a message arrives.
// Signals are coalesced: several sends before a receive produce a single
// wake-up, which is enough because the receiver drains until empty.
//
//	mb := mailbox.New[int]()
//	_ = mb.Send(1)
//	v, ok := mb.Receive(100 * time.Millisecond)
//
// Active mode (NewActive): the mailbox owns its consumer and invokes a
// handler for each message, strictly one at a time and in queue order. This
// is the actor pattern used by the metric instruments: state touched only from
// the handler needs no lock. Without an executor the consumer is a dedicated
// goroutine; WithExecutor schedules drain batches on a shared Pool instead,
// still serialized per mailbox.
//
//	mb := mailbox.NewActive(func(fn func()) { fn() }, mailbox.WithLogger(log))
//	defer mb.Close()
//	_ = mb.Send(func() { state++ })
//
// A panic raised by the handler is recovered, logged through the injected
// Logger and does not stop the consumer.
//
// Close rejects further sends with ErrClosed, lets the consumer drain every
// message already accepted and, in active mode, waits for it to finish. Close
// must not be called from inside the handler of the same mailbox.
package mailbox
