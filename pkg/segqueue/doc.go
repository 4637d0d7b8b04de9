// Package segqueue implements an unbounded FIFO queue that grows in
// fixed-size segments.
//
// Items are written into the tail segment; when it fills, a new segment is
// taken from a pool, linked and becomes the tail. The consumer reads from the
// head segment and returns it to the pool once every slot has been read, so
// steady-state traffic allocates nothing per item.
//
// Concurrency discipline:
//   - Enqueue calls must be serialized by the caller (a single producer, or
//     several producers behind a lock as the mailbox does).
//   - Exactly one goroutine may call TryDequeue for the life of the queue.
//   - Enqueue and TryDequeue may run concurrently with each other.
//
// The item count is the synchronization point: a producer publishes an item
// by incrementing it after the slot is written, and the consumer only reads
// slots it has observed through the count.
package segqueue
