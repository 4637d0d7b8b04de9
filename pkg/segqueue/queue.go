package segqueue

import (
	"sync"

	"github.com/angeloszaimis/asyncmetrics/pkg/atomiccell"
)

// DefaultSegmentSize is used when New receives a non-positive size.
const DefaultSegmentSize = 32

type segment[T any] struct {
	items []T
	next  atomiccell.Ref[segment[T]]
}

// Queue is an unbounded single-consumer FIFO. See the package documentation
// for the producer and consumer rules.
type Queue[T any] struct {
	// consumer side
	head      *segment[T]
	headIndex int

	_ [64]byte

	// producer side
	tail      *segment[T]
	tailIndex int

	count atomiccell.PaddedInt64

	size int
	pool sync.Pool
}

// New creates a queue whose segments hold segmentSize items each.
func New[T any](segmentSize int) *Queue[T] {
	if segmentSize <= 0 {
		segmentSize = DefaultSegmentSize
	}

	q := &Queue[T]{size: segmentSize}
	q.pool.New = func() any {
		return &segment[T]{items: make([]T, segmentSize)}
	}

	first := q.newSegment()
	q.head = first
	q.tail = first

	return q
}

func (q *Queue[T]) newSegment() *segment[T] {
	seg := q.pool.Get().(*segment[T])
	seg.next.Set(nil)
	return seg
}

// Enqueue appends item. It never blocks and never fails; when the tail
// segment is full a new one is linked first.
func (q *Queue[T]) Enqueue(item T) {
	if q.tailIndex == q.size {
		next := q.newSegment()
		q.tail.next.Set(next)
		q.tail = next
		q.tailIndex = 0
	}

	q.tail.items[q.tailIndex] = item
	q.tailIndex++

	// publish
	q.count.Increment()
}

// TryDequeue removes the oldest item. It reports false immediately when the
// queue is empty.
func (q *Queue[T]) TryDequeue() (T, bool) {
	var zero T

	if q.count.Get() == 0 {
		return zero, false
	}

	if q.headIndex == q.size {
		// The head is exhausted and count > 0, so the producer has already
		// linked the next segment.
		exhausted := q.head
		q.head = exhausted.next.Get()
		q.headIndex = 0
		q.pool.Put(exhausted)
	}

	item := q.head.items[q.headIndex]
	q.head.items[q.headIndex] = zero
	q.headIndex++

	q.count.Decrement()

	return item, true
}

// IsEmpty reports whether the queue currently holds no items.
func (q *Queue[T]) IsEmpty() bool {
	return q.count.Get() == 0
}

// Len returns the number of queued items. Under concurrent use the value is
// a point-in-time observation.
func (q *Queue[T]) Len() int64 {
	return q.count.Get()
}

// SegmentSize returns the per-segment capacity.
func (q *Queue[T]) SegmentSize() int {
	return q.size
}
