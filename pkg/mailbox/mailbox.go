package mailbox

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/angeloszaimis/asyncmetrics/pkg/atomiccell"
	"github.com/angeloszaimis/asyncmetrics/pkg/segqueue"
)

// Infinite makes Receive block until a message arrives or the mailbox closes.
const Infinite time.Duration = -1

// ErrClosed is returned by Send once Close has been called.
var ErrClosed = errors.New("mailbox: send on closed mailbox")

const (
	stateIdle int64 = iota
	stateScheduled
)

// Mailbox is an unbounded MPSC message queue with blocking receive and an
// optional actor-style consumer.
type Mailbox[T any] struct {
	opts  options
	queue *segqueue.Queue[T]

	sendMutex sync.Mutex
	signal    chan struct{}
	done      chan struct{}
	closed    atomiccell.Bool
	closeOnce sync.Once

	// active mode
	handler    func(T)
	state      atomiccell.Int64
	stopped    chan struct{}
	finishOnce sync.Once

	dropped   atomiccell.PaddedInt64
	processed atomiccell.PaddedInt64
}

// New creates a passive mailbox. The caller owns the consumer side.
func New[T any](opts ...Option) *Mailbox[T] {
	o := buildOptions(opts)
	return &Mailbox[T]{
		opts:   o,
		queue:  segqueue.New[T](o.segmentSize),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// NewActive creates a mailbox that invokes handler for every message on its
// own logical consumer.
func NewActive[T any](handler func(T), opts ...Option) *Mailbox[T] {
	m := New[T](opts...)
	m.handler = handler
	m.stopped = make(chan struct{})

	if m.opts.executor == nil {
		go m.loop()
	}

	return m
}

// Send enqueues item and wakes the consumer. It never blocks.
func (m *Mailbox[T]) Send(item T) error {
	m.sendMutex.Lock()
	if m.closed.Get() {
		m.sendMutex.Unlock()
		m.dropped.Increment()
		return ErrClosed
	}
	m.queue.Enqueue(item)
	m.sendMutex.Unlock()

	if m.handler != nil && m.opts.executor != nil {
		m.schedule()
		return nil
	}

	select {
	case m.signal <- struct{}{}:
	default:
		// a wake-up is already pending
	}

	return nil
}

// Receive returns the next message. A zero timeout returns immediately,
// Infinite (or any negative value) blocks until a message arrives or the
// mailbox is closed and drained. It reports false when nothing became
// available in time.
//
// Only one goroutine may receive; active mailboxes must not be received from.
func (m *Mailbox[T]) Receive(timeout time.Duration) (T, bool) {
	if item, ok := m.queue.TryDequeue(); ok {
		return item, true
	}
	if timeout == 0 {
		var zero T
		return zero, false
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case <-m.signal:
		case <-m.done:
			return m.queue.TryDequeue()
		case <-expired:
			return m.queue.TryDequeue()
		}

		// the signal may be stale if its message was drained earlier
		if item, ok := m.queue.TryDequeue(); ok {
			return item, true
		}
	}
}

// Close stops accepting messages. Messages already sent are still delivered.
// For an active mailbox Close blocks until the handler has processed them.
func (m *Mailbox[T]) Close() {
	m.closeOnce.Do(func() {
		m.sendMutex.Lock()
		m.closed.Set(true)
		m.sendMutex.Unlock()

		close(m.done)

		if m.handler != nil && m.opts.executor != nil {
			m.schedule()
		}
	})

	if m.handler != nil {
		<-m.stopped
	}
}

// Done is closed once an active mailbox has drained after Close. For a
// passive mailbox it is closed as soon as Close is called.
func (m *Mailbox[T]) Done() <-chan struct{} {
	if m.handler != nil {
		return m.stopped
	}
	return m.done
}

func (m *Mailbox[T]) IsClosed() bool {
	return m.closed.Get()
}

// Len returns the number of queued messages.
func (m *Mailbox[T]) Len() int64 {
	return m.queue.Len()
}

// Dropped returns how many sends were rejected after Close.
func (m *Mailbox[T]) Dropped() int64 {
	return m.dropped.Get()
}

// Processed returns how many messages the handler has been invoked with.
func (m *Mailbox[T]) Processed() int64 {
	return m.processed.Get()
}

func (m *Mailbox[T]) Name() string {
	return m.opts.name
}

// loop is the dedicated consumer of an active mailbox.
func (m *Mailbox[T]) loop() {
	defer close(m.stopped)

	for {
		item, ok := m.Receive(Infinite)
		if !ok {
			return
		}
		m.invoke(item)
	}
}

// schedule submits a drain to the executor unless one is already pending.
// The idle/scheduled transition keeps at most one drain alive per mailbox.
func (m *Mailbox[T]) schedule() {
	if m.state.CompareExchange(stateIdle, stateScheduled) == stateIdle {
		m.opts.executor.Execute(m.drain)
	}
}

func (m *Mailbox[T]) drain() {
	for i := 0; i < m.opts.throughput; i++ {
		item, ok := m.queue.TryDequeue()
		if !ok {
			break
		}
		m.invoke(item)
	}

	m.state.Set(stateIdle)

	if !m.queue.IsEmpty() {
		m.schedule()
		return
	}

	// Only the drain holding the schedule may finish, so no other drain can
	// still be running a handler. Sends after closed are rejected.
	if m.closed.Get() && m.state.CompareExchange(stateIdle, stateScheduled) == stateIdle {
		if m.queue.IsEmpty() {
			m.finishOnce.Do(func() { close(m.stopped) })
			return
		}
		m.opts.executor.Execute(m.drain)
	}
}

func (m *Mailbox[T]) invoke(item T) {
	defer func() {
		m.processed.Increment()
		if r := recover(); r != nil {
			m.opts.logger.Error("mailbox handler panicked",
				slog.String("mailbox", m.opts.name),
				slog.Any("panic", r))
		}
	}()

	m.handler(item)
}
