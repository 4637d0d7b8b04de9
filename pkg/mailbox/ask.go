package mailbox

import (
	"context"
	"fmt"
)

type reply[R any] struct {
	value R
	err   error
}

// Ask runs fn on the consumer of an active closure mailbox and waits for its
// result. Because fn is queued behind every message sent before the call,
// the result reflects all of them. A panic in fn is reported as an error and
// still reaches the mailbox logger.
func Ask[R any](ctx context.Context, m *Mailbox[func()], fn func() R) (R, error) {
	var zero R
	replies := make(chan reply[R], 1)

	err := m.Send(func() {
		defer func() {
			if r := recover(); r != nil {
				replies <- reply[R]{err: fmt.Errorf("mailbox %s: %v", m.Name(), r)}
				panic(r)
			}
		}()
		replies <- reply[R]{value: fn()}
	})
	if err != nil {
		return zero, err
	}

	select {
	case r := <-replies:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Tell posts fn for asynchronous execution on the consumer and drops the
// ErrClosed outcome; writers to a closed instrument are counted by Dropped.
func Tell(m *Mailbox[func()], fn func()) {
	_ = m.Send(fn)
}

// Run is the handler for closure mailboxes.
func Run(fn func()) {
	fn()
}
