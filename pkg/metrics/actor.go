package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/angeloszaimis/asyncmetrics/pkg/mailbox"
)

// ErrClosed is returned by blocking reads on a closed instrument.
var ErrClosed = errors.New("metrics: instrument closed")

// actor owns the mailbox that serializes all access to an instrument.
type actor struct {
	name  string
	inbox *mailbox.Mailbox[func()]
}

func newActor(o options) actor {
	return actor{
		name:  o.name,
		inbox: mailbox.NewActive(mailbox.Run, o.mailboxOptions()...),
	}
}

func (a *actor) tell(fn func()) {
	mailbox.Tell(a.inbox, fn)
}

// Name returns the instrument name.
func (a *actor) Name() string {
	return a.name
}

// Close applies the pending messages and stops the instrument. Later writes
// are dropped and later reads fail with ErrClosed.
func (a *actor) Close() {
	a.inbox.Close()
}

// Dropped counts messages posted after Close.
func (a *actor) Dropped() int64 {
	return a.inbox.Dropped()
}

// Pending returns the approximate number of queued messages.
func (a *actor) Pending() int64 {
	return a.inbox.Len()
}

func ask[R any](ctx context.Context, a *actor, fn func() R) (R, error) {
	value, err := mailbox.Ask(ctx, a.inbox, fn)
	if errors.Is(err, mailbox.ErrClosed) {
		return value, fmt.Errorf("%w: %s", ErrClosed, a.name)
	}
	return value, err
}
