package sample

import (
	"context"
	"time"

	"github.com/angeloszaimis/asyncmetrics/pkg/mailbox"
)

// Async serializes access to a Reservoir through an active mailbox. Updates
// never block; reads are delivered to a callback or awaited with a context.
type Async struct {
	reservoir Reservoir
	inbox     *mailbox.Mailbox[func()]
}

// NewAsync wraps r. The mailbox options pick the executor and logger.
func NewAsync(r Reservoir, opts ...mailbox.Option) *Async {
	return &Async{
		reservoir: r,
		inbox:     mailbox.NewActive(mailbox.Run, append([]mailbox.Option{mailbox.WithName("sample")}, opts...)...),
	}
}

func (a *Async) Update(value int64) {
	mailbox.Tell(a.inbox, func() {
		a.reservoir.Update(value)
	})
}

// UpdateAt falls back to Update when the reservoir ignores timestamps.
func (a *Async) UpdateAt(value int64, at time.Time) {
	mailbox.Tell(a.inbox, func() {
		if timed, ok := a.reservoir.(TimedReservoir); ok {
			timed.UpdateAt(value, at)
			return
		}
		a.reservoir.Update(value)
	})
}

func (a *Async) Clear() {
	mailbox.Tell(a.inbox, a.reservoir.Clear)
}

// GetSnapshot invokes cb on the consumer with a snapshot that includes every
// update sent before the call.
func (a *Async) GetSnapshot(cb func(Snapshot)) {
	mailbox.Tell(a.inbox, func() {
		cb(a.reservoir.Snapshot())
	})
}

func (a *Async) GetSize(cb func(int)) {
	mailbox.Tell(a.inbox, func() {
		cb(a.reservoir.Size())
	})
}

func (a *Async) Snapshot(ctx context.Context) (Snapshot, error) {
	return mailbox.Ask(ctx, a.inbox, a.reservoir.Snapshot)
}

func (a *Async) Size(ctx context.Context) (int, error) {
	return mailbox.Ask(ctx, a.inbox, a.reservoir.Size)
}

// Close stops accepting updates after the queued ones are applied.
func (a *Async) Close() {
	a.inbox.Close()
}
