package metrics

import "context"

// Counter is a monotonic-by-convention int64 count that can also go down.
type Counter struct {
	actor
	count int64
}

func NewCounter(opts ...Option) *Counter {
	return &Counter{actor: newActor(buildOptions("counter", opts))}
}

func (c *Counter) Inc() {
	c.Increment(1)
}

func (c *Counter) Increment(delta int64) {
	c.tell(func() {
		c.count += delta
	})
}

func (c *Counter) Dec() {
	c.Decrement(1)
}

func (c *Counter) Decrement(delta int64) {
	c.tell(func() {
		c.count -= delta
	})
}

// GetCount delivers the count to cb once every earlier write is applied.
func (c *Counter) GetCount(cb func(int64)) {
	c.tell(func() {
		cb(c.count)
	})
}

// Count waits for the count.
func (c *Counter) Count(ctx context.Context) (int64, error) {
	return ask(ctx, &c.actor, func() int64 {
		return c.count
	})
}

func (c *Counter) Clear() {
	c.tell(func() {
		c.count = 0
	})
}

func (c *Counter) report(ctx context.Context) (func(Visitor), error) {
	count, err := c.Count(ctx)
	if err != nil {
		return nil, err
	}
	return func(v Visitor) {
		v.VisitCounter(c.name, count)
	}, nil
}
