package mailbox

import (
	"log/slog"

	"github.com/sourcegraph/conc/pool"
)

// Executor runs drain tasks for active mailboxes. Execute must not block the
// caller for long: it is invoked from Send.
type Executor interface {
	Execute(task func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(task func())

func (f ExecutorFunc) Execute(task func()) {
	f(task)
}

// Goroutine runs every task on a fresh goroutine.
var Goroutine Executor = ExecutorFunc(func(task func()) { go task() })

// Pool is a bounded worker pool shared by many active mailboxes. Tasks are
// handed over through a passive mailbox, so Execute never blocks; a single
// dispatcher feeds them to at most size concurrent workers.
type Pool struct {
	tasks   *Mailbox[func()]
	workers *pool.Pool
	logger  Logger
	done    chan struct{}
}

// NewPool starts a pool with size workers.
func NewPool(size int, opts ...Option) *Pool {
	if size <= 0 {
		size = 1
	}

	o := buildOptions(opts)
	p := &Pool{
		tasks:   New[func()](append(opts, WithName(o.name+"-pool"))...),
		workers: pool.New().WithMaxGoroutines(size),
		logger:  o.logger,
		done:    make(chan struct{}),
	}

	go p.dispatch()

	return p
}

// Execute queues task. After Close the task runs on its own goroutine so
// that mailboxes still draining are not stranded.
func (p *Pool) Execute(task func()) {
	if err := p.tasks.Send(task); err != nil {
		p.logger.Error("pool closed, running task unpooled", slog.Any("err", err))
		go task()
	}
}

func (p *Pool) dispatch() {
	defer close(p.done)

	for {
		task, ok := p.tasks.Receive(Infinite)
		if !ok {
			break
		}
		p.workers.Go(task)
	}

	p.workers.Wait()
}

// Pending returns the number of tasks waiting for a worker slot.
func (p *Pool) Pending() int64 {
	return p.tasks.Len()
}

// Close stops accepting tasks, waits for queued tasks and running workers.
// Close mailboxes using the pool first.
func (p *Pool) Close() {
	p.tasks.Close()
	<-p.done
}
