package mailbox

import "github.com/angeloszaimis/asyncmetrics/pkg/segqueue"

// DefaultThroughput bounds how many messages one scheduled drain handles
// before yielding its pool worker.
const DefaultThroughput = 64

// Logger receives recovered handler panics. *slog.Logger satisfies it.
type Logger interface {
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Error(string, ...any) {}

type options struct {
	name        string
	segmentSize int
	logger      Logger
	executor    Executor
	throughput  int
}

// Option configures a Mailbox or a Pool.
type Option func(*options)

// WithName labels log records produced by the mailbox.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithSegmentSize sets the segment capacity of the underlying queue.
func WithSegmentSize(size int) Option {
	return func(o *options) {
		o.segmentSize = size
	}
}

func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithExecutor makes an active mailbox schedule its drain loop on executor
// instead of a dedicated goroutine.
func WithExecutor(executor Executor) Option {
	return func(o *options) {
		o.executor = executor
	}
}

// WithThroughput sets the per-drain message budget used with an executor.
func WithThroughput(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.throughput = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		name:        "mailbox",
		segmentSize: segqueue.DefaultSegmentSize,
		logger:      nopLogger{},
		throughput:  DefaultThroughput,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
