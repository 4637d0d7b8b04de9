package metrics

import (
	"context"
	"log/slog"
	"time"
)

// Ticker drives the moving averages of a registry on a fixed cadence. The
// interval must match the one the averages were built for; zero uses the
// registry's own.
type Ticker struct {
	registry *Registry
	interval time.Duration
	logger   *slog.Logger
}

func NewTicker(registry *Registry, interval time.Duration, logger *slog.Logger) *Ticker {
	if interval <= 0 {
		interval = registry.TickInterval()
	}

	return &Ticker{
		registry: registry,
		interval: interval,
		logger:   logger,
	}
}

// Run ticks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("metrics ticker started", slog.Duration("interval", t.interval))

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("metrics ticker stopped")
			return

		case <-ticker.C:
			ticked := t.registry.Tick()
			t.logger.Debug("ticked instruments", slog.Int("count", ticked))
		}
	}
}
