package lifecycle

import (
	"log/slog"

	"github.com/dmitrymomot/runkit/pkg/events"
)

type engineOptions struct {
	locker    Locker
	bus       events.Bus
	logger    *slog.Logger
	batchSize int
}

// Option configures the lifecycle engine.
type Option func(*engineOptions)

// WithLocker serializes run mutations through the given lock manager.
func WithLocker(locker Locker) Option {
	return func(o *engineOptions) {
		o.locker = locker
	}
}

// WithEventBus publishes run status notifications to the given bus.
func WithEventBus(bus events.Bus) Option {
	return func(o *engineOptions) {
		o.bus = bus
	}
}

// WithLogger sets the logger for transition diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBatchSize caps how many pending-version runs one promotion pass
// handles. Values below 1 keep the default of 200.
func WithBatchSize(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}
