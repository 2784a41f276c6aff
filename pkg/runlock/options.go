package runlock

import (
	"log/slog"
	"time"
)

type managerOptions struct {
	acquireTimeout time.Duration
	leaseTTL       time.Duration
	retryInterval  time.Duration
	logger         *slog.Logger
}

// Option configures a Manager.
type Option func(*managerOptions)

// WithAcquireTimeout bounds how long WithLock waits for a contended lease
// before failing with ErrLockTimeout.
func WithAcquireTimeout(d time.Duration) Option {
	return func(o *managerOptions) {
		if d > 0 {
			o.acquireTimeout = d
		}
	}
}

// WithLeaseTTL sets how long an acquired lease survives a crashed holder.
// It should comfortably exceed the longest critical section.
func WithLeaseTTL(d time.Duration) Option {
	return func(o *managerOptions) {
		if d > 0 {
			o.leaseTTL = d
		}
	}
}

// WithRetryInterval sets the wait between acquisition attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(o *managerOptions) {
		if d > 0 {
			o.retryInterval = d
		}
	}
}

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *managerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
