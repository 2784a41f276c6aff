package runqueue

import "log/slog"

type queueOptions struct {
	logger *slog.Logger
}

// Option configures the run queue.
type Option func(*queueOptions)

// WithLogger sets the logger for accounting diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *queueOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
