package jobs

import (
	"log/slog"

	"github.com/dmitrymomot/runkit/pkg/workqueue"
)

type schedulerOptions struct {
	logger        *slog.Logger
	processorOpts []workqueue.ProcessorOption
}

// Option configures a Scheduler.
type Option func(*schedulerOptions)

// WithLogger sets the scheduler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *schedulerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProcessorOptions forwards options to the underlying dispatch loop
// (idle timeout, retry policy, dead-letter sink).
func WithProcessorOptions(opts ...workqueue.ProcessorOption) Option {
	return func(o *schedulerOptions) {
		o.processorOpts = append(o.processorOpts, opts...)
	}
}
