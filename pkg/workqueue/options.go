package workqueue

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/runkit/pkg/retry"
)

type queueOptions struct {
	logger *slog.Logger
}

// QueueOption configures a Queue.
type QueueOption func(*queueOptions)

// WithQueueLogger sets the logger used for poison-item reports.
func WithQueueLogger(logger *slog.Logger) QueueOption {
	return func(o *queueOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

type processorOptions struct {
	idleTimeout time.Duration
	policy      retry.Policy
	deadLetter  DeadLetter
	logger      *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*processorOptions)

// WithIdleTimeout sets the wait between empty polls.
func WithIdleTimeout(d time.Duration) ProcessorOption {
	return func(o *processorOptions) {
		if d > 0 {
			o.idleTimeout = d
		}
	}
}

// WithRetryPolicy replaces the default exponential backoff policy.
func WithRetryPolicy(p retry.Policy) ProcessorOption {
	return func(o *processorOptions) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithDeadLetter sets the sink for items that exhausted their retry budget.
// Without a sink such items are logged and dropped.
func WithDeadLetter(d DeadLetter) ProcessorOption {
	return func(o *processorOptions) {
		o.deadLetter = d
	}
}

// WithProcessorLogger sets the processor's logger.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(o *processorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
