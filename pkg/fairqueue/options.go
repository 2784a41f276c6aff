package fairqueue

import "log/slog"

type queueOptions struct {
	capacity    CapacityChecker
	strategy    Strategy
	masterLimit int64
	shardCount  int
	logger      *slog.Logger
}

// Option configures a FairQueue.
type Option func(*queueOptions)

// WithCapacity wires concurrency accounting into scheduling: tenants at
// capacity are skipped during selection. Without it every tenant is eligible.
func WithCapacity(capacity CapacityChecker) Option {
	return func(o *queueOptions) {
		o.capacity = capacity
	}
}

// WithStrategy replaces the default round-robin tenant ordering.
func WithStrategy(strategy Strategy) Option {
	return func(o *queueOptions) {
		if strategy != nil {
			o.strategy = strategy
		}
	}
}

// WithMasterLimit caps how many queue entries one scheduling pass reads from
// a shard's master index. Values below 1 keep the default of 1000.
func WithMasterLimit(limit int64) Option {
	return func(o *queueOptions) {
		if limit > 0 {
			o.masterLimit = limit
		}
	}
}

// WithShardCount spreads tenants over n master-queue shards. Values below 2
// keep the single default shard.
func WithShardCount(n int) Option {
	return func(o *queueOptions) {
		if n > 1 {
			o.shardCount = n
		}
	}
}

// WithLogger sets the logger used for scheduling diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *queueOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
