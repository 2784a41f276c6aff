package fairqueue

import (
	"context"
	"time"
)

// MasterEntry is one queue reference in a shard's master index: the queue
// descriptor and the availability score of its earliest run.
type MasterEntry struct {
	Descriptor string
	Score      float64
}

// Backend is the storage primitive under the fair queue. Implementations
// must make each method a single atomic unit against the shared store: the
// per-queue index, the message map and the master index always move
// together, and no two consumers can pop the same run.
type Backend interface {
	// Enqueue stores the message and indexes the run under its queue
	// descriptor with the given availability score, updating the shard's
	// master index to the queue's earliest score.
	Enqueue(ctx context.Context, shard, descriptor, runID string, payload []byte, availableAt time.Time) error

	// PeekMaster reads up to limit queue descriptors from the shard's master
	// index whose earliest score is <= until, ordered by score.
	PeekMaster(ctx context.Context, shard string, until time.Time, limit int64) ([]MasterEntry, error)

	// PopQueue atomically claims the earliest due run from the descriptor's
	// queue and refreshes the shard's master index (re-scored to the next
	// remaining run, or removed when the queue drained). The claimed message
	// stays in the message map until Ack. ok is false when nothing is due.
	PopQueue(ctx context.Context, shard, descriptor string, until time.Time) (runID string, payload []byte, ok bool, err error)

	// Ack removes the run's message and any remaining queue index entry so
	// the run can never be dequeued again. Acking an unknown run is a no-op.
	Ack(ctx context.Context, runID string) error

	// Pointer reads the shard's rotation pointer (last served tenant).
	Pointer(ctx context.Context, shard string) (string, error)

	// SetPointer persists the shard's rotation pointer.
	SetPointer(ctx context.Context, shard, tenant string) error
}
