package delayedstore

import (
	"context"
	"time"
)

// Item is a stored payload together with the time it becomes visible.
type Item struct {
	ID          string
	Payload     []byte
	AvailableAt time.Time
}

// Store is a durable, score-ordered delayed item store: a time-ordered index
// of ids paired with a payload map. It is the bedrock primitive under the
// work queue, the delayed job scheduler and the fair run queue.
//
// Every method that touches both the index and the payload map must apply the
// two writes as one atomic unit. A crash between them must never leave a
// payload without an index entry or the other way around.
type Store interface {
	// Put stores the payload and schedules it to become visible at
	// availableAt. Calling Put again with the same id overwrites both the
	// payload and the schedule; it never duplicates the entry.
	Put(ctx context.Context, id string, payload []byte, availableAt time.Time) error

	// PutIfAbsent behaves like Put but leaves an existing entry untouched.
	// It reports whether the entry was created.
	PutIfAbsent(ctx context.Context, id string, payload []byte, availableAt time.Time) (bool, error)

	// PopDue atomically claims and removes the earliest item whose
	// availability score is <= now. At most one concurrent caller receives
	// any given item. It returns nil when nothing is due.
	PopDue(ctx context.Context, now time.Time) (*Item, error)

	// Reschedule moves an existing entry to a new availability time. It
	// returns ErrNotFound when the id is not present.
	Reschedule(ctx context.Context, id string, availableAt time.Time) error

	// Remove deletes the entry from both the index and the payload map.
	// Removing an absent id is a no-op, which makes acknowledgements
	// idempotent.
	Remove(ctx context.Context, id string) error

	// Size reports the number of stored entries, due or not.
	Size(ctx context.Context) (int64, error)
}
