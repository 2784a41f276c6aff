package workqueue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/runkit/pkg/delayedstore"
)

// Message is a dequeued item together with its queue id.
type Message[T any] struct {
	ID   string
	Item T
}

// Queue is a typed work queue over a delayed store: enqueue opaque items with
// an availability time, atomically pop the earliest due one. Exclusivity
// across processes comes from the store's atomic pop, not from in-process
// coordination.
type Queue[T any] struct {
	store  delayedstore.Store
	logger *slog.Logger
}

// NewQueue creates a typed queue on top of the given store.
func NewQueue[T any](store delayedstore.Store, opts ...QueueOption) (*Queue[T], error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	options := &queueOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	return &Queue[T]{store: store, logger: options.logger}, nil
}

// Enqueue schedules an item under the given id. When availableAt is the zero
// time the item is due immediately. Enqueueing an existing id overwrites its
// payload and schedule.
func (q *Queue[T]) Enqueue(ctx context.Context, id string, item T, availableAt time.Time) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return errors.Join(ErrItemMarshal, err)
	}
	if availableAt.IsZero() {
		availableAt = time.Now()
	}
	return q.store.Put(ctx, id, payload, availableAt)
}

// Dequeue pops the earliest due item, or nil when nothing is due. An item
// whose payload no longer matches the queue's schema is dropped and logged
// instead of being returned, so one poison entry cannot wedge consumers; the
// scan then continues with the next due item.
func (q *Queue[T]) Dequeue(ctx context.Context) (*Message[T], error) {
	for {
		raw, err := q.store.PopDue(ctx, time.Now())
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, nil
		}

		var item T
		if err := json.Unmarshal(raw.Payload, &item); err != nil {
			q.logger.ErrorContext(ctx, "dropping schema-invalid queue item",
				slog.String("item_id", raw.ID),
				slog.String("error", err.Error()))
			continue
		}
		return &Message[T]{ID: raw.ID, Item: item}, nil
	}
}

// Reschedule moves an existing item to a new availability time. It returns
// delayedstore.ErrNotFound when the id is not queued.
func (q *Queue[T]) Reschedule(ctx context.Context, id string, availableAt time.Time) error {
	return q.store.Reschedule(ctx, id, availableAt)
}

// Remove deletes an item from the queue. Removing an absent id is a no-op.
func (q *Queue[T]) Remove(ctx context.Context, id string) error {
	return q.store.Remove(ctx, id)
}

// Size reports the number of items in the queue, due or not.
func (q *Queue[T]) Size(ctx context.Context) (int64, error) {
	return q.store.Size(ctx)
}

// requeue puts an already-marshaled item back with a delay; used by the
// processor's retry path.
func (q *Queue[T]) requeue(ctx context.Context, id string, item T, delay time.Duration) error {
	return q.Enqueue(ctx, id, item, time.Now().Add(delay))
}
