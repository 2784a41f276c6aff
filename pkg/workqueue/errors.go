package workqueue

import "errors"

var (
	// ErrStoreNil is returned when a nil delayed store is provided.
	ErrStoreNil = errors.New("store cannot be nil")

	// ErrQueueNil is returned when a nil queue is provided to a processor.
	ErrQueueNil = errors.New("queue cannot be nil")

	// ErrHandlerNil is returned when no handler is provided to a processor.
	ErrHandlerNil = errors.New("handler cannot be nil")

	// ErrClientNil is returned when a nil Redis client is provided.
	ErrClientNil = errors.New("redis client cannot be nil")

	// ErrEmptyKey is returned when no Redis key is provided.
	ErrEmptyKey = errors.New("key cannot be empty")

	// ErrItemMarshal is returned when an item cannot be marshaled to JSON.
	ErrItemMarshal = errors.New("failed to marshal item to JSON")
)
