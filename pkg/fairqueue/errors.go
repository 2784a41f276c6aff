package fairqueue

import "errors"

var (
	// ErrClientNil is returned when a nil redis client is provided.
	ErrClientNil = errors.New("fairqueue: redis client is nil")

	// ErrEmptyPrefix is returned when an empty key prefix is provided.
	ErrEmptyPrefix = errors.New("fairqueue: key prefix is empty")

	// ErrBackendNil is returned when a nil backend is provided.
	ErrBackendNil = errors.New("fairqueue: backend is nil")

	// ErrEmptyRunID is returned when a message carries no run id.
	ErrEmptyRunID = errors.New("fairqueue: run id is empty")

	// ErrIncompleteMessage is returned when a message is missing the
	// organization, environment or queue needed to place it.
	ErrIncompleteMessage = errors.New("fairqueue: message missing organization, environment or queue")

	// ErrMessageMarshal is returned when a message cannot be serialized.
	ErrMessageMarshal = errors.New("fairqueue: failed to marshal message")
)
