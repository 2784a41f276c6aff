package delayedstore

import "errors"

var (
	// ErrClientNil is returned when a nil Redis client is provided.
	ErrClientNil = errors.New("redis client cannot be nil")

	// ErrEmptyPrefix is returned when no key prefix is provided.
	ErrEmptyPrefix = errors.New("key prefix cannot be empty")

	// ErrEmptyID is returned for operations on an empty item id.
	ErrEmptyID = errors.New("item id cannot be empty")

	// ErrNotFound is returned when the referenced entry does not exist.
	ErrNotFound = errors.New("entry not found")
)
