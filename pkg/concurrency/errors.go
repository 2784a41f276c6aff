package concurrency

import "errors"

var (
	// ErrClientNil is returned when a nil Redis client is provided.
	ErrClientNil = errors.New("redis client cannot be nil")

	// ErrEmptyPrefix is returned when no key prefix is provided.
	ErrEmptyPrefix = errors.New("key prefix cannot be empty")

	// ErrInvalidScope is returned for a scope with an unknown kind or empty id.
	ErrInvalidScope = errors.New("invalid concurrency scope")

	// ErrEmptyRunID is returned for membership operations on an empty run id.
	ErrEmptyRunID = errors.New("run id cannot be empty")
)
