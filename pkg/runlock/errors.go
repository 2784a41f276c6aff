package runlock

import "errors"

var (
	// ErrBackendNil is returned when a nil backend is provided.
	ErrBackendNil = errors.New("backend cannot be nil")

	// ErrClientNil is returned when a nil Redis client is provided.
	ErrClientNil = errors.New("redis client cannot be nil")

	// ErrEmptyRunID is returned when locking an empty run id.
	ErrEmptyRunID = errors.New("run id cannot be empty")

	// ErrNilCriticalSection is returned when WithLock is called without a
	// function.
	ErrNilCriticalSection = errors.New("critical section cannot be nil")

	// ErrLockTimeout is returned when the lease could not be acquired within
	// the acquire timeout. It marks transient contention: callers retry from
	// their outer scheduling loop rather than failing the transition.
	ErrLockTimeout = errors.New("timed out acquiring run lock")
)
