package jobs

import "errors"

var (
	// ErrStoreNil is returned when a nil delayed store is provided.
	ErrStoreNil = errors.New("store cannot be nil")

	// ErrEmptyJobID is returned for operations on an empty job id.
	ErrEmptyJobID = errors.New("job id cannot be empty")

	// ErrEmptyJobName is returned when a job is enqueued without a name.
	ErrEmptyJobName = errors.New("job name cannot be empty")

	// ErrInvalidHandler is returned when a handler registration is missing a
	// name or function.
	ErrInvalidHandler = errors.New("handler name and function are required")

	// ErrHandlerRegistered is returned on duplicate handler registration.
	ErrHandlerRegistered = errors.New("handler already registered")

	// ErrHandlerNotFound is returned at dispatch time for an unknown job name.
	ErrHandlerNotFound = errors.New("no handler registered for job")

	// ErrJobNotFound is returned when rescheduling a job that is no longer
	// scheduled.
	ErrJobNotFound = errors.New("job not found")

	// ErrPayloadMarshal is returned when a job payload cannot be marshaled.
	ErrPayloadMarshal = errors.New("failed to marshal job payload")
)
