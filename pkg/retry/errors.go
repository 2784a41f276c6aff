package retry

import "errors"

var (
	// ErrUnknownKind is returned by New for an unrecognized strategy kind.
	ErrUnknownKind = errors.New("unknown retry strategy kind")

	// ErrInvalidMaxAttempts is returned when a strategy requires a positive
	// attempt budget and none was configured.
	ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")
)
