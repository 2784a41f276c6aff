package events

import "errors"

// ErrConnNil is returned when a nil NATS connection is provided.
var ErrConnNil = errors.New("nats connection cannot be nil")
