package runqueue

import "errors"

// ErrFairQueueNil is returned when a nil fair queue is provided.
var ErrFairQueueNil = errors.New("runqueue: fair queue is nil")
