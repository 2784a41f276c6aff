package lifecycle

import "errors"

var (
	// ErrRunNotFound is returned when a run id does not exist.
	ErrRunNotFound = errors.New("lifecycle: run not found")

	// ErrSnapshotNotFound is returned when a run has no execution snapshots.
	ErrSnapshotNotFound = errors.New("lifecycle: snapshot not found")

	// ErrRepositoryNil is returned when a nil repository is provided.
	ErrRepositoryNil = errors.New("lifecycle: repository is nil")

	// ErrQueueNil is returned when a nil run queue is provided.
	ErrQueueNil = errors.New("lifecycle: run queue is nil")

	// ErrSchedulerNil is returned when a nil job scheduler is provided.
	ErrSchedulerNil = errors.New("lifecycle: job scheduler is nil")
)

// ValidationError reports a request that is well-formed but illegal in the
// run's current state, such as rescheduling a run that already left the
// created state. It is distinct from ErrRunNotFound so callers can map the
// two to different responses.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "lifecycle: " + e.Reason
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
