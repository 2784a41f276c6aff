package taskrun

// Status is the lifecycle status of a task run.
type Status string

const (
	StatusPending               Status = "PENDING"
	StatusPendingVersion        Status = "PENDING_VERSION"
	StatusDelayed               Status = "DELAYED"
	StatusExecuting             Status = "EXECUTING"
	StatusWaitingToResume       Status = "WAITING_TO_RESUME"
	StatusRetryingAfterFailure  Status = "RETRYING_AFTER_FAILURE"
	StatusPaused                Status = "PAUSED"
	StatusCompletedSuccessfully Status = "COMPLETED_SUCCESSFULLY"
	StatusCompletedWithErrors   Status = "COMPLETED_WITH_ERRORS"
	StatusInterrupted           Status = "INTERRUPTED"
	StatusCrashed               Status = "CRASHED"
	StatusSystemFailure         Status = "SYSTEM_FAILURE"
	StatusCanceled              Status = "CANCELED"
	StatusExpired               Status = "EXPIRED"
)

// transitions is the allowed status transition table. Terminal statuses have
// no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending:              {StatusExecuting, StatusCanceled, StatusExpired},
	StatusPendingVersion:       {StatusPending, StatusCanceled},
	StatusDelayed:              {StatusPending, StatusCanceled, StatusExpired},
	StatusWaitingToResume:      {StatusExecuting, StatusCanceled},
	StatusRetryingAfterFailure: {StatusExecuting, StatusCanceled},
	StatusPaused:               {StatusExecuting, StatusCanceled},
	StatusExecuting: {
		StatusCompletedSuccessfully,
		StatusCompletedWithErrors,
		StatusInterrupted,
		StatusCrashed,
		StatusSystemFailure,
		StatusWaitingToResume,
		StatusPaused,
	},
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompletedSuccessfully, StatusCompletedWithErrors, StatusInterrupted,
		StatusCrashed, StatusSystemFailure, StatusCanceled, StatusExpired:
		return true
	default:
		return false
	}
}

// IsExecuting reports whether the run is currently in-flight on a worker.
// In-flight runs are never preempted by the scheduler.
func (s Status) IsExecuting() bool {
	switch s {
	case StatusExecuting, StatusWaitingToResume, StatusRetryingAfterFailure:
		return true
	default:
		return false
	}
}

// CanTransition reports whether from→to is a legal status transition.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ExecutionStatus is the status recorded in execution snapshots. The latest
// snapshot for a run defines its current execution state.
type ExecutionStatus string

const (
	ExecutionRunCreated ExecutionStatus = "RUN_CREATED"
	ExecutionQueued     ExecutionStatus = "QUEUED"
	ExecutionExecuting  ExecutionStatus = "EXECUTING"
	ExecutionFinished   ExecutionStatus = "FINISHED"
)
