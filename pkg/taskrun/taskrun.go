package taskrun

import (
	"time"

	"github.com/google/uuid"
)

// Run is one unit of work driven through the lifecycle. It is owned by the
// control plane and mutated only inside a per-run lock.
type Run struct {
	ID         uuid.UUID `json:"id"`
	FriendlyID string    `json:"friendly_id"`
	Status     Status    `json:"status"`

	Queue          string `json:"queue"`
	OrganizationID string `json:"organization_id"`
	EnvironmentID  string `json:"environment_id"`
	ProjectID      string `json:"project_id"`
	ConcurrencyKey string `json:"concurrency_key,omitempty"`

	TaskIdentifier string     `json:"task_identifier"`
	WorkerID       string     `json:"worker_id,omitempty"`
	BatchID        string     `json:"batch_id,omitempty"`
	TTL            string     `json:"ttl,omitempty"`
	DelayUntil     *time.Time `json:"delay_until,omitempty"`
	QueuedAt       *time.Time `json:"queued_at,omitempty"`
	LockedAt       *time.Time `json:"locked_at,omitempty"`
	LockedBy       string     `json:"locked_by,omitempty"`

	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	Error       *RunError `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot is an immutable, append-only record of a run's execution state.
// Snapshots are never mutated or deleted; the latest one for a run id is the
// run's current execution status.
type Snapshot struct {
	ID              uuid.UUID       `json:"id"`
	RunID           uuid.UUID       `json:"run_id"`
	ExecutionStatus ExecutionStatus `json:"execution_status"`
	RunStatus       Status          `json:"run_status"`
	Description     string          `json:"description,omitempty"`

	OrganizationID string `json:"organization_id"`
	EnvironmentID  string `json:"environment_id"`
	ProjectID      string `json:"project_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Waitpoint is a one-shot completion signal associated with a run. It is
// completed exactly once; duplicate completions are ignored.
type Waitpoint struct {
	ID          uuid.UUID  `json:"id"`
	RunID       uuid.UUID  `json:"run_id"`
	Completed   bool       `json:"completed"`
	IsError     bool       `json:"is_error"`
	Output      []byte     `json:"output,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunError is the structured error a run terminates with.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RunError) Error() string {
	return e.Code + ": " + e.Message
}

// Error codes for scheduler-driven terminal transitions.
const (
	ErrCodeTTLExceeded = "TASK_RUN_TTL_EXCEEDED"
	ErrCodeCanceled    = "TASK_RUN_CANCELED"
)
