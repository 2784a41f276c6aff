package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/runkit/pkg/taskrun"
)

// RunRepository is the persistence boundary for runs, snapshots and
// waitpoints. Implementations must return ErrRunNotFound for unknown run ids
// and keep snapshots append-only.
type RunRepository interface {
	// FindRun loads a run by id.
	FindRun(ctx context.Context, id uuid.UUID) (*taskrun.Run, error)

	// UpdateRun persists the run's current state.
	UpdateRun(ctx context.Context, run *taskrun.Run) error

	// LatestSnapshot returns the most recent execution snapshot for the run,
	// or ErrSnapshotNotFound when none exists.
	LatestSnapshot(ctx context.Context, runID uuid.UUID) (*taskrun.Snapshot, error)

	// CreateSnapshot appends an execution snapshot. Snapshots are immutable
	// once written.
	CreateSnapshot(ctx context.Context, snapshot *taskrun.Snapshot) error

	// CompleteWaitpoint completes the run's associated waitpoint. It reports
	// true when this call completed it and false when it was already
	// completed or the run has no waitpoint, so terminal transitions stay
	// idempotent.
	CompleteWaitpoint(ctx context.Context, runID uuid.UUID, output []byte, isError bool) (bool, error)

	// PendingVersionRuns lists runs in PENDING_VERSION waiting on the given
	// worker, oldest first, up to limit.
	PendingVersionRuns(ctx context.Context, workerID string, limit int) ([]*taskrun.Run, error)
}
