package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/runkit/pkg/events"
	"github.com/dmitrymomot/runkit/pkg/taskrun"
)

// ExpireRun retires a run whose TTL elapsed before a worker picked it up.
// It never preempts work: a run that is executing, claimed by a worker
// (locked-at set) or no longer PENDING is left alone. Expiry marks the run
// EXPIRED with a structured error, records a FINISHED snapshot, acknowledges
// the run out of the fair queue and completes its waitpoint with an error
// output. Calling it again on an expired run is a no-op.
func (e *Engine) ExpireRun(ctx context.Context, runID uuid.UUID) error {
	return e.withRunLock(ctx, runID.String(), func(ctx context.Context) error {
		run, err := e.repo.FindRun(ctx, runID)
		if err != nil {
			if errors.Is(err, ErrRunNotFound) {
				// The run vanished; expiring it is moot.
				e.logger.DebugContext(ctx, "expiry target not found",
					slog.String("run_id", runID.String()))
				return nil
			}
			return err
		}

		switch {
		case run.Status.IsExecuting():
			e.logger.DebugContext(ctx, "skipping expiry of executing run",
				slog.String("run_id", runID.String()))
			return nil
		case run.Status != taskrun.StatusPending:
			e.logger.DebugContext(ctx, "skipping expiry, run left pending",
				slog.String("run_id", runID.String()),
				slog.String("status", string(run.Status)))
			return nil
		case run.LockedAt != nil:
			// A worker claimed the run while the expiry job was in flight.
			e.logger.DebugContext(ctx, "skipping expiry of locked run",
				slog.String("run_id", runID.String()),
				slog.String("locked_by", run.LockedBy))
			return nil
		}

		runErr := &taskrun.RunError{
			Code:    taskrun.ErrCodeTTLExceeded,
			Message: fmt.Sprintf("Run expired because the TTL (%s) was exceeded", run.TTL),
		}
		run.Status = taskrun.StatusExpired
		run.Error = runErr
		if err := e.repo.UpdateRun(ctx, run); err != nil {
			return err
		}
		if err := e.snapshot(ctx, run, taskrun.ExecutionFinished, "Run was expired because the TTL was reached"); err != nil {
			return err
		}

		if err := e.queue.Ack(ctx, runID.String()); err != nil {
			return err
		}

		output, _ := json.Marshal(runErr)
		if _, err := e.repo.CompleteWaitpoint(ctx, runID, output, true); err != nil {
			return err
		}

		e.emitStatusChanged(ctx, run, events.RunExpired)
		return nil
	})
}
