package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/runkit/pkg/events"
	"github.com/dmitrymomot/runkit/pkg/taskrun"
)

// CancelRun cancels a run that has not started executing: it is marked
// CANCELED, acknowledged out of the fair queue, its scheduled promotion and
// expiry jobs are dropped and its waitpoint is completed with a cancellation
// error. Canceling a run that is already terminal is a no-op; canceling an
// executing run fails with a ValidationError because in-flight work is never
// preempted here.
func (e *Engine) CancelRun(ctx context.Context, runID uuid.UUID, reason string) (*taskrun.Run, error) {
	var canceled *taskrun.Run
	err := e.withRunLock(ctx, runID.String(), func(ctx context.Context) error {
		run, err := e.repo.FindRun(ctx, runID)
		if err != nil {
			return err
		}
		if run.Status.IsTerminal() {
			canceled = run
			return nil
		}
		if !taskrun.CanTransition(run.Status, taskrun.StatusCanceled) {
			return &ValidationError{Reason: fmt.Sprintf(
				"cannot cancel run %s in status %s", runID, run.Status)}
		}

		if reason == "" {
			reason = "Run was canceled"
		}
		runErr := &taskrun.RunError{Code: taskrun.ErrCodeCanceled, Message: reason}
		run.Status = taskrun.StatusCanceled
		run.Error = runErr
		if err := e.repo.UpdateRun(ctx, run); err != nil {
			return err
		}
		if err := e.snapshot(ctx, run, taskrun.ExecutionFinished, "Run was canceled"); err != nil {
			return err
		}

		if err := e.queue.Ack(ctx, runID.String()); err != nil {
			return err
		}
		// Pending promotion and expiry jobs are moot now; ack is idempotent
		// so unknown job ids are fine.
		if err := e.scheduler.Ack(ctx, enqueueJobID(runID)); err != nil {
			return err
		}
		if err := e.scheduler.Ack(ctx, expireJobID(runID)); err != nil {
			return err
		}

		output, _ := json.Marshal(runErr)
		if _, err := e.repo.CompleteWaitpoint(ctx, runID, output, true); err != nil {
			return err
		}

		e.emitStatusChanged(ctx, run, events.RunStatusChanged)
		canceled = run
		return nil
	})
	if err != nil {
		return nil, err
	}
	return canceled, nil
}
