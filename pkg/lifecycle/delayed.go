package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/runkit/pkg/duration"
	"github.com/dmitrymomot/runkit/pkg/events"
	"github.com/dmitrymomot/runkit/pkg/taskrun"
)

// ScheduleDelayedRun records the run's initial execution snapshot and
// schedules the job that will promote it to PENDING at its delay-until time.
// The run must already be persisted in DELAYED status with DelayUntil set.
func (e *Engine) ScheduleDelayedRun(ctx context.Context, runID uuid.UUID) error {
	return e.withRunLock(ctx, runID.String(), func(ctx context.Context) error {
		run, err := e.repo.FindRun(ctx, runID)
		if err != nil {
			return err
		}
		if run.Status != taskrun.StatusDelayed || run.DelayUntil == nil {
			return &ValidationError{Reason: fmt.Sprintf("run %s is not a delayed run", runID)}
		}

		if err := e.snapshot(ctx, run, taskrun.ExecutionRunCreated, "Delayed run was created"); err != nil {
			return err
		}
		return e.scheduler.Enqueue(ctx, enqueueJobID(runID), JobEnqueueDelayedRun,
			runJobPayload{RunID: runID.String()}, *run.DelayUntil)
	})
}

// RescheduleDelayedRun moves a delayed run's promotion time. It is only
// legal while the run's latest snapshot is still RUN_CREATED; once the run
// has been enqueued the request fails with a ValidationError and the run is
// left untouched.
func (e *Engine) RescheduleDelayedRun(ctx context.Context, runID uuid.UUID, delayUntil time.Time) (*taskrun.Run, error) {
	var updated *taskrun.Run
	err := e.withRunLock(ctx, runID.String(), func(ctx context.Context) error {
		run, err := e.repo.FindRun(ctx, runID)
		if err != nil {
			return err
		}

		latest, err := e.repo.LatestSnapshot(ctx, runID)
		if err != nil {
			return err
		}
		if latest.ExecutionStatus != taskrun.ExecutionRunCreated {
			return &ValidationError{Reason: fmt.Sprintf(
				"cannot reschedule run %s: execution status is %s", runID, latest.ExecutionStatus)}
		}

		run.DelayUntil = &delayUntil
		if err := e.repo.UpdateRun(ctx, run); err != nil {
			return err
		}
		if err := e.snapshot(ctx, run, taskrun.ExecutionRunCreated, "Delayed run was rescheduled"); err != nil {
			return err
		}

		if err := e.scheduler.Reschedule(ctx, enqueueJobID(runID), delayUntil); err != nil {
			// The promotion job may have fired and been acked already while
			// the run was still reschedulable. Recreate it.
			return e.scheduler.Enqueue(ctx, enqueueJobID(runID), JobEnqueueDelayedRun,
				runJobPayload{RunID: runID.String()}, delayUntil)
		}

		updated = run
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// EnqueueDelayedRun promotes a delayed run whose time has come: flips it to
// PENDING with a queued-at timestamp, places it on the fair run queue and,
// when the run carries a TTL, schedules the expiry job. A run that already
// left DELAYED is skipped, so redelivered promotion jobs are harmless.
func (e *Engine) EnqueueDelayedRun(ctx context.Context, runID uuid.UUID) error {
	return e.withRunLock(ctx, runID.String(), func(ctx context.Context) error {
		run, err := e.repo.FindRun(ctx, runID)
		if err != nil {
			return err
		}
		if run.Status != taskrun.StatusDelayed {
			e.logger.DebugContext(ctx, "skipping delayed run promotion",
				slog.String("run_id", runID.String()),
				slog.String("status", string(run.Status)))
			return nil
		}

		now := time.Now()
		run.Status = taskrun.StatusPending
		run.QueuedAt = &now
		if err := e.repo.UpdateRun(ctx, run); err != nil {
			return err
		}
		if err := e.snapshot(ctx, run, taskrun.ExecutionQueued, "Delayed run was enqueued"); err != nil {
			return err
		}

		if err := e.enqueueToRunQueue(ctx, run); err != nil {
			return err
		}
		if err := e.scheduleTTLExpiry(ctx, run, now); err != nil {
			return err
		}

		e.emitStatusChanged(ctx, run, events.RunStatusChanged)
		return nil
	})
}

// scheduleTTLExpiry schedules the run's expiry job at queuedAt + TTL. An
// unparseable or absent TTL schedules nothing.
func (e *Engine) scheduleTTLExpiry(ctx context.Context, run *taskrun.Run, queuedAt time.Time) error {
	if run.TTL == "" {
		return nil
	}
	deadline, ok := duration.Deadline(queuedAt, run.TTL)
	if !ok {
		e.logger.WarnContext(ctx, "unparseable run ttl, skipping expiry",
			slog.String("run_id", run.ID.String()),
			slog.String("ttl", run.TTL))
		return nil
	}
	return e.scheduler.Enqueue(ctx, expireJobID(run.ID), JobExpireRun,
		runJobPayload{RunID: run.ID.String()}, deadline)
}
