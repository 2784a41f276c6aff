package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/runkit/pkg/events"
	"github.com/dmitrymomot/runkit/pkg/taskrun"
)

// EnqueueRunsForBackgroundWorker releases runs parked in PENDING_VERSION
// behind the given worker: each is flipped to PENDING, placed on the fair
// run queue and announced on the event bus. One invocation handles at most
// the configured batch size; when more runs remain it schedules a
// continuation job instead of growing the batch, so a huge backlog is worked
// off in bounded slices. It returns the number of runs released.
func (e *Engine) EnqueueRunsForBackgroundWorker(ctx context.Context, workerID string) (int, error) {
	// One extra row tells us whether a continuation is needed without a
	// second count query.
	runs, err := e.repo.PendingVersionRuns(ctx, workerID, e.batchSize+1)
	if err != nil {
		return 0, err
	}
	if len(runs) == 0 {
		return 0, nil
	}

	hasMore := len(runs) > e.batchSize
	if hasMore {
		runs = runs[:e.batchSize]
	}

	released := 0
	for _, run := range runs {
		if err := e.releasePendingVersionRun(ctx, run.ID); err != nil {
			e.logger.ErrorContext(ctx, "failed to release pending-version run",
				slog.String("run_id", run.ID.String()),
				slog.String("worker_id", workerID),
				slog.String("error", err.Error()))
			continue
		}
		released++
	}

	if hasMore {
		if err := e.scheduler.Enqueue(ctx, pendingVersionJobID(workerID), JobPendingVersion,
			workerJobPayload{WorkerID: workerID}, time.Now()); err != nil {
			return released, err
		}
	}
	return released, nil
}

// releasePendingVersionRun promotes one PENDING_VERSION run under its lock,
// re-checking status in case a concurrent cancel won the race.
func (e *Engine) releasePendingVersionRun(ctx context.Context, runID uuid.UUID) error {
	return e.withRunLock(ctx, runID.String(), func(ctx context.Context) error {
		run, err := e.repo.FindRun(ctx, runID)
		if err != nil {
			return err
		}
		if run.Status != taskrun.StatusPendingVersion {
			return nil
		}

		now := time.Now()
		run.Status = taskrun.StatusPending
		run.QueuedAt = &now
		if err := e.repo.UpdateRun(ctx, run); err != nil {
			return err
		}
		if err := e.snapshot(ctx, run, taskrun.ExecutionQueued, "Run was released by a new worker version"); err != nil {
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
