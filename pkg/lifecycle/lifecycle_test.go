package lifecycle_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/runkit/pkg/delayedstore"
	"github.com/dmitrymomot/runkit/pkg/events"
	"github.com/dmitrymomot/runkit/pkg/fairqueue"
	"github.com/dmitrymomot/runkit/pkg/jobs"
	"github.com/dmitrymomot/runkit/pkg/lifecycle"
	"github.com/dmitrymomot/runkit/pkg/runlock"
	"github.com/dmitrymomot/runkit/pkg/taskrun"
)

type harness struct {
	repo      *lifecycle.MemoryRepository
	queue     *fairqueue.FairQueue
	scheduler *jobs.Scheduler
	bus       *events.MemoryBus
	engine    *lifecycle.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	repo := lifecycle.NewMemoryRepository()

	queue, err := fairqueue.New(fairqueue.NewMemoryBackend())
	require.NoError(t, err)

	scheduler, err := jobs.NewScheduler(delayedstore.NewMemoryStore())
	require.NoError(t, err)

	locker, err := runlock.New(runlock.NewMemoryBackend())
	require.NoError(t, err)

	bus := events.NewMemoryBus()

	engine, err := lifecycle.New(repo, queue, scheduler,
		lifecycle.WithLocker(locker),
		lifecycle.WithEventBus(bus),
	)
	require.NoError(t, err)

	return &harness{repo: repo, queue: queue, scheduler: scheduler, bus: bus, engine: engine}
}

func delayedRun(delayUntil time.Time) *taskrun.Run {
	now := time.Now()
	return &taskrun.Run{
		ID:             uuid.New(),
		FriendlyID:     "run_test",
		Status:         taskrun.StatusDelayed,
		Queue:          "default",
		OrganizationID: "org-1",
		EnvironmentID:  "env-1",
		ProjectID:      "proj-1",
		TaskIdentifier: "my-task",
		DelayUntil:     &delayUntil,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestEngine_ScheduleDelayedRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)

	run := delayedRun(time.Now().Add(time.Hour))
	h.repo.SeedRun(run)

	require.NoError(t, h.engine.ScheduleDelayedRun(ctx, run.ID))

	snaps := h.repo.Snapshots(run.ID)
	require.Len(t, snaps, 1)
	assert.Equal(t, taskrun.ExecutionRunCreated, snaps[0].ExecutionStatus)
	assert.Equal(t, taskrun.StatusDelayed, snaps[0].RunStatus)

	size, err := h.scheduler.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	t.Run("rejects non-delayed run", func(t *testing.T) {
		pending := delayedRun(time.Now())
		pending.Status = taskrun.StatusPending
		h.repo.SeedRun(pending)

		err := h.engine.ScheduleDelayedRun(ctx, pending.ID)
		assert.True(t, lifecycle.IsValidationError(err))
	})
}

func TestEngine_RescheduleDelayedRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("moves delay while run is still created", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		run := delayedRun(time.Now().Add(time.Hour))
		h.repo.SeedRun(run)
		require.NoError(t, h.engine.ScheduleDelayedRun(ctx, run.ID))

		newDelay := time.Now().Add(2 * time.Hour)
		updated, err := h.engine.RescheduleDelayedRun(ctx, run.ID, newDelay)
		require.NoError(t, err)
		require.NotNil(t, updated.DelayUntil)
		assert.WithinDuration(t, newDelay, *updated.DelayUntil, time.Millisecond)

		snaps := h.repo.Snapshots(run.ID)
		require.Len(t, snaps, 2)
		assert.Equal(t, taskrun.ExecutionRunCreated, snaps[1].ExecutionStatus)
		assert.Equal(t, "Delayed run was rescheduled", snaps[1].Description)
	})

	t.Run("rejects once the run was enqueued", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		originalDelay := time.Now().Add(-time.Second)
		run := delayedRun(originalDelay)
		h.repo.SeedRun(run)
		require.NoError(t, h.engine.ScheduleDelayedRun(ctx, run.ID))
		require.NoError(t, h.engine.EnqueueDelayedRun(ctx, run.ID))

		_, err := h.engine.RescheduleDelayedRun(ctx, run.ID, time.Now().Add(time.Hour))
		require.Error(t, err)
		assert.True(t, lifecycle.IsValidationError(err))

		// The run's delay is untouched by the failed request.
		after, err := h.repo.FindRun(ctx, run.ID)
		require.NoError(t, err)
		require.NotNil(t, after.DelayUntil)
		assert.WithinDuration(t, originalDelay, *after.DelayUntil, time.Millisecond)
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		_, err := h.engine.RescheduleDelayedRun(ctx, uuid.New(), time.Now().Add(time.Hour))
		assert.ErrorIs(t, err, lifecycle.ErrRunNotFound)
	})
}

func TestEngine_EnqueueDelayedRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("promotes to pending and queues the run", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		run := delayedRun(time.Now().Add(-time.Second))
		run.TTL = "10m"
		h.repo.SeedRun(run)
		require.NoError(t, h.engine.ScheduleDelayedRun(ctx, run.ID))

		require.NoError(t, h.engine.EnqueueDelayedRun(ctx, run.ID))

		after, err := h.repo.FindRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, taskrun.StatusPending, after.Status)
		require.NotNil(t, after.QueuedAt)

		snaps := h.repo.Snapshots(run.ID)
		require.Len(t, snaps, 2)
		assert.Equal(t, taskrun.ExecutionQueued, snaps[1].ExecutionStatus)

		// The run is claimable from the fair queue.
		msg, err := h.queue.Dequeue(ctx, "main", "consumer-1")
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, run.ID.String(), msg.RunID)

		// The promotion job was scheduled before; the TTL expiry job joins it.
		size, err := h.scheduler.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), size)

		emitted := h.bus.ByName(events.RunStatusChanged)
		require.Len(t, emitted, 1)
	})

	t.Run("skips a run that already left delayed", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		run := delayedRun(time.Now().Add(-time.Second))
		run.Status = taskrun.StatusCanceled
		h.repo.SeedRun(run)

		require.NoError(t, h.engine.EnqueueDelayedRun(ctx, run.ID))

		after, err := h.repo.FindRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, taskrun.StatusCanceled, after.Status)
		assert.Empty(t, h.repo.Snapshots(run.ID))
	})

	t.Run("unparseable ttl schedules no expiry", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		run := delayedRun(time.Now().Add(-time.Second))
		run.TTL = "whenever"
		h.repo.SeedRun(run)

		require.NoError(t, h.engine.EnqueueDelayedRun(ctx, run.ID))

		size, err := h.scheduler.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), size)
	})
}

func TestEngine_ExpireRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("expires a pending run", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		run := delayedRun(time.Now().Add(-time.Minute))
		run.TTL = "1s"
		h.repo.SeedRun(run)
		h.repo.SeedWaitpoint(run.ID)
		require.NoError(t, h.engine.EnqueueDelayedRun(ctx, run.ID))

		require.NoError(t, h.engine.ExpireRun(ctx, run.ID))

		after, err := h.repo.FindRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, taskrun.StatusExpired, after.Status)
		require.NotNil(t, after.Error)
		assert.Equal(t, taskrun.ErrCodeTTLExceeded, after.Error.Code)

		snaps := h.repo.Snapshots(run.ID)
		require.Len(t, snaps, 2)
		assert.Equal(t, taskrun.ExecutionFinished, snaps[1].ExecutionStatus)
		assert.Equal(t, taskrun.StatusExpired, snaps[1].RunStatus)

		// Acked out of the queue: never dequeued again.
		msg, err := h.queue.Dequeue(ctx, "main", "consumer-1")
		require.NoError(t, err)
		assert.Nil(t, msg)

		wp, ok := h.repo.Waitpoint(run.ID)
		require.True(t, ok)
		assert.True(t, wp.Completed)
		assert.True(t, wp.IsError)

		require.Len(t, h.bus.ByName(events.RunExpired), 1)
	})

	t.Run("second expiry is a no-op", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		run := delayedRun(time.Now().Add(-time.Minute))
		h.repo.SeedRun(run)
		h.repo.SeedWaitpoint(run.ID)
		require.NoError(t, h.engine.EnqueueDelayedRun(ctx, run.ID))
		require.NoError(t, h.engine.ExpireRun(ctx, run.ID))

		snapsBefore := len(h.repo.Snapshots(run.ID))
		wpBefore, _ := h.repo.Waitpoint(run.ID)

		require.NoError(t, h.engine.ExpireRun(ctx, run.ID))

		assert.Len(t, h.repo.Snapshots(run.ID), snapsBefore)
		wpAfter, _ := h.repo.Waitpoint(run.ID)
		assert.Equal(t, wpBefore.CompletedAt, wpAfter.CompletedAt)
		assert.Len(t, h.bus.ByName(events.RunExpired), 1)
	})

	t.Run("never preempts executing or locked runs", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		executing := delayedRun(time.Now())
		executing.Status = taskrun.StatusExecuting
		h.repo.SeedRun(executing)
		require.NoError(t, h.engine.ExpireRun(ctx, executing.ID))
		after, err := h.repo.FindRun(ctx, executing.ID)
		require.NoError(t, err)
		assert.Equal(t, taskrun.StatusExecuting, after.Status)

		locked := delayedRun(time.Now())
		locked.Status = taskrun.StatusPending
		now := time.Now()
		locked.LockedAt = &now
		locked.LockedBy = "worker-7"
		h.repo.SeedRun(locked)
		require.NoError(t, h.engine.ExpireRun(ctx, locked.ID))
		after, err = h.repo.FindRun(ctx, locked.ID)
		require.NoError(t, err)
		assert.Equal(t, taskrun.StatusPending, after.Status)
	})

	t.Run("vanished run is a no-op", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		assert.NoError(t, h.engine.ExpireRun(ctx, uuid.New()))
	})
}

func TestEngine_CancelRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("cancels a pending run", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		run := delayedRun(time.Now().Add(-time.Second))
		h.repo.SeedRun(run)
		h.repo.SeedWaitpoint(run.ID)
		require.NoError(t, h.engine.EnqueueDelayedRun(ctx, run.ID))

		canceled, err := h.engine.CancelRun(ctx, run.ID, "user requested cancellation")
		require.NoError(t, err)
		assert.Equal(t, taskrun.StatusCanceled, canceled.Status)
		require.NotNil(t, canceled.Error)
		assert.Equal(t, taskrun.ErrCodeCanceled, canceled.Error.Code)

		msg, err := h.queue.Dequeue(ctx, "main", "consumer-1")
		require.NoError(t, err)
		assert.Nil(t, msg)

		wp, ok := h.repo.Waitpoint(run.ID)
		require.True(t, ok)
		assert.True(t, wp.Completed)
	})

	t.Run("terminal run is a no-op", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		run := delayedRun(time.Now())
		run.Status = taskrun.StatusCompletedSuccessfully
		h.repo.SeedRun(run)

		canceled, err := h.engine.CancelRun(ctx, run.ID, "")
		require.NoError(t, err)
		assert.Equal(t, taskrun.StatusCompletedSuccessfully, canceled.Status)
		assert.Empty(t, h.repo.Snapshots(run.ID))
	})

	t.Run("executing run cannot be canceled here", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		run := delayedRun(time.Now())
		run.Status = taskrun.StatusExecuting
		h.repo.SeedRun(run)

		_, err := h.engine.CancelRun(ctx, run.ID, "")
		assert.True(t, lifecycle.IsValidationError(err))
	})
}

// jobRecorder captures scheduled jobs so batching behavior can be asserted
// precisely.
type jobRecorder struct {
	mu       sync.Mutex
	enqueued map[string]int
}

func newJobRecorder() *jobRecorder {
	return &jobRecorder{enqueued: make(map[string]int)}
}

func (r *jobRecorder) Enqueue(_ context.Context, _, name string, _ any, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueued[name]++
	return nil
}

func (r *jobRecorder) Reschedule(context.Context, string, time.Time) error { return nil }
func (r *jobRecorder) Ack(context.Context, string) error                   { return nil }

func (r *jobRecorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enqueued[name]
}

func TestEngine_EnqueueRunsForBackgroundWorker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := lifecycle.NewMemoryRepository()
	queue, err := fairqueue.New(fairqueue.NewMemoryBackend())
	require.NoError(t, err)
	recorder := newJobRecorder()
	bus := events.NewMemoryBus()

	engine, err := lifecycle.New(repo, queue, recorder,
		lifecycle.WithEventBus(bus),
		lifecycle.WithBatchSize(200),
	)
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 250; i++ {
		run := delayedRun(base)
		run.ID = uuid.New()
		run.FriendlyID = fmt.Sprintf("run_%d", i)
		run.Status = taskrun.StatusPendingVersion
		run.DelayUntil = nil
		run.WorkerID = "worker-1"
		run.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
		repo.SeedRun(run)
	}

	// First invocation releases one full batch and schedules one
	// continuation.
	released, err := engine.EnqueueRunsForBackgroundWorker(ctx, "worker-1")
	require.NoError(t, err)
	assert.Equal(t, 200, released)
	assert.Equal(t, 1, recorder.count(lifecycle.JobPendingVersion))

	remaining, err := repo.PendingVersionRuns(ctx, "worker-1", 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 50)

	// The continuation drains the rest and schedules nothing further.
	released, err = engine.EnqueueRunsForBackgroundWorker(ctx, "worker-1")
	require.NoError(t, err)
	assert.Equal(t, 50, released)
	assert.Equal(t, 1, recorder.count(lifecycle.JobPendingVersion))

	assert.Len(t, bus.ByName(events.RunStatusChanged), 250)

	// A worker with no parked runs releases nothing.
	released, err = engine.EnqueueRunsForBackgroundWorker(ctx, "worker-2")
	require.NoError(t, err)
	assert.Zero(t, released)
}
