package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/runkit/pkg/events"
	"github.com/dmitrymomot/runkit/pkg/fairqueue"
	"github.com/dmitrymomot/runkit/pkg/taskrun"
)

// RunQueue is the slice of the fair run queue the lifecycle systems need.
// *fairqueue.FairQueue satisfies it.
type RunQueue interface {
	Enqueue(ctx context.Context, msg fairqueue.Message, availableAt time.Time) error
	Ack(ctx context.Context, runID string) error
}

// JobScheduler is the slice of the delayed-job scheduler the lifecycle
// systems need. *jobs.Scheduler satisfies it.
type JobScheduler interface {
	Enqueue(ctx context.Context, jobID, name string, payload any, availableAt time.Time) error
	Reschedule(ctx context.Context, jobID string, availableAt time.Time) error
	Ack(ctx context.Context, jobID string) error
}

// Locker serializes mutations of one run. *runlock.Manager satisfies it.
type Locker interface {
	WithLock(ctx context.Context, runID string, fn func(ctx context.Context) error) error
}

// Engine drives run lifecycle transitions: promoting delayed runs, expiring
// runs past their TTL, releasing runs parked behind a worker version and
// canceling runs. Every mutation of a run happens inside that run's lock, so
// concurrent transitions never interleave.
type Engine struct {
	repo      RunRepository
	queue     RunQueue
	scheduler JobScheduler
	locker    Locker
	bus       events.Bus
	logger    *slog.Logger
	batchSize int
}

// New creates a lifecycle engine. The repository, run queue and job
// scheduler are required; the lock manager, event bus and logger are
// optional (a nil locker runs transitions unlocked, which is only suitable
// for single-process tests).
func New(repo RunRepository, queue RunQueue, scheduler JobScheduler, opts ...Option) (*Engine, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	if queue == nil {
		return nil, ErrQueueNil
	}
	if scheduler == nil {
		return nil, ErrSchedulerNil
	}

	options := &engineOptions{
		logger:    slog.Default(),
		batchSize: 200,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Engine{
		repo:      repo,
		queue:     queue,
		scheduler: scheduler,
		locker:    options.locker,
		bus:       options.bus,
		logger:    options.logger,
		batchSize: options.batchSize,
	}, nil
}

// withRunLock runs fn inside the run's lock when a locker is configured.
func (e *Engine) withRunLock(ctx context.Context, runID string, fn func(ctx context.Context) error) error {
	if e.locker == nil {
		return fn(ctx)
	}
	return e.locker.WithLock(ctx, runID, fn)
}

// snapshot appends an execution snapshot mirroring the run's current state.
func (e *Engine) snapshot(ctx context.Context, run *taskrun.Run, execStatus taskrun.ExecutionStatus, description string) error {
	return e.repo.CreateSnapshot(ctx, &taskrun.Snapshot{
		RunID:           run.ID,
		ExecutionStatus: execStatus,
		RunStatus:       run.Status,
		Description:     description,
		OrganizationID:  run.OrganizationID,
		EnvironmentID:   run.EnvironmentID,
		ProjectID:       run.ProjectID,
	})
}

// emitStatusChanged publishes a best-effort status notification.
func (e *Engine) emitStatusChanged(ctx context.Context, run *taskrun.Run, event string) {
	if e.bus == nil {
		return
	}
	e.bus.Emit(ctx, event, events.RunStatusPayload{
		RunID:          run.ID.String(),
		OrganizationID: run.OrganizationID,
		EnvironmentID:  run.EnvironmentID,
		Status:         string(run.Status),
	})
}

// enqueueToRunQueue places the run on the fair queue, visible immediately.
func (e *Engine) enqueueToRunQueue(ctx context.Context, run *taskrun.Run) error {
	return e.queue.Enqueue(ctx, fairqueue.Message{
		RunID:          run.ID.String(),
		OrganizationID: run.OrganizationID,
		EnvironmentID:  run.EnvironmentID,
		Queue:          run.Queue,
		ConcurrencyKey: run.ConcurrencyKey,
		BatchID:        run.BatchID,
	}, time.Time{})
}
