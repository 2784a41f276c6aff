package runqueue

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/runkit/pkg/concurrency"
	"github.com/dmitrymomot/runkit/pkg/fairqueue"
	"github.com/dmitrymomot/runkit/pkg/taskrun"
)

// Queue is the enqueue/dequeue boundary between run producers, workers and
// the fair queue. It derives queue placement from the run's tenant scope and
// keeps concurrency accounting in step with the message lifecycle: a
// dequeued run reserves capacity, a run confirmed executing converts the
// reservation, and completion or acknowledgment releases it.
type Queue struct {
	fq      *fairqueue.FairQueue
	tracker concurrency.Tracker
	logger  *slog.Logger
}

// New creates a run queue. The tracker may be nil, which disables
// concurrency accounting (capacity is then unlimited).
func New(fq *fairqueue.FairQueue, tracker concurrency.Tracker, opts ...Option) (*Queue, error) {
	if fq == nil {
		return nil, ErrFairQueueNil
	}

	options := &queueOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	return &Queue{fq: fq, tracker: tracker, logger: options.logger}, nil
}

// EnqueueRun places a run on the fair queue, visible from availableAt
// (immediately when zero). Placement is derived from the run's organization,
// environment, queue name and optional concurrency key.
func (q *Queue) EnqueueRun(ctx context.Context, run *taskrun.Run, batchID string, availableAt time.Time) error {
	return q.fq.Enqueue(ctx, fairqueue.Message{
		RunID:          run.ID.String(),
		OrganizationID: run.OrganizationID,
		EnvironmentID:  run.EnvironmentID,
		Queue:          run.Queue,
		ConcurrencyKey: run.ConcurrencyKey,
		BatchID:        batchID,
	}, availableAt)
}

// Enqueue forwards a prepared message to the fair queue.
func (q *Queue) Enqueue(ctx context.Context, msg fairqueue.Message, availableAt time.Time) error {
	return q.fq.Enqueue(ctx, msg, availableAt)
}

// Dequeue claims the next run for the consumer and reserves concurrency on
// every scope the run occupies. The reservation guards against over-admitting
// while the worker is still starting up; MarkExecuting converts it once the
// run actually starts.
func (q *Queue) Dequeue(ctx context.Context, shard, consumerID string) (*fairqueue.Message, error) {
	msg, err := q.fq.Dequeue(ctx, shard, consumerID)
	if err != nil || msg == nil {
		return msg, err
	}

	if q.tracker != nil {
		for _, scope := range scopesOf(msg) {
			if err := q.tracker.AddReserved(ctx, scope, msg.RunID); err != nil {
				q.logger.ErrorContext(ctx, "failed to reserve concurrency",
					slog.String("run_id", msg.RunID),
					slog.String("scope", string(scope.Kind)),
					slog.String("error", err.Error()))
			}
		}
	}
	return msg, nil
}

// MarkExecuting converts the run's concurrency reservation into current
// concurrency once a worker confirms the run started.
func (q *Queue) MarkExecuting(ctx context.Context, msg *fairqueue.Message) error {
	if q.tracker == nil {
		return nil
	}
	for _, scope := range scopesOf(msg) {
		if err := q.tracker.MarkExecuting(ctx, scope, msg.RunID); err != nil {
			return err
		}
	}
	return nil
}

// Complete acknowledges the run out of the queue and releases its
// concurrency on every scope. This is the worker-side terminal path.
func (q *Queue) Complete(ctx context.Context, msg *fairqueue.Message) error {
	if err := q.fq.Ack(ctx, msg.RunID); err != nil {
		return err
	}
	if q.tracker == nil {
		return nil
	}
	for _, scope := range scopesOf(msg) {
		if err := q.tracker.Release(ctx, scope, msg.RunID); err != nil {
			return err
		}
	}
	return nil
}

// Ack acknowledges a run that was never dequeued, such as an expired or
// canceled run still sitting in the queue. No concurrency was reserved for
// it, so none is released.
func (q *Queue) Ack(ctx context.Context, runID string) error {
	return q.fq.Ack(ctx, runID)
}

// Shard returns the master-queue shard for the tenant.
func (q *Queue) Shard(tenantID string) string {
	return q.fq.Shard(tenantID)
}

// scopesOf lists every concurrency scope a run occupies: its organization,
// environment and queue, the last optionally sub-partitioned by the run's
// concurrency key.
func scopesOf(msg *fairqueue.Message) []concurrency.Scope {
	return []concurrency.Scope{
		{Kind: concurrency.ScopeOrganization, ID: msg.OrganizationID},
		{Kind: concurrency.ScopeEnvironment, ID: msg.EnvironmentID},
		{Kind: concurrency.ScopeQueue, ID: fairqueue.Descriptor(msg.OrganizationID, msg.EnvironmentID, msg.Queue), Key: msg.ConcurrencyKey},
	}
}
