package lifecycle

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/runkit/pkg/jobs"
)

// Job names the lifecycle engine registers on the delayed-job scheduler.
const (
	JobEnqueueDelayedRun = "run.enqueueDelayed"
	JobExpireRun         = "run.expire"
	JobPendingVersion    = "worker.pendingVersion"
)

type runJobPayload struct {
	RunID string `json:"run_id"`
}

type workerJobPayload struct {
	WorkerID string `json:"worker_id"`
}

// Job ids are deterministic per run, so re-scheduling overwrites rather than
// duplicating and cancellation can target them by run id alone.
func enqueueJobID(runID uuid.UUID) string {
	return "run:" + runID.String() + ":enqueue"
}

func expireJobID(runID uuid.UUID) string {
	return "run:" + runID.String() + ":expire"
}

func pendingVersionJobID(workerID string) string {
	return "worker:" + workerID + ":pendingVersion"
}

// HandlerRegistry is the registration surface of the delayed-job scheduler.
// *jobs.Scheduler satisfies it.
type HandlerRegistry interface {
	RegisterHandler(name string, fn jobs.HandlerFunc) error
}

// RegisterJobHandlers wires the engine's self-triggered jobs into the
// scheduler: delayed-run promotion, TTL expiry and pending-version
// continuation batches.
func (e *Engine) RegisterJobHandlers(registry HandlerRegistry) error {
	if err := registry.RegisterHandler(JobEnqueueDelayedRun, func(ctx context.Context, _ string, payload json.RawMessage) error {
		runID, err := decodeRunID(payload)
		if err != nil {
			return err
		}
		return e.EnqueueDelayedRun(ctx, runID)
	}); err != nil {
		return err
	}

	if err := registry.RegisterHandler(JobExpireRun, func(ctx context.Context, _ string, payload json.RawMessage) error {
		runID, err := decodeRunID(payload)
		if err != nil {
			return err
		}
		return e.ExpireRun(ctx, runID)
	}); err != nil {
		return err
	}

	return registry.RegisterHandler(JobPendingVersion, func(ctx context.Context, _ string, payload json.RawMessage) error {
		var p workerJobPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		if p.WorkerID == "" {
			return errors.New("lifecycle: pending-version job missing worker id")
		}
		_, err := e.EnqueueRunsForBackgroundWorker(ctx, p.WorkerID)
		return err
	})
}

func decodeRunID(payload json.RawMessage) (uuid.UUID, error) {
	var p runJobPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(p.RunID)
}
