// Package lifecycle drives task runs through their state machine.
//
// The Engine owns the transitions the control plane triggers on its own
// schedule rather than on a worker's behalf: promoting DELAYED runs to
// PENDING when their delay elapses, expiring PENDING runs whose TTL was
// exceeded, releasing PENDING_VERSION runs when a new worker version
// activates, and canceling runs that have not started. Each transition runs
// inside a per-run lock, re-checks the run's status after acquiring it and
// persists status, execution snapshot and queue state before announcing the
// change on the event bus.
//
// The engine self-triggers future work through the delayed-job scheduler:
// ScheduleDelayedRun plants the promotion job, promotion plants the TTL
// expiry job, and pending-version batches plant their own continuation when
// a backlog exceeds one batch. RegisterJobHandlers wires those jobs back
// into the engine.
//
// # Usage
//
//	engine, err := lifecycle.New(repo, runQueue, scheduler,
//		lifecycle.WithLocker(locks),
//		lifecycle.WithEventBus(bus),
//	)
//	if err != nil {
//		return err
//	}
//	if err := engine.RegisterJobHandlers(scheduler); err != nil {
//		return err
//	}
//
//	// A delayed run was created by the trigger API:
//	err = engine.ScheduleDelayedRun(ctx, run.ID)
//
// Failure semantics: a ValidationError means the run is in the wrong state
// for the requested transition and must not be retried; a store error leaves
// the run in its last durable state and propagates for the caller's retry
// layer to handle.
package lifecycle
