// Package jobs implements a generic delayed job scheduler on top of the
// delayed store: schedule named jobs for future execution, reschedule or
// acknowledge them by id, and dispatch fired jobs to registered handlers.
//
// The scheduler is the self-trigger primitive of the run lifecycle systems.
// "Enqueue this delayed run at time T" and "expire this run if still pending
// at time T" are both jobs with deterministic ids, which makes scheduling
// idempotent: enqueueing the same id again overwrites the schedule, and
// acknowledging an id that already fired is a no-op.
//
// # Usage
//
//	sched, err := jobs.NewScheduler(store)
//	if err != nil {
//	    return err
//	}
//
//	_ = sched.RegisterHandler("run.expire", func(ctx context.Context, jobID string, payload json.RawMessage) error {
//	    var p ExpirePayload
//	    if err := json.Unmarshal(payload, &p); err != nil {
//	        return err
//	    }
//	    return ttl.ExpireRun(ctx, p.RunID)
//	})
//
//	_ = sched.Enqueue(ctx, "expire-run:"+runID, "run.expire", ExpirePayload{RunID: runID}, deadline)
//
//	_ = sched.Start(ctx)
//	defer sched.Stop()
//
// Dispatch failures go through the underlying processor's retry policy;
// an unregistered job name is just another failure, so a handler shipped by
// a newer deploy can still pick the job up on a later attempt.
package jobs
