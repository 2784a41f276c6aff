// Package runlock serializes run-state transitions with per-run leases held
// in the shared store.
//
// Multiple worker processes race to transition the same run (a TTL expiry
// firing while a worker claims the run, a reschedule racing an enqueue), so
// in-process mutexes are not enough. The manager wraps every critical
// section in a lease keyed by run id: acquisition retries until a bounded
// timeout and then fails with ErrLockTimeout instead of hanging, and release
// happens on every exit path, panics included. Leases carry a TTL so a
// crashed holder cannot wedge a run forever.
//
// # Usage
//
//	backend, err := runlock.NewRedisBackend(client, "locks")
//	if err != nil {
//	    return err
//	}
//	locks, err := runlock.New(backend, runlock.WithAcquireTimeout(5*time.Second))
//	if err != nil {
//	    return err
//	}
//
//	err = locks.WithLock(ctx, runID, func(ctx context.Context) error {
//	    // read, validate and mutate the run; nothing else touches it here
//	    return nil
//	})
//	if errors.Is(err, runlock.ErrLockTimeout) {
//	    // transient contention: leave the job queued and let it retry
//	}
package runlock
