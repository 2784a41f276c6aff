// Package concurrency tracks in-flight run concurrency per scope
// (organization, environment, queue) and answers capacity checks for the
// fair scheduler.
//
// Current concurrency is set membership keyed by run id: a run enters the
// reserved set when it is dequeued, moves to the current set when a worker
// confirms it is executing, and leaves both on any terminal transition.
// Capacity is current+reserved compared against the scope's configured
// limit; counting reservations prevents over-admitting runs while workers
// are still starting up. Scopes without a configured limit are unlimited.
//
// An organization can be disabled outright: a disabled org reports
// at-capacity on every check, which acts as a tenant kill-switch without
// touching its limits.
//
// The Redis tracker performs every mutation as a single command or Lua
// script so that concurrent worker processes never race a read-modify-write;
// the memory tracker backs tests.
//
// # Usage
//
//	tracker, err := concurrency.NewRedisTracker(client, "cc")
//	if err != nil {
//	    return err
//	}
//
//	scope := concurrency.Scope{Kind: concurrency.ScopeOrganization, ID: orgID}
//	_ = tracker.SetLimit(ctx, scope, 25)
//
//	full, err := tracker.IsAtCapacity(ctx, scope)
//	if err == nil && !full {
//	    _ = tracker.AddReserved(ctx, scope, runID)
//	}
package concurrency
