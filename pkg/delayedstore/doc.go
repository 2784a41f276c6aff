// Package delayedstore implements a durable, score-ordered delayed item
// store: a time-ordered index of ids (sorted set) paired with a payload map
// (hash).
//
// It is the shared bedrock under the higher-level queueing packages. The work
// queue, the delayed job scheduler and the fair run queue all reduce to the
// same pair of structures; this package owns the pair and guarantees that
// both writes of every multi-step operation land atomically.
//
// Two implementations are provided:
//
//   - RedisStore runs each multi-step operation as a server-side Lua script,
//     so multiple processes can share one store without read-modify-write
//     races. A crash between the index write and the payload write is
//     impossible by construction.
//   - MemoryStore serializes operations behind a mutex. It exists for tests
//     and local development.
//
// # Usage
//
//	store, err := delayedstore.NewRedisStore(client, "jobs")
//	if err != nil {
//	    return err
//	}
//
//	// Schedule a payload to become visible in five minutes.
//	err = store.Put(ctx, "job-42", payload, time.Now().Add(5*time.Minute))
//
//	// Claim the earliest due item; nil means nothing is due yet.
//	item, err := store.PopDue(ctx, time.Now())
//
// PopDue removes the claimed entry from both structures in the same script,
// which is what makes concurrent consumers safe: for any single due item,
// exactly one caller receives it.
package delayedstore
