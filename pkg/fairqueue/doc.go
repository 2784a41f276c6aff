// Package fairqueue implements a multi-tenant run queue with fair dequeue.
//
// Each (organization, environment, queue) triple is an independent queue of
// runs ordered by availability time. A per-shard master index tracks every
// queue with due work, scored by its earliest run. Scheduling reads the
// master index, groups queues by tenant (organization), rotates the tenant
// order round-robin from a persisted pointer, filters out tenants at their
// concurrency capacity and offers the remainder in order. Over repeated
// passes every tenant with due work gets the head slot, so a tenant with a
// million queued runs cannot starve a tenant with one.
//
// Claims are atomic: the backend pops a run from its queue and refreshes the
// master index in one step, so two consumers never receive the same run. The
// message payload survives the claim and is only deleted on Ack, which makes
// completion idempotent and lets a crashed consumer's run be re-enqueued.
//
// # Usage
//
//	backend, err := fairqueue.NewRedisBackend(rdb, "runqueue")
//	if err != nil {
//		return err
//	}
//	fq, err := fairqueue.New(backend,
//		fairqueue.WithCapacity(tracker),
//		fairqueue.WithShardCount(4),
//	)
//	if err != nil {
//		return err
//	}
//
//	err = fq.Enqueue(ctx, fairqueue.Message{
//		RunID:          run.ID.String(),
//		OrganizationID: run.OrganizationID,
//		EnvironmentID:  run.EnvironmentID,
//		Queue:          run.Queue,
//	}, time.Time{})
//
//	msg, err := fq.Dequeue(ctx, fq.Shard(orgID), consumerID)
//	if msg != nil {
//		// execute the run, then:
//		err = fq.Ack(ctx, msg.RunID)
//	}
//
// MemoryBackend provides the same semantics in memory for tests.
package fairqueue
