// Package runkit is the execution core of a background-task platform: it
// decides which queued unit of work runs next, enforces multi-tenant
// fairness and concurrency limits, and drives each task run through a
// durable lifecycle with retry and dead-lettering on failure.
//
// The Engine in this package wires the subsystems together over one Redis
// connection and an optional NATS event bus:
//
//   - pkg/delayedstore, pkg/workqueue, pkg/jobs: the durable delayed-job
//     scheduler the lifecycle systems use to trigger their own future work.
//   - pkg/fairqueue, pkg/runqueue: the fair multi-tenant run queue and its
//     integration with concurrency accounting.
//   - pkg/concurrency: per-scope capacity tracking and limits.
//   - pkg/lifecycle: the delayed-run, TTL and pending-version systems that
//     mutate run state under per-run locks.
//
// # Usage
//
//	var cfg runkit.Config
//	config.MustLoad(&cfg)
//
//	engine, err := runkit.New(ctx, cfg, repo)
//	if err != nil {
//		return err
//	}
//	if err := engine.Run(ctx); err != nil {
//		return err
//	}
package runkit
