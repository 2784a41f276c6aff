package runkit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/runkit/pkg/concurrency"
	"github.com/dmitrymomot/runkit/pkg/delayedstore"
	"github.com/dmitrymomot/runkit/pkg/events"
	"github.com/dmitrymomot/runkit/pkg/fairqueue"
	"github.com/dmitrymomot/runkit/pkg/jobs"
	"github.com/dmitrymomot/runkit/pkg/lifecycle"
	"github.com/dmitrymomot/runkit/pkg/logger"
	"github.com/dmitrymomot/runkit/pkg/redis"
	"github.com/dmitrymomot/runkit/pkg/retry"
	"github.com/dmitrymomot/runkit/pkg/runlock"
	"github.com/dmitrymomot/runkit/pkg/runqueue"
	"github.com/dmitrymomot/runkit/pkg/workqueue"
)

// Engine assembles the full run-queue and lifecycle stack: the fair
// multi-tenant queue, concurrency accounting, the delayed-job scheduler and
// the lifecycle systems, all sharing one Redis connection. The run
// repository is the caller's collaborator; everything else is wired here.
type Engine struct {
	cfg    Config
	log    *slog.Logger
	rdb    *goredis.Client
	nc     *nats.Conn
	sched  *jobs.Scheduler
	queue  *runqueue.Queue
	life   *lifecycle.Engine
	track  concurrency.Tracker
	health []func(context.Context) error
}

// New connects to the backing services and wires every subsystem. The
// returned engine is passive until Run is called.
func New(ctx context.Context, cfg Config, repo lifecycle.RunRepository) (*Engine, error) {
	if repo == nil {
		return nil, lifecycle.ErrRepositoryNil
	}

	log := newLogger(cfg)

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		log:    log,
		rdb:    rdb,
		health: []func(context.Context) error{redis.Healthcheck(rdb)},
	}

	var bus events.Bus
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.ServiceName))
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		e.nc = nc
		natsBus, err := events.NewNATSBus(nc, cfg.EventPrefix, log)
		if err != nil {
			e.close()
			return nil, err
		}
		bus = natsBus
		e.health = append(e.health, func(context.Context) error {
			if !nc.IsConnected() {
				return errors.New("nats: connection lost")
			}
			return nil
		})
	}

	if err := e.wire(repo, bus); err != nil {
		e.close()
		return nil, err
	}
	return e, nil
}

// wire builds the subsystem graph over the established connections.
func (e *Engine) wire(repo lifecycle.RunRepository, bus events.Bus) error {
	store, err := delayedstore.NewRedisStore(e.rdb, e.cfg.KeyPrefix+":jobs")
	if err != nil {
		return err
	}

	deadLetter, err := workqueue.NewRedisDeadLetter(e.rdb, e.cfg.KeyPrefix+":jobs:dead", 1000)
	if err != nil {
		return err
	}

	e.sched, err = jobs.NewScheduler(store,
		jobs.WithLogger(e.log),
		jobs.WithProcessorOptions(
			workqueue.WithIdleTimeout(e.cfg.IdleTimeout),
			workqueue.WithRetryPolicy(retry.Exponential{
				Initial:     e.cfg.RetryInitialDelay,
				Max:         e.cfg.RetryMaxDelay,
				Factor:      2,
				MaxAttempts: e.cfg.MaxAttempts,
			}),
			workqueue.WithDeadLetter(deadLetter),
			workqueue.WithProcessorLogger(e.log),
		),
	)
	if err != nil {
		return err
	}

	tracker, err := concurrency.NewRedisTracker(e.rdb, e.cfg.KeyPrefix+":concurrency")
	if err != nil {
		return err
	}
	e.track = tracker

	backend, err := fairqueue.NewRedisBackend(e.rdb, e.cfg.KeyPrefix+":runqueue")
	if err != nil {
		return err
	}
	fq, err := fairqueue.New(backend,
		fairqueue.WithCapacity(tracker),
		fairqueue.WithShardCount(e.cfg.MasterQueueShards),
		fairqueue.WithMasterLimit(e.cfg.MasterQueueLimit),
		fairqueue.WithLogger(e.log),
	)
	if err != nil {
		return err
	}

	e.queue, err = runqueue.New(fq, tracker, runqueue.WithLogger(e.log))
	if err != nil {
		return err
	}

	lockBackend, err := runlock.NewRedisBackend(e.rdb, e.cfg.KeyPrefix+":locks")
	if err != nil {
		return err
	}
	locker, err := runlock.New(lockBackend,
		runlock.WithAcquireTimeout(e.cfg.RunLockTimeout),
		runlock.WithLogger(e.log),
	)
	if err != nil {
		return err
	}

	lifecycleOpts := []lifecycle.Option{
		lifecycle.WithLocker(locker),
		lifecycle.WithLogger(e.log),
		lifecycle.WithBatchSize(e.cfg.PendingVersionBatchSize),
	}
	if bus != nil {
		lifecycleOpts = append(lifecycleOpts, lifecycle.WithEventBus(bus))
	}
	e.life, err = lifecycle.New(repo, e.queue, e.sched, lifecycleOpts...)
	if err != nil {
		return err
	}
	return e.life.RegisterJobHandlers(e.sched)
}

// Run starts the delayed-job processor and blocks until ctx is canceled or a
// subsystem fails, then shuts everything down.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.sched.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return e.sched.Stop()
	})

	g.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := e.Healthcheck(ctx); err != nil {
					e.log.ErrorContext(ctx, "healthcheck failed", logger.Error(err))
				}
			}
		}
	})

	err := g.Wait()
	e.close()
	return err
}

// Healthcheck probes every backing service the engine depends on.
func (e *Engine) Healthcheck(ctx context.Context) error {
	for _, check := range e.health {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Lifecycle exposes the run lifecycle systems.
func (e *Engine) Lifecycle() *lifecycle.Engine { return e.life }

// Queue exposes the enqueue/dequeue boundary for workers and producers.
func (e *Engine) Queue() *runqueue.Queue { return e.queue }

// Scheduler exposes the delayed-job scheduler for custom jobs.
func (e *Engine) Scheduler() *jobs.Scheduler { return e.sched }

// Concurrency exposes the tracker for limit administration.
func (e *Engine) Concurrency() concurrency.Tracker { return e.track }

func (e *Engine) close() {
	if e.nc != nil {
		e.nc.Close()
	}
	if e.rdb != nil {
		_ = e.rdb.Close()
	}
}

func newLogger(cfg Config) *slog.Logger {
	switch cfg.Environment {
	case "production", "prod", "staging", "stage":
		return logger.New(logger.WithProduction(cfg.ServiceName))
	default:
		return logger.New(logger.WithDevelopment(cfg.ServiceName))
	}
}
