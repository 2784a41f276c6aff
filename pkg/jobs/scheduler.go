package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/runkit/pkg/delayedstore"
	"github.com/dmitrymomot/runkit/pkg/workqueue"
)

// HandlerFunc processes one fired job. The payload is the JSON the job was
// enqueued with.
type HandlerFunc func(ctx context.Context, jobID string, payload json.RawMessage) error

// envelope is the wire form of a scheduled job.
type envelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Scheduler schedules named jobs for future execution and dispatches them to
// registered handlers. Lifecycle systems use it to self-trigger future work:
// "enqueue this delayed run at time T", "expire this run at its TTL
// deadline".
//
// Job ids are caller-chosen and stable: enqueueing an id that is already
// scheduled overwrites its schedule and payload instead of duplicating it,
// and Ack removes a schedule idempotently.
type Scheduler struct {
	queue     *workqueue.Queue[envelope]
	processor *workqueue.Processor[envelope]
	logger    *slog.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewScheduler creates a job scheduler over the given delayed store.
// Processor options tune the dispatch loop (idle timeout, retry policy,
// dead-letter sink).
func NewScheduler(store delayedstore.Store, opts ...Option) (*Scheduler, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	options := &schedulerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	queue, err := workqueue.NewQueue[envelope](store, workqueue.WithQueueLogger(options.logger))
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		queue:    queue,
		logger:   options.logger,
		handlers: make(map[string]HandlerFunc),
	}

	procOpts := append([]workqueue.ProcessorOption{
		workqueue.WithProcessorLogger(options.logger),
	}, options.processorOpts...)

	s.processor, err = workqueue.NewProcessor(queue, s.dispatch, procOpts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// RegisterHandler binds a job name to a handler. Jobs fire only for
// registered names; an unknown name at dispatch time is an error and goes
// through the processor's retry path (the handler may be registered by a
// newer deploy before the retries run out).
func (s *Scheduler) RegisterHandler(name string, fn HandlerFunc) error {
	if name == "" || fn == nil {
		return ErrInvalidHandler
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handlers[name]; exists {
		return fmt.Errorf("%w: %q", ErrHandlerRegistered, name)
	}
	s.handlers[name] = fn
	return nil
}

// Enqueue schedules the named job to fire at availableAt (immediately when
// zero). Re-enqueueing the same job id replaces the previous schedule.
func (s *Scheduler) Enqueue(ctx context.Context, jobID, name string, payload any, availableAt time.Time) error {
	if jobID == "" {
		return ErrEmptyJobID
	}
	if name == "" {
		return ErrEmptyJobName
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Join(ErrPayloadMarshal, err)
		}
		raw = data
	}

	return s.queue.Enqueue(ctx, jobID, envelope{Name: name, Payload: raw}, availableAt)
}

// Reschedule moves a scheduled job to a new fire time. It returns
// ErrJobNotFound when the job is no longer scheduled (already fired or
// acked).
func (s *Scheduler) Reschedule(ctx context.Context, jobID string, availableAt time.Time) error {
	if jobID == "" {
		return ErrEmptyJobID
	}
	err := s.queue.Reschedule(ctx, jobID, availableAt)
	if errors.Is(err, delayedstore.ErrNotFound) {
		return ErrJobNotFound
	}
	return err
}

// Ack removes a scheduled job so it never fires. Acking an unknown or
// already-fired job is a no-op.
func (s *Scheduler) Ack(ctx context.Context, jobID string) error {
	if jobID == "" {
		return ErrEmptyJobID
	}
	return s.queue.Remove(ctx, jobID)
}

// Size reports how many jobs are currently scheduled.
func (s *Scheduler) Size(ctx context.Context) (int64, error) {
	return s.queue.Size(ctx)
}

// Start launches the dispatch loop. Idempotent.
func (s *Scheduler) Start(ctx context.Context) error {
	return s.processor.Start(ctx)
}

// Stop halts the dispatch loop and waits for it to exit. Idempotent.
func (s *Scheduler) Stop() error {
	return s.processor.Stop()
}

func (s *Scheduler) dispatch(ctx context.Context, msg workqueue.Message[envelope]) error {
	s.mu.RLock()
	handler, ok := s.handlers[msg.Item.Name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrHandlerNotFound, msg.Item.Name)
	}
	return handler(ctx, msg.ID, msg.Item.Payload)
}
