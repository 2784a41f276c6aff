package workqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/runkit/pkg/retry"
)

// Handler processes one dequeued message. Returning an error triggers the
// processor's bounded retry; this is the only layer that converts handler
// failures into retries, everything above it propagates.
type Handler[T any] func(ctx context.Context, msg Message[T]) error

// Processor is a cooperative polling loop over a Queue. After a successful
// dequeue it polls again immediately to drain backlogs; on an empty poll it
// sleeps for the idle timeout. Failure counts are tracked per item id in
// memory and retried with the configured policy until the attempt budget is
// exhausted, after which the item goes to the dead-letter sink (when one is
// configured) and is dropped.
type Processor[T any] struct {
	queue   *Queue[T]
	handler Handler[T]

	idleTimeout time.Duration
	policy      retry.Policy
	deadLetter  DeadLetter
	logger      *slog.Logger

	mu       sync.Mutex
	failures map[string]int
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewProcessor creates a processor for the queue. The default policy is
// exponential backoff 1s·2^n capped at 10s with 10 attempts, and the default
// idle timeout is one second.
func NewProcessor[T any](queue *Queue[T], handler Handler[T], opts ...ProcessorOption) (*Processor[T], error) {
	if queue == nil {
		return nil, ErrQueueNil
	}
	if handler == nil {
		return nil, ErrHandlerNil
	}

	options := &processorOptions{
		idleTimeout: time.Second,
		policy: retry.Exponential{
			Initial:     time.Second,
			Max:         10 * time.Second,
			Factor:      2,
			MaxAttempts: 10,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Processor[T]{
		queue:       queue,
		handler:     handler,
		idleTimeout: options.idleTimeout,
		policy:      options.policy,
		deadLetter:  options.deadLetter,
		logger:      options.logger,
		failures:    make(map[string]int),
	}, nil
}

// Start launches the polling loop. Calling Start on a running processor is a
// no-op, so it is safe from any state.
func (p *Processor[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.loop(ctx, p.done)
	return nil
}

// Stop cancels the loop, including any in-flight idle wait, and blocks until
// the loop goroutine has exited. Stopping a stopped processor is a no-op.
func (p *Processor[T]) Stop() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (p *Processor[T]) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			return
		}

		msg, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.ErrorContext(ctx, "dequeue failed", slog.String("error", err.Error()))
			if !p.idle(ctx) {
				return
			}
			continue
		}

		if msg == nil {
			if !p.idle(ctx) {
				return
			}
			continue
		}

		p.process(ctx, *msg)
		// Drain fast: no pause after a successful claim.
	}
}

// idle waits out the idle timeout; false means the context was canceled.
func (p *Processor[T]) idle(ctx context.Context) bool {
	timer := time.NewTimer(p.idleTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (p *Processor[T]) process(ctx context.Context, msg Message[T]) {
	err := p.safeHandle(ctx, msg)
	if err == nil {
		p.mu.Lock()
		delete(p.failures, msg.ID)
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	p.failures[msg.ID]++
	attempt := p.failures[msg.ID]
	p.mu.Unlock()

	delay, ok := p.policy.NextDelay(attempt, err)
	if !ok {
		p.mu.Lock()
		delete(p.failures, msg.ID)
		p.mu.Unlock()

		p.logger.ErrorContext(ctx, "item exhausted retry budget, dropping",
			slog.String("item_id", msg.ID),
			slog.Int("attempts", attempt),
			slog.String("error", err.Error()))

		if p.deadLetter != nil {
			if dlqErr := p.deadLetter.Add(ctx, msg.ID, err); dlqErr != nil {
				p.logger.ErrorContext(ctx, "failed to record dead-lettered item",
					slog.String("item_id", msg.ID),
					slog.String("error", dlqErr.Error()))
			}
		}
		return
	}

	p.logger.WarnContext(ctx, "item failed, scheduling retry",
		slog.String("item_id", msg.ID),
		slog.Int("attempt", attempt),
		slog.Duration("delay", delay),
		slog.String("error", err.Error()))

	if reqErr := p.queue.requeue(ctx, msg.ID, msg.Item, delay); reqErr != nil {
		p.logger.ErrorContext(ctx, "failed to requeue item",
			slog.String("item_id", msg.ID),
			slog.String("error", reqErr.Error()))
	}
}

func (p *Processor[T]) safeHandle(ctx context.Context, msg Message[T]) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("panic in handler: %v", r)
		}
	}()
	return p.handler(ctx, msg)
}
