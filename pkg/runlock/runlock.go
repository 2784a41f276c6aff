package runlock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Backend is the minimal lease primitive the manager needs: grab a key if
// free, release it if the token still matches. Both operations are single
// atomic calls against the shared store so worker processes cannot race.
type Backend interface {
	// TryAcquire takes the lease when it is free and reports whether it
	// succeeded. The token identifies the owner for release.
	TryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)

	// Release frees the lease if the token still owns it. Releasing a lease
	// owned by someone else (ours expired and was re-taken) is a no-op.
	Release(ctx context.Context, key, token string) error
}

// Manager serializes run-state transitions with per-run leases. WithLock is
// the only entry point: it acquires the run's lease (retrying until the
// acquire timeout), runs the critical section, and guarantees release on
// every exit path including panics.
type Manager struct {
	backend        Backend
	acquireTimeout time.Duration
	leaseTTL       time.Duration
	retryInterval  time.Duration
	logger         *slog.Logger
}

// New creates a lock manager. Defaults: 5s acquire timeout, 30s lease TTL,
// 50ms retry interval.
func New(backend Backend, opts ...Option) (*Manager, error) {
	if backend == nil {
		return nil, ErrBackendNil
	}

	options := &managerOptions{
		acquireTimeout: 5 * time.Second,
		leaseTTL:       30 * time.Second,
		retryInterval:  50 * time.Millisecond,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Manager{
		backend:        backend,
		acquireTimeout: options.acquireTimeout,
		leaseTTL:       options.leaseTTL,
		retryInterval:  options.retryInterval,
		logger:         options.logger,
	}, nil
}

// WithLock runs fn while holding the run's lease. When the lease cannot be
// acquired within the acquire timeout it returns ErrLockTimeout, a transient
// error the caller's outer scheduling loop is expected to retry.
func (m *Manager) WithLock(ctx context.Context, runID string, fn func(ctx context.Context) error) error {
	if runID == "" {
		return ErrEmptyRunID
	}
	if fn == nil {
		return ErrNilCriticalSection
	}

	token := uuid.NewString()
	key := "runlock:" + runID

	deadline := time.Now().Add(m.acquireTimeout)
	for {
		acquired, err := m.backend.TryAcquire(ctx, key, token, m.leaseTTL)
		if err != nil {
			return fmt.Errorf("runlock: acquire %q: %w", runID, err)
		}
		if acquired {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: run %q", ErrLockTimeout, runID)
		}

		timer := time.NewTimer(m.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	defer func() {
		// Release must not inherit the caller's cancellation, otherwise an
		// aborted critical section would leak the lease until TTL expiry.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := m.backend.Release(releaseCtx, key, token); err != nil {
			m.logger.Error("failed to release run lock",
				slog.String("run_id", runID),
				slog.String("error", err.Error()))
		}
	}()

	return fn(ctx)
}
