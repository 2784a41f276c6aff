package runlock

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend implements the lease primitive in process memory for tests
// and local development.
type MemoryBackend struct {
	mu     sync.Mutex
	leases map[string]memoryLease
}

type memoryLease struct {
	token     string
	expiresAt time.Time
}

// NewMemoryBackend creates an empty in-memory lease backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{leases: make(map[string]memoryLease)}
}

func (b *MemoryBackend) TryAcquire(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if lease, held := b.leases[key]; held && time.Now().Before(lease.expiresAt) {
		return false, nil
	}
	b.leases[key] = memoryLease{token: token, expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (b *MemoryBackend) Release(_ context.Context, key, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if lease, held := b.leases[key]; held && lease.token == token {
		delete(b.leases, key)
	}
	return nil
}
