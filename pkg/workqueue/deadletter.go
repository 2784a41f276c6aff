package workqueue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeadLetter records items that exhausted their retry budget so operators can
// inspect and requeue them manually.
type DeadLetter interface {
	Add(ctx context.Context, id string, cause error) error
}

// DeadEntry is a single dead-lettered item record.
type DeadEntry struct {
	ID       string    `json:"id"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// RedisDeadLetter appends dead entries to a capped Redis list.
type RedisDeadLetter struct {
	rdb redis.UniversalClient
	key string
	cap int64
}

// NewRedisDeadLetter creates a dead-letter sink on the given list key,
// trimmed to at most maxEntries records (oldest evicted first).
func NewRedisDeadLetter(rdb redis.UniversalClient, key string, maxEntries int64) (*RedisDeadLetter, error) {
	if rdb == nil {
		return nil, ErrClientNil
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &RedisDeadLetter{rdb: rdb, key: key, cap: maxEntries}, nil
}

func (d *RedisDeadLetter) Add(ctx context.Context, id string, cause error) error {
	entry := DeadEntry{ID: id, FailedAt: time.Now()}
	if cause != nil {
		entry.Error = cause.Error()
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := d.rdb.TxPipeline()
	pipe.LPush(ctx, d.key, payload)
	pipe.LTrim(ctx, d.key, 0, d.cap-1)
	_, err = pipe.Exec(ctx)
	return err
}

// MemoryDeadLetter collects dead entries in memory for tests.
type MemoryDeadLetter struct {
	mu      sync.Mutex
	entries []DeadEntry
}

// NewMemoryDeadLetter creates an empty in-memory dead-letter sink.
func NewMemoryDeadLetter() *MemoryDeadLetter {
	return &MemoryDeadLetter{}
}

func (d *MemoryDeadLetter) Add(_ context.Context, id string, cause error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry := DeadEntry{ID: id, FailedAt: time.Now()}
	if cause != nil {
		entry.Error = cause.Error()
	}
	d.entries = append(d.entries, entry)
	return nil
}

// Entries returns a copy of the recorded entries.
func (d *MemoryDeadLetter) Entries() []DeadEntry {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]DeadEntry, len(d.entries))
	copy(out, d.entries)
	return out
}
