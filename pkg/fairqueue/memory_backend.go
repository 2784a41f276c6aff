package fairqueue

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryBackend implements Backend for tests and local development. A single
// mutex stands in for the Redis scripts' atomicity.
type MemoryBackend struct {
	mu       sync.Mutex
	queues   map[string]map[string]float64 // descriptor -> run id -> score
	messages map[string]memoryMessage      // run id -> message
	masters  map[string]map[string]float64 // shard -> descriptor -> earliest score
	pointers map[string]string             // shard -> last served tenant
}

type memoryMessage struct {
	shard      string
	descriptor string
	payload    []byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		queues:   make(map[string]map[string]float64),
		messages: make(map[string]memoryMessage),
		masters:  make(map[string]map[string]float64),
		pointers: make(map[string]string),
	}
}

func (b *MemoryBackend) Enqueue(_ context.Context, shard, descriptor, runID string, payload []byte, availableAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	score := float64(availableAt.UnixMilli())

	if b.queues[descriptor] == nil {
		b.queues[descriptor] = make(map[string]float64)
	}
	b.queues[descriptor][runID] = score

	b.messages[runID] = memoryMessage{shard: shard, descriptor: descriptor, payload: payload}

	if b.masters[shard] == nil {
		b.masters[shard] = make(map[string]float64)
	}
	if cur, ok := b.masters[shard][descriptor]; !ok || score < cur {
		b.masters[shard][descriptor] = score
	}
	return nil
}

func (b *MemoryBackend) PeekMaster(_ context.Context, shard string, until time.Time, limit int64) ([]MasterEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	max := float64(until.UnixMilli())
	var entries []MasterEntry
	for desc, score := range b.masters[shard] {
		if score <= max {
			entries = append(entries, MasterEntry{Descriptor: desc, Score: score})
		}
	}

	// Score order with descriptor tiebreak mirrors sorted-set iteration.
	slices.SortFunc(entries, func(a, b MasterEntry) int {
		if c := cmp.Compare(a.Score, b.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Descriptor, b.Descriptor)
	})
	if limit > 0 && int64(len(entries)) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (b *MemoryBackend) PopQueue(_ context.Context, shard, descriptor string, until time.Time) (string, []byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	queue := b.queues[descriptor]
	max := float64(until.UnixMilli())

	best := ""
	bestScore := 0.0
	for runID, score := range queue {
		if score > max {
			continue
		}
		if best == "" || score < bestScore || (score == bestScore && runID < best) {
			best, bestScore = runID, score
		}
	}
	if best == "" {
		return "", nil, false, nil
	}

	delete(queue, best)
	b.refreshMaster(shard, descriptor)

	return best, b.messages[best].payload, true, nil
}

func (b *MemoryBackend) Ack(_ context.Context, runID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg, ok := b.messages[runID]
	if !ok {
		return nil
	}
	delete(b.messages, runID)

	if queue := b.queues[msg.descriptor]; queue != nil {
		delete(queue, runID)
	}
	b.refreshMaster(msg.shard, msg.descriptor)
	return nil
}

func (b *MemoryBackend) Pointer(_ context.Context, shard string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.pointers[shard], nil
}

func (b *MemoryBackend) SetPointer(_ context.Context, shard, tenant string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pointers[shard] = tenant
	return nil
}

// refreshMaster re-scores the descriptor in the shard's master index to its
// earliest remaining run, or drops it when the queue drained. Callers hold
// the mutex.
func (b *MemoryBackend) refreshMaster(shard, descriptor string) {
	master := b.masters[shard]
	if master == nil {
		return
	}

	queue := b.queues[descriptor]
	if len(queue) == 0 {
		delete(master, descriptor)
		return
	}

	earliest := 0.0
	first := true
	for _, score := range queue {
		if first || score < earliest {
			earliest = score
			first = false
		}
	}
	master[descriptor] = earliest
}
