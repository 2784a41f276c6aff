package fairqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dmitrymomot/runkit/pkg/concurrency"
)

// Message is one queued run. The tenant is the organization; the descriptor
// derived from (org, env, queue) is the unit of fairness scheduling.
type Message struct {
	MessageID      string    `json:"message_id"`
	RunID          string    `json:"run_id"`
	OrganizationID string    `json:"organization_id"`
	EnvironmentID  string    `json:"environment_id"`
	Queue          string    `json:"queue"`
	ConcurrencyKey string    `json:"concurrency_key,omitempty"`
	BatchID        string    `json:"batch_id,omitempty"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

// QueueWithScore is a scheduling-time view of one eligible queue: its
// descriptor, the fairness score (availability time of its earliest run) and
// the tenant it belongs to. It is recomputed on every scheduling pass, never
// persisted.
type QueueWithScore struct {
	Descriptor string
	Score      float64
	TenantID   string
}

// TenantQueues is the scheduler's answer for one tenant: the queue
// descriptors to try, in score order.
type TenantQueues struct {
	TenantID string
	Queues   []string
}

// CapacityChecker is the slice of concurrency accounting the scheduler
// needs. *concurrency.RedisTracker and *concurrency.MemoryTracker satisfy it.
type CapacityChecker interface {
	IsAtCapacity(ctx context.Context, scope concurrency.Scope) (bool, error)
}

// FairQueue is the multi-tenant run queue: a sharded master index of tenant
// queues with a round-robin rotation across tenants, backed by capacity
// checks so saturated tenants are skipped without losing their rotation
// position.
type FairQueue struct {
	backend     Backend
	capacity    CapacityChecker
	strategy    Strategy
	masterLimit int64
	shardCount  int
	logger      *slog.Logger
}

// New creates a fair queue over the given backend. Defaults: 1000-entry
// master reads, a single shard, round-robin tenant rotation and no capacity
// checking (every tenant eligible).
func New(backend Backend, opts ...Option) (*FairQueue, error) {
	if backend == nil {
		return nil, ErrBackendNil
	}

	options := &queueOptions{
		masterLimit: 1000,
		shardCount:  1,
		strategy:    RoundRobin{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &FairQueue{
		backend:     backend,
		capacity:    options.capacity,
		strategy:    options.strategy,
		masterLimit: options.masterLimit,
		shardCount:  options.shardCount,
		logger:      options.logger,
	}, nil
}

// Shard returns the master-queue shard a tenant's queues live on. Sharding
// is by tenant so one tenant's queues always land on one shard.
func (q *FairQueue) Shard(tenantID string) string {
	if q.shardCount <= 1 {
		return "main"
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(tenantID))
	return fmt.Sprintf("shard:%d", h.Sum32()%uint32(q.shardCount))
}

// Enqueue places the message on its tenant queue, visible from availableAt
// (immediately when zero). A missing MessageID is filled with a new ULID.
func (q *FairQueue) Enqueue(ctx context.Context, msg Message, availableAt time.Time) error {
	if msg.RunID == "" {
		return ErrEmptyRunID
	}
	if msg.OrganizationID == "" || msg.EnvironmentID == "" || msg.Queue == "" {
		return ErrIncompleteMessage
	}

	if msg.MessageID == "" {
		msg.MessageID = ulid.Make().String()
	}
	if msg.EnqueuedAt.IsZero() {
		msg.EnqueuedAt = time.Now()
	}
	if availableAt.IsZero() {
		availableAt = time.Now()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Join(ErrMessageMarshal, err)
	}

	descriptor := Descriptor(msg.OrganizationID, msg.EnvironmentID, msg.Queue)
	return q.backend.Enqueue(ctx, q.Shard(msg.OrganizationID), descriptor, msg.RunID, payload, availableAt)
}

// SelectQueues picks the ordered tenant/queue sets a consumer should attempt
// next on the shard. Tenants rotate round-robin from the persisted pointer,
// saturated tenants are filtered out, and the pointer advances to the first
// eligible tenant only; an empty shard or an all-saturated pass leaves the
// pointer untouched.
func (q *FairQueue) SelectQueues(ctx context.Context, shard, consumerID string) ([]TenantQueues, error) {
	entries, err := q.backend.PeekMaster(ctx, shard, time.Now(), q.masterLimit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	candidates := groupByTenant(entries)

	lastServed, err := q.backend.Pointer(ctx, shard)
	if err != nil {
		return nil, err
	}

	arranged := q.strategy.Arrange(candidates, lastServed)

	var selected []TenantQueues
	var firstEligible string
	for _, tenant := range arranged {
		if q.capacity != nil {
			full, err := q.capacity.IsAtCapacity(ctx, concurrency.Scope{
				Kind: concurrency.ScopeOrganization,
				ID:   tenant.ID,
			})
			if err != nil {
				return nil, err
			}
			if full {
				q.logger.DebugContext(ctx, "skipping saturated tenant",
					slog.String("tenant_id", tenant.ID),
					slog.String("shard", shard),
					slog.String("consumer_id", consumerID))
				continue
			}
		}

		if firstEligible == "" {
			firstEligible = tenant.ID
		}

		queues := make([]string, len(tenant.Queues))
		for i, qs := range tenant.Queues {
			queues[i] = qs.Descriptor
		}
		selected = append(selected, TenantQueues{TenantID: tenant.ID, Queues: queues})
	}

	// No eligible tenant means no rotation turn was consumed.
	if firstEligible != "" {
		if err := q.backend.SetPointer(ctx, shard, firstEligible); err != nil {
			return nil, err
		}
	}
	return selected, nil
}

// Dequeue claims the next due run on the shard, walking the fair selection
// in order and stopping at the first successful claim. It returns nil when
// nothing is claimable.
func (q *FairQueue) Dequeue(ctx context.Context, shard, consumerID string) (*Message, error) {
	selection, err := q.SelectQueues(ctx, shard, consumerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, tenant := range selection {
		for _, descriptor := range tenant.Queues {
			runID, payload, ok, err := q.backend.PopQueue(ctx, shard, descriptor, now)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			var msg Message
			if err := json.Unmarshal(payload, &msg); err != nil {
				// Poison entry: drop it rather than wedging every consumer.
				q.logger.ErrorContext(ctx, "dropping undecodable run message",
					slog.String("run_id", runID),
					slog.String("queue", descriptor),
					slog.String("error", err.Error()))
				if ackErr := q.backend.Ack(ctx, runID); ackErr != nil {
					q.logger.ErrorContext(ctx, "failed to drop poison message",
						slog.String("run_id", runID),
						slog.String("error", ackErr.Error()))
				}
				continue
			}
			return &msg, nil
		}
	}
	return nil, nil
}

// Ack removes the run from the queue for good; it will never be dequeued
// again. Acking an unknown run is a no-op.
func (q *FairQueue) Ack(ctx context.Context, runID string) error {
	if runID == "" {
		return ErrEmptyRunID
	}
	return q.backend.Ack(ctx, runID)
}

// Descriptor builds the fairness-unit key for a tenant queue.
func Descriptor(orgID, envID, queue string) string {
	return orgID + "|" + envID + "|" + queue
}

// TenantOf extracts the tenant (organization) id from a queue descriptor.
func TenantOf(descriptor string) string {
	if i := strings.IndexByte(descriptor, '|'); i > 0 {
		return descriptor[:i]
	}
	return descriptor
}

// groupByTenant groups master entries by tenant, preserving first-seen order
// as the base rotation order and score order within each tenant.
func groupByTenant(entries []MasterEntry) []TenantCandidate {
	index := make(map[string]int)
	var candidates []TenantCandidate

	for _, entry := range entries {
		tenant := TenantOf(entry.Descriptor)
		i, seen := index[tenant]
		if !seen {
			i = len(candidates)
			index[tenant] = i
			candidates = append(candidates, TenantCandidate{ID: tenant, OldestScore: entry.Score})
		}
		candidates[i].Queues = append(candidates[i].Queues, QueueWithScore{
			Descriptor: entry.Descriptor,
			Score:      entry.Score,
			TenantID:   tenant,
		})
		if entry.Score < candidates[i].OldestScore {
			candidates[i].OldestScore = entry.Score
		}
	}
	return candidates
}
