package fairqueue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each tenant queue as a sorted set of run ids scored by
// availability, message payloads in per-run hashes, and the shard's master
// index as a sorted set of queue descriptors scored by their earliest run.
// Every multi-structure step runs as one Lua script.
type RedisBackend struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisBackend creates a backend rooted at the given key prefix.
func NewRedisBackend(rdb redis.UniversalClient, prefix string) (*RedisBackend, error) {
	if rdb == nil {
		return nil, ErrClientNil
	}
	if prefix == "" {
		return nil, ErrEmptyPrefix
	}
	return &RedisBackend{rdb: rdb, prefix: prefix}, nil
}

func (b *RedisBackend) masterKey(shard string) string {
	return b.prefix + ":master:" + shard
}

func (b *RedisBackend) queueKey(descriptor string) string {
	return b.prefix + ":queue:" + descriptor
}

func (b *RedisBackend) messageKey(runID string) string {
	return b.prefix + ":msg:" + runID
}

func (b *RedisBackend) pointerKey(shard string) string {
	return b.prefix + ":pointer:" + shard
}

// KEYS[1] master, KEYS[2] queue zset, KEYS[3] message hash
// ARGV[1] run id, ARGV[2] score, ARGV[3] payload, ARGV[4] descriptor
// The master entry keeps the queue's earliest score, so it only moves down.
var enqueueScript = redis.NewScript(`
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[1])
redis.call('HSET', KEYS[3], 'desc', ARGV[4], 'queuekey', KEYS[2], 'masterkey', KEYS[1], 'data', ARGV[3])
local cur = redis.call('ZSCORE', KEYS[1], ARGV[4])
if not cur or tonumber(ARGV[2]) < tonumber(cur) then
  redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
end
return 1
`)

// KEYS[1] master, KEYS[2] queue zset
// ARGV[1] until score, ARGV[2] descriptor
// Returns the claimed run id, or false when nothing is due.
var popQueueScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[2], '-inf', ARGV[1], 'LIMIT', 0, 1)
if #due == 0 then
  return false
end
local id = due[1]
redis.call('ZREM', KEYS[2], id)
local nxt = redis.call('ZRANGE', KEYS[2], 0, 0, 'WITHSCORES')
if #nxt == 0 then
  redis.call('ZREM', KEYS[1], ARGV[2])
else
  redis.call('ZADD', KEYS[1], nxt[2], ARGV[2])
end
return id
`)

// KEYS[1] message hash; ARGV[1] run id
// The queue and master keys were captured at enqueue time, so ack needs only
// the run id.
var ackScript = redis.NewScript(`
local queuekey = redis.call('HGET', KEYS[1], 'queuekey')
if not queuekey then
  return 0
end
local masterkey = redis.call('HGET', KEYS[1], 'masterkey')
local desc = redis.call('HGET', KEYS[1], 'desc')
redis.call('ZREM', queuekey, ARGV[1])
local nxt = redis.call('ZRANGE', queuekey, 0, 0, 'WITHSCORES')
if #nxt == 0 then
  redis.call('ZREM', masterkey, desc)
else
  redis.call('ZADD', masterkey, nxt[2], desc)
end
redis.call('DEL', KEYS[1])
return 1
`)

func (b *RedisBackend) Enqueue(ctx context.Context, shard, descriptor, runID string, payload []byte, availableAt time.Time) error {
	err := enqueueScript.Run(ctx, b.rdb,
		[]string{b.masterKey(shard), b.queueKey(descriptor), b.messageKey(runID)},
		runID, strconv.FormatInt(availableAt.UnixMilli(), 10), payload, descriptor).Err()
	if err != nil {
		return fmt.Errorf("fairqueue: enqueue run %q: %w", runID, err)
	}
	return nil
}

func (b *RedisBackend) PeekMaster(ctx context.Context, shard string, until time.Time, limit int64) ([]MasterEntry, error) {
	zs, err := b.rdb.ZRangeByScoreWithScores(ctx, b.masterKey(shard), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(until.UnixMilli(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("fairqueue: peek master %q: %w", shard, err)
	}

	entries := make([]MasterEntry, 0, len(zs))
	for _, z := range zs {
		desc, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, MasterEntry{Descriptor: desc, Score: z.Score})
	}
	return entries, nil
}

func (b *RedisBackend) PopQueue(ctx context.Context, shard, descriptor string, until time.Time) (string, []byte, bool, error) {
	res, err := popQueueScript.Run(ctx, b.rdb,
		[]string{b.masterKey(shard), b.queueKey(descriptor)},
		strconv.FormatInt(until.UnixMilli(), 10), descriptor).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil, false, nil
		}
		return "", nil, false, fmt.Errorf("fairqueue: pop queue %q: %w", descriptor, err)
	}

	runID, ok := res.(string)
	if !ok || runID == "" {
		return "", nil, false, nil
	}

	payload, err := b.rdb.HGet(ctx, b.messageKey(runID), "data").Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", nil, false, fmt.Errorf("fairqueue: read message %q: %w", runID, err)
	}
	return runID, payload, true, nil
}

func (b *RedisBackend) Ack(ctx context.Context, runID string) error {
	if err := ackScript.Run(ctx, b.rdb, []string{b.messageKey(runID)}, runID).Err(); err != nil {
		return fmt.Errorf("fairqueue: ack run %q: %w", runID, err)
	}
	return nil
}

func (b *RedisBackend) Pointer(ctx context.Context, shard string) (string, error) {
	tenant, err := b.rdb.Get(ctx, b.pointerKey(shard)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fairqueue: read pointer %q: %w", shard, err)
	}
	return tenant, nil
}

func (b *RedisBackend) SetPointer(ctx context.Context, shard, tenant string) error {
	if err := b.rdb.Set(ctx, b.pointerKey(shard), tenant, 0).Err(); err != nil {
		return fmt.Errorf("fairqueue: set pointer %q: %w", shard, err)
	}
	return nil
}
