package delayedstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the availability index in a sorted set and the payloads in
// a companion hash. All multi-step operations run as server-side Lua scripts
// so both structures always move together.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store rooted at the given key prefix. Separate
// prefixes give callers independent stores on one Redis database.
func NewRedisStore(rdb redis.UniversalClient, prefix string) (*RedisStore, error) {
	if rdb == nil {
		return nil, ErrClientNil
	}
	if prefix == "" {
		return nil, ErrEmptyPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}, nil
}

func (s *RedisStore) indexKey() string { return s.prefix + ":index" }
func (s *RedisStore) dataKey() string  { return s.prefix + ":data" }

// KEYS[1] index zset, KEYS[2] payload hash
// ARGV[1] id, ARGV[2] score, ARGV[3] payload
var putScript = redis.NewScript(`
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])
return 1
`)

var putIfAbsentScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[2], ARGV[1]) == 1 then
  return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])
return 1
`)

// KEYS[1] index zset, KEYS[2] payload hash
// ARGV[1] now score
// Returns {id, payload, score} or false when nothing is due.
var popDueScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'WITHSCORES', 'LIMIT', 0, 1)
if #due == 0 then
  return false
end
local id = due[1]
local score = due[2]
local payload = redis.call('HGET', KEYS[2], id)
redis.call('ZREM', KEYS[1], id)
redis.call('HDEL', KEYS[2], id)
return {id, payload, score}
`)

var rescheduleScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[2], ARGV[1]) == 0 then
  return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
return 1
`)

var removeScript = redis.NewScript(`
redis.call('ZREM', KEYS[1], ARGV[1])
return redis.call('HDEL', KEYS[2], ARGV[1])
`)

func (s *RedisStore) Put(ctx context.Context, id string, payload []byte, availableAt time.Time) error {
	if id == "" {
		return ErrEmptyID
	}
	if err := putScript.Run(ctx, s.rdb, []string{s.indexKey(), s.dataKey()},
		id, scoreOf(availableAt), payload).Err(); err != nil {
		return fmt.Errorf("delayedstore: put %q: %w", id, err)
	}
	return nil
}

func (s *RedisStore) PutIfAbsent(ctx context.Context, id string, payload []byte, availableAt time.Time) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}
	created, err := putIfAbsentScript.Run(ctx, s.rdb, []string{s.indexKey(), s.dataKey()},
		id, scoreOf(availableAt), payload).Int64()
	if err != nil {
		return false, fmt.Errorf("delayedstore: put-if-absent %q: %w", id, err)
	}
	return created == 1, nil
}

func (s *RedisStore) PopDue(ctx context.Context, now time.Time) (*Item, error) {
	res, err := popDueScript.Run(ctx, s.rdb, []string{s.indexKey(), s.dataKey()}, scoreOf(now)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("delayedstore: pop due: %w", err)
	}

	fields, ok := res.([]any)
	if !ok || len(fields) != 3 {
		return nil, fmt.Errorf("delayedstore: pop due: unexpected reply %T", res)
	}

	item := &Item{ID: fields[0].(string)}
	if payload, ok := fields[1].(string); ok {
		item.Payload = []byte(payload)
	}
	if raw, ok := fields[2].(string); ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			item.AvailableAt = time.UnixMilli(ms)
		}
	}
	return item, nil
}

func (s *RedisStore) Reschedule(ctx context.Context, id string, availableAt time.Time) error {
	if id == "" {
		return ErrEmptyID
	}
	moved, err := rescheduleScript.Run(ctx, s.rdb, []string{s.indexKey(), s.dataKey()},
		id, scoreOf(availableAt)).Int64()
	if err != nil {
		return fmt.Errorf("delayedstore: reschedule %q: %w", id, err)
	}
	if moved == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if err := removeScript.Run(ctx, s.rdb, []string{s.indexKey(), s.dataKey()}, id).Err(); err != nil {
		return fmt.Errorf("delayedstore: remove %q: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Size(ctx context.Context) (int64, error) {
	n, err := s.rdb.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("delayedstore: size: %w", err)
	}
	return n, nil
}

// scoreOf converts availability time to the millisecond score used in the
// sorted-set index.
func scoreOf(t time.Time) float64 {
	return float64(t.UnixMilli())
}
