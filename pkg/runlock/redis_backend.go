package runlock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend implements the lease primitive with SET NX PX and a
// token-checked delete.
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
		prefix = "locks"
	}
	return &RedisBackend{rdb: rdb, prefix: prefix}, nil
}

// Delete only when the stored token matches, so an expired-and-retaken lease
// is never released by its previous owner.
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

func (b *RedisBackend) TryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return b.rdb.SetNX(ctx, b.prefix+":"+key, token, ttl).Result()
}

func (b *RedisBackend) Release(ctx context.Context, key, token string) error {
	return releaseLockScript.Run(ctx, b.rdb, []string{b.prefix + ":" + key}, token).Err()
}
