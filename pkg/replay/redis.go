package replay

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// useScript stores ARGV[1] under KEYS[1] only if it exceeds the current value.
var useScript = redis.NewScript(`
local last = redis.call('GET', KEYS[1])
if last and tonumber(ARGV[1]) <= tonumber(last) then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// RedisGuard shares replay state between instances.
type RedisGuard struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisGuard(client redis.UniversalClient, prefix string) *RedisGuard {
	if prefix == "" {
		prefix = "replay:"
	}
	return &RedisGuard{client: client, prefix: prefix}
}

func (g *RedisGuard) Use(ctx context.Context, key string, step int64, ttl time.Duration) (bool, error) {
	ms := ttl.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	n, err := useScript.Run(ctx, g.client, []string{g.prefix + key}, step, ms).Int()
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	return n == 1, nil
}
