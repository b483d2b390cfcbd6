package replay

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryGuard keeps the last accepted step per key in a go-cache with per-item expiry.
type MemoryGuard struct {
	mu    sync.Mutex
	items *cache.Cache
}

// NewMemoryGuard creates a guard whose expired entries are purged every cleanupInterval.
func NewMemoryGuard(cleanupInterval time.Duration) *MemoryGuard {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	return &MemoryGuard{items: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (g *MemoryGuard) Use(_ context.Context, key string, step int64, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if v, ok := g.items.Get(key); ok {
		if last, ok := v.(int64); ok && step <= last {
			return false, nil
		}
	}
	g.items.Set(key, step, ttl)
	return true, nil
}
