package replay

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable wraps backend failures.
var ErrStoreUnavailable = errors.New("replay store unavailable")

// Guard remembers the highest accepted time-step per key.
type Guard interface {
	// Use records step for key and reports whether it is fresh, i.e. strictly greater than
	// every step previously recorded for key within ttl. A stale step is not recorded.
	Use(ctx context.Context, key string, step int64, ttl time.Duration) (bool, error)
}

// Nop accepts every step. Use it to turn replay protection off explicitly.
type Nop struct{}

func (Nop) Use(context.Context, string, int64, time.Duration) (bool, error) { return true, nil }
