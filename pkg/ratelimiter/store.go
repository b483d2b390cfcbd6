package ratelimiter

import (
	"context"
	"time"
)

// Store defines the interface for rate limit storage backends.
type Store interface {
	// ConsumeTokens refills the bucket for the elapsed time and then takes the requested
	// tokens if enough are available. It returns the tokens left after the call; a negative
	// value means the request was denied and nothing was taken. tokens == 0 only reports.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset clears the rate limit state for the given key.
	Reset(ctx context.Context, key string) error
}
