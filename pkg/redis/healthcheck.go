package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Pinger is the part of redis.UniversalClient a probe needs.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// Healthcheck returns a readiness probe that expects PONG from the server.
func Healthcheck(client Pinger) func(context.Context) error {
	return func(ctx context.Context) error {
		reply, err := client.Ping(ctx).Result()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNotReady, err)
		}
		if reply != "PONG" {
			return fmt.Errorf("%w: %q", ErrUnexpectedPong, reply)
		}
		return nil
	}
}
