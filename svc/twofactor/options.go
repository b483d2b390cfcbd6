package twofactor

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/twofactor/pkg/provisioning"
	"github.com/dmitrymomot/twofactor/pkg/ratelimiter"
	"github.com/dmitrymomot/twofactor/pkg/replay"
	"github.com/dmitrymomot/twofactor/pkg/totp"
)

const (
	DefaultSetupTTL = 10 * time.Minute
)

// DefaultThrottle allows five consecutive failures, then one more attempt per minute.
var DefaultThrottle = ratelimiter.Config{
	Capacity:       5,
	RefillRate:     1,
	RefillInterval: time.Minute,
}

// Throttle is the per-account attempt limiter. *ratelimiter.Bucket implements it.
type Throttle interface {
	Allow(ctx context.Context, key string) (*ratelimiter.Result, error)
	Reset(ctx context.Context, key string) error
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSetupTTL bounds how long a setup token stays confirmable.
func WithSetupTTL(ttl time.Duration) Option {
	return func(l *Lifecycle) {
		if ttl > 0 {
			l.setupTTL = ttl
		}
	}
}

// WithWindow sets the accepted clock drift in 30-second steps on each side.
func WithWindow(steps int) Option {
	return func(l *Lifecycle) {
		if steps >= 0 {
			l.window = steps
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(l *Lifecycle) {
		if log != nil {
			l.log = log
		}
	}
}

// WithNotifier sends security notices after enable, disable and reset.
func WithNotifier(n Notifier) Option {
	return func(l *Lifecycle) {
		if n != nil {
			l.notifier = n
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(l *Lifecycle) { l.metrics = m }
}

// WithReplayGuard replaces the in-memory replay guard, e.g. with a Redis-backed one.
func WithReplayGuard(g replay.Guard) Option {
	return func(l *Lifecycle) {
		if g != nil {
			l.replay = g
		}
	}
}

// WithThrottle replaces the in-memory attempt limiter.
func WithThrottle(t Throttle) Option {
	return func(l *Lifecycle) {
		if t != nil {
			l.throttle = t
		}
	}
}

// WithSecretGenerator overrides totp.GenerateSecret.
func WithSecretGenerator(gen func() (totp.Secret, error)) Option {
	return func(l *Lifecycle) {
		if gen != nil {
			l.generate = gen
		}
	}
}

// WithBuilder sets the provisioning payload builder and its renderer chain.
func WithBuilder(b *provisioning.Builder) Option {
	return func(l *Lifecycle) {
		if b != nil {
			l.builder = b
		}
	}
}
