package ratelimiter

import "time"

// Result contains the result of a rate limit check.
type Result struct {
	Limit     int       // bucket capacity
	Remaining int       // tokens left; negative when the request was denied
	ResetAt   time.Time // next refill
}

// Allowed reports whether the request fit in the bucket.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// Exhausted reports whether the next single-token request would be denied.
func (r *Result) Exhausted() bool {
	return r.Remaining <= 0
}

// RetryAfter returns how long to wait before the next request, or 0 if allowed.
func (r *Result) RetryAfter() time.Duration {
	return r.RetryAfterFrom(time.Now())
}

// RetryAfterFrom is RetryAfter relative to now.
func (r *Result) RetryAfterFrom(now time.Time) time.Duration {
	if r.Allowed() && !r.Exhausted() {
		return 0
	}
	if d := r.ResetAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Config defines the token bucket configuration.
type Config struct {
	Capacity       int           // maximum tokens, i.e. burst
	RefillRate     int           // tokens added per interval
	RefillInterval time.Duration // refill period
}

// ttl is how long an idle bucket takes to refill completely, plus one interval.
func (c Config) ttl() time.Duration {
	intervals := (c.Capacity + c.RefillRate - 1) / c.RefillRate
	return time.Duration(intervals+1) * c.RefillInterval
}
