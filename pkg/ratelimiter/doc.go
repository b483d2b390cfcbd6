// Package ratelimiter provides token bucket rate limiting with memory and Redis stores and
// an HTTP middleware.
//
// The bucket allows bursts up to Capacity and refills RefillRate tokens every RefillInterval.
// A request that does not fit is denied without touching the bucket, so hammering a limited
// key does not push the next allowed request further out.
//
// # Basic Usage
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       5,
//		RefillRate:     1,
//		RefillInterval: time.Minute,
//	})
//
//	result, err := limiter.Allow(ctx, "2fa:"+accountID)
//	if !result.Allowed() {
//		// retry after result.RetryAfter()
//	}
//
// Status reports without consuming, and Reset refills a bucket, for example after a
// successful login:
//
//	status, err := limiter.Status(ctx, key)
//	if status.Exhausted() { ... }
//	err = limiter.Reset(ctx, key)
//
// # Stores
//
// MemoryStore keeps buckets in a map and removes idle ones periodically. RedisStore runs the
// same algorithm as a Lua script, so all instances behind a load balancer share state:
//
//	store := ratelimiter.NewRedisStore(redisClient, ratelimiter.WithKeyPrefix("2fa:throttle:"))
//
// # HTTP Middleware
//
//	mw := ratelimiter.Middleware(limiter, ratelimiter.Composite(
//		ratelimiter.Static("verify"),
//		func(r *http.Request) string { return clientip.GetIPFromContext(r.Context()) },
//	))
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset, and
// Retry-After on denial. Keys longer than 64 characters are hashed with FNV-1a.
package ratelimiter
