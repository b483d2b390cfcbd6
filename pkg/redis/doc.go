// Package redis connects to Redis with go-redis. The client backs the shared throttle
// buckets and the replay guard when the service runs on more than one instance.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
package redis
