// Package redis holds the Redis connection plumbing shared by the queue,
// concurrency-accounting and run-lock subsystems.
//
// Connect retries until the server answers a ping or the configured budget
// is spent; Healthcheck exposes the same ping as a readiness probe.
//
// # Usage
//
//	client, err := redis.Connect(ctx, redis.Config{
//		ConnectionURL: "redis://localhost:6379/0",
//		RetryAttempts: 3,
//		RetryInterval: 5 * time.Second,
//		ConnectTimeout: 30 * time.Second,
//	})
package redis
