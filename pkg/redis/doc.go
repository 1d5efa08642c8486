// Package redis connects to Redis and implements the ratelimiter persistence
// contract on top of it.
//
// Records use this layout, every key optionally prefixed (WithKeyPrefix):
//
//	bucket:{key}                 hash   Capacity RefillRate LastRefill NumberOfTokens
//	config:{key}                 hash   Name Description Status Algorithm RefillRate Capacity CreatedAt UpdatedAt
//	api-keys                     set    every issued key
//	metrics:{key}:{yyyyMMddHH}   hash   Allowed Throttled, expires after 7 days
//
// Store reads with HGETALL and writes with HSET, so two concurrent checks on
// one key may both be admitted from the same balance. AtomicStore adds a Lua
// compare-and-swap and makes the Limiter retry on conflict instead.
//
// Usage:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := redis.NewAtomicStore(client, redis.WithKeyPrefix("rat:"))
//	limiter := ratelimiter.New(store)
//
// Failures of the client are joined with ratelimiter.ErrStoreUnavailable.
// Healthcheck plugs a ping into readiness probes.
package redis
