// Package ratelimiter implements per-key token bucket admission control over a
// pluggable store.
//
// Every API key owns one BucketState (the live counter) and one BucketConfig
// (the admin-facing record). A bucket holds up to Capacity tokens and gains
// RefillRate tokens per second. A check of cost n is admitted when at least n
// tokens are available after refill, and then n tokens are deducted.
//
// # Basic Usage
//
//	store := ratelimiter.NewMemoryStore()
//	limiter := ratelimiter.New(store)
//
//	decision, err := limiter.Check(ctx, apiKey, 5)
//	if errors.Is(err, ratelimiter.ErrUnknownKey) {
//		// 401
//	}
//	if !decision.Allowed {
//		// retry after decision.ResetInSeconds
//	}
//
// # Numeric Semantics
//
// All token arithmetic is integer. Refill truncates: floor(elapsed*rate).
// Reset time rounds up: ceil(deficit/rate), so a caller is never told to retry
// before enough tokens exist. A bucket with a zero refill rate reports
// NeverResets.
//
// Refill and Evaluate are pure functions over BucketState and can be tested
// without a store.
//
// # Store Contract
//
// Limiter needs a BucketStore. The API key lifecycle needs a KeyStore and
// usage metrics need a UsageStore; Store combines all three. Implementations
// wrap backend failures with ErrStoreUnavailable and never retry.
//
// # Concurrency
//
// A check reads the bucket, decides, and writes it back. With a plain
// BucketStore (MemoryStore, redis.Store) these are separate operations, so two
// concurrent checks on the same key can both read the same count and both be
// admitted. This is a known property of the default stores.
//
// Stores that also implement SwapStore (AtomicMemoryStore, redis.AtomicStore)
// replace the write with a compare-and-swap. Limiter detects this and retries
// the read-decide-swap cycle on conflict, up to WithMaxSwapAttempts rounds.
// The decision logic and the Check signature do not change.
//
// # HTTP Middleware
//
// Middleware protects an http.Handler in-process, reading the key from the
// X-API-Key header by default:
//
//	mux.Handle("/", ratelimiter.Middleware(limiter)(handler))
//
// # Error Types
//
//	if errors.Is(err, ratelimiter.ErrInvalidCost) {
//		// cost must be positive
//	}
//	if errors.Is(err, ratelimiter.ErrUnknownKey) {
//		// no bucket for this key
//	}
//	if errors.Is(err, ratelimiter.ErrStoreUnavailable) {
//		// backend failure
//	}
package ratelimiter
