// Package cache provides a generic, thread-safe LRU (Least Recently Used)
// cache for bounding in-memory state.
//
// The cache holds at most a fixed number of entries. Adding one more evicts
// the least recently used entry, so memory stays bounded no matter how many
// distinct keys are seen. This makes it suitable for per-client state keyed
// by values an attacker controls, such as remote addresses.
//
// # Key Features
//
//   - Generic over any comparable key type and any value type
//   - Mutex-based synchronization; every method is safe for concurrent use
//   - O(1) Get, GetOrPut and Put
//   - Sweeping of stale entries from the cold end with EvictOldest
//   - Optional eviction callback, e.g. for metrics
//
// # Usage
//
//	c := cache.NewLRUCache[string, *Session](1000)
//
//	c.Put("sess:1", s)
//	if s, ok := c.Get("sess:1"); ok {
//	    // use s
//	}
//
//	// Create on first use.
//	lim := limiters.GetOrPut(ip, func() *rate.Limiter {
//	    return rate.NewLimiter(1, 10)
//	})
//
// NewLRUCache panics when the capacity is not positive.
//
// # Recency
//
// Get, GetOrPut and Put mark an entry as recently used. The eviction order is
// therefore also the order of last access, and EvictOldest relies on that to
// drop idle entries without scanning the whole cache. It walks from the
// oldest entry and stops at the first one the predicate keeps:
//
//	seen := cache.NewLRUCache[string, time.Time](10_000)
//	seen.Put(ip, now)
//
//	// Forget addresses not seen for ten minutes.
//	seen.EvictOldest(func(_ string, last time.Time) bool {
//	    return now.Sub(last) >= 10*time.Minute
//	})
//
// The predicate must be monotonic in recency for this to find all stale
// entries; a timestamp refreshed on every access satisfies that.
//
// # Eviction Callback
//
// SetEvictCallback observes every entry dropped by capacity eviction or
// EvictOldest:
//
//	c.SetEvictCallback(func(key string, _ *Session) {
//	    evictions.Inc()
//	})
//
// The callback runs while the cache is locked and must not call back into
// the cache.
package cache
