package ratelimiter

import "time"

// NeverResets is reported as ResetInSeconds when a denied bucket has a zero
// refill rate and will not recover on its own.
const NeverResets = -1

// BucketState is the live counter of a key's token bucket.
type BucketState struct {
	Capacity   int   // Maximum tokens the bucket can hold
	RefillRate int   // Tokens added per second
	LastRefill int64 // Unix seconds of the last applied refill
	Tokens     int   // Tokens currently available, 0 <= Tokens <= Capacity
}

// Full reports whether the bucket holds its full capacity.
func (s BucketState) Full() bool {
	return s.Tokens >= s.Capacity
}

// BucketConfig is the admin-facing record bound to a key. Its sizing fields
// mirror BucketState; the state is the live counter, the config is what was
// last applied.
type BucketConfig struct {
	Name        string
	Description *string // nil when no description was supplied
	Status      Status
	Algorithm   Algorithm
	RefillRate  int
	Capacity    int
	CreatedAt   int64
	UpdatedAt   int64
}

// ConfigView is the compact projection of a BucketConfig used for listings
// and detail lookups.
type ConfigView struct {
	Name        string
	Description string
	Status      Status
	Algorithm   Algorithm
	Capacity    int
	RefillRate  int
	CreatedAt   time.Time
}

// ConfigFields holds the raw projection fields read from a store, keyed by
// field name. Fields absent from the stored record are absent from the map.
type ConfigFields map[string]string

// LimitUpdate carries new sizing for an existing key.
type LimitUpdate struct {
	Algorithm  Algorithm
	RefillRate int
	Capacity   int
}

// Validate checks the update before any store access.
func (u LimitUpdate) Validate() error {
	if !u.Algorithm.Valid() {
		return ErrInvalidLimits
	}
	if u.Capacity <= 0 {
		return ErrInvalidLimits
	}
	if u.RefillRate < 0 {
		return ErrInvalidLimits
	}
	return nil
}

// Decision is the outcome of a single check.
type Decision struct {
	Allowed         bool
	RemainingTokens int
	Limit           int
	ResetInSeconds  int // 0 when allowed, NeverResets when the bucket cannot refill
}

// RetryAfter returns how long a denied caller should wait.
// Returns 0 when the request was allowed or the bucket never refills.
func (d Decision) RetryAfter() time.Duration {
	if d.Allowed || d.ResetInSeconds <= 0 {
		return 0
	}
	return time.Duration(d.ResetInSeconds) * time.Second
}

// HourlyUsage holds the check counters for one UTC calendar hour.
type HourlyUsage struct {
	Hour      time.Time
	Allowed   int64
	Throttled int64
}
