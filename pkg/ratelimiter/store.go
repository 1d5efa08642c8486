package ratelimiter

import (
	"context"
	"time"
)

// UsageRetention is how long an hourly usage bucket is kept after its last write.
const UsageRetention = 7 * 24 * time.Hour

// usageHourLayout formats the hour suffix of usage bucket keys (yyyyMMddHH).
const usageHourLayout = "2006010215"

// BucketStore is the part of the persistence contract the Limiter needs.
//
// Get followed by Save is a plain read-modify-write: two concurrent checks on
// the same key may both read the same token count and both admit. Stores that
// can do better also implement SwapStore.
type BucketStore interface {
	// Get returns the bucket state, or ErrNotFound when the key has none.
	Get(ctx context.Context, key string) (*BucketState, error)

	// Save writes the bucket state and, when cfg is not nil, the config record.
	Save(ctx context.Context, key string, state BucketState, cfg *BucketConfig) error
}

// SwapStore is implemented by stores that can replace a bucket state only if
// it still equals prev. The Limiter switches to an optimistic
// read-decide-swap loop when its store implements it.
type SwapStore interface {
	CompareAndSwap(ctx context.Context, key string, prev, next BucketState) (bool, error)
}

// KeyStore is the persistence contract of the key lifecycle.
type KeyStore interface {
	BucketStore

	// RegisterKey adds key to the key index. Idempotent.
	RegisterKey(ctx context.Context, key string) error

	// ListKeys returns every indexed key, or an empty slice when none exist.
	ListKeys(ctx context.Context) ([]string, error)

	// GetConfig returns the full config record. ErrNotFound when absent,
	// ErrMalformedRecord when a field does not decode.
	GetConfig(ctx context.Context, key string) (*BucketConfig, error)

	// GetConfigFields returns the raw projection fields (see ViewFields).
	// ErrNotFound when none of them exist.
	GetConfigFields(ctx context.Context, key string) (ConfigFields, error)

	// UpdateLimits writes new sizing to state and config. Tokens are clamped
	// to min(upd.Capacity, existing.Tokens); LastRefill is left untouched.
	UpdateLimits(ctx context.Context, key string, upd LimitUpdate, existing BucketState) error
}

// UsageStore keeps hourly allowed/throttled counters.
type UsageStore interface {
	// RecordUsage increments one counter of the hour containing now and
	// refreshes the bucket's UsageRetention expiry.
	RecordUsage(ctx context.Context, key string, allowed bool, now time.Time) error

	// GetUsage returns one entry per UTC hour from from to to inclusive,
	// zero-filled and ascending.
	GetUsage(ctx context.Context, key string, from, to time.Time) ([]HourlyUsage, error)
}

// Store is the complete persistence contract.
type Store interface {
	KeyStore
	UsageStore
}

// HourRange returns every UTC hour boundary from from to to inclusive.
// Both ends are truncated to the hour. Returns nil when from is after to.
func HourRange(from, to time.Time) []time.Time {
	start := from.UTC().Truncate(time.Hour)
	end := to.UTC().Truncate(time.Hour)
	if start.After(end) {
		return nil
	}

	hours := make([]time.Time, 0, int(end.Sub(start)/time.Hour)+1)
	for h := start; !h.After(end); h = h.Add(time.Hour) {
		hours = append(hours, h)
	}
	return hours
}

// UsageHourSuffix formats the UTC hour containing t as yyyyMMddHH.
func UsageHourSuffix(t time.Time) string {
	return t.UTC().Format(usageHourLayout)
}
