package ratelimiter

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// usageCell is one hourly usage bucket.
type usageCell struct {
	allowed   int64
	throttled int64
	expiresAt time.Time
}

// MemoryStore implements Store in process memory. Records are kept as field
// maps and go through the same codec as the Redis store.
//
// Every method is safe for concurrent use, but Get followed by Save is not
// atomic: like the Redis store, it lets concurrent checks overspend a bucket.
// Use AtomicMemoryStore for compare-and-swap semantics.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string]string
	configs map[string]map[string]string
	keys    map[string]struct{}
	usage   map[string]*usageCell

	now func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithStoreClock overrides the time source used for UpdatedAt stamps and
// usage expiry.
func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		buckets: make(map[string]map[string]string),
		configs: make(map[string]map[string]string),
		keys:    make(map[string]struct{}),
		usage:   make(map[string]*usageCell),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(ms)
	}
	return ms
}

func (ms *MemoryStore) Get(ctx context.Context, key string) (*BucketState, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.getLocked(key)
}

func (ms *MemoryStore) getLocked(key string) (*BucketState, error) {
	fields, ok := ms.buckets[key]
	if !ok {
		return nil, ErrNotFound
	}
	state, err := DecodeState(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return &state, nil
}

func (ms *MemoryStore) Save(ctx context.Context, key string, state BucketState, cfg *BucketConfig) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.buckets[key] = EncodeState(state)
	if cfg != nil {
		ms.configs[key] = EncodeConfig(*cfg)
	}
	return nil
}

func (ms *MemoryStore) RegisterKey(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.keys[key] = struct{}{}
	return nil
}

func (ms *MemoryStore) ListKeys(ctx context.Context) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	keys := make([]string, 0, len(ms.keys))
	for key := range ms.keys {
		keys = append(keys, key)
	}
	return keys, nil
}

func (ms *MemoryStore) GetConfig(ctx context.Context, key string) (*BucketConfig, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	fields, ok := ms.configs[key]
	if !ok {
		return nil, ErrNotFound
	}
	cfg, err := DecodeConfig(fields)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (ms *MemoryStore) GetConfigFields(ctx context.Context, key string) (ConfigFields, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	stored, ok := ms.configs[key]
	if !ok {
		return nil, ErrNotFound
	}

	fields := make(ConfigFields, len(ViewFields))
	for _, name := range ViewFields {
		if v, ok := stored[name]; ok {
			fields[name] = v
		}
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return fields, nil
}

func (ms *MemoryStore) UpdateLimits(ctx context.Context, key string, upd LimitUpdate, existing BucketState) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	state := existing
	state.Capacity = upd.Capacity
	state.RefillRate = upd.RefillRate
	state.Tokens = min(upd.Capacity, existing.Tokens)
	ms.buckets[key] = EncodeState(state)

	cfg := ms.configs[key]
	if cfg == nil {
		cfg = make(map[string]string)
		ms.configs[key] = cfg
	}
	fields := EncodeConfig(BucketConfig{
		Algorithm:  upd.Algorithm,
		RefillRate: upd.RefillRate,
		Capacity:   upd.Capacity,
		UpdatedAt:  ms.now().Unix(),
	})
	for _, name := range []string{FieldAlgorithm, FieldRefillRate, FieldCapacity, FieldUpdatedAt} {
		cfg[name] = fields[name]
	}
	return nil
}

func (ms *MemoryStore) RecordUsage(ctx context.Context, key string, allowed bool, now time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	id := key + ":" + UsageHourSuffix(now)
	cell := ms.usage[id]
	if cell == nil || ms.expired(cell) {
		cell = &usageCell{}
		ms.usage[id] = cell
	}
	if allowed {
		cell.allowed++
	} else {
		cell.throttled++
	}
	cell.expiresAt = ms.now().Add(UsageRetention)
	return nil
}

func (ms *MemoryStore) GetUsage(ctx context.Context, key string, from, to time.Time) ([]HourlyUsage, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	hours := HourRange(from, to)
	out := make([]HourlyUsage, 0, len(hours))
	for _, h := range hours {
		u := HourlyUsage{Hour: h}
		if cell := ms.usage[key+":"+UsageHourSuffix(h)]; cell != nil && !ms.expired(cell) {
			u.Allowed = cell.allowed
			u.Throttled = cell.throttled
		}
		out = append(out, u)
	}
	return out, nil
}

func (ms *MemoryStore) expired(cell *usageCell) bool {
	return !ms.now().Before(cell.expiresAt)
}

// AtomicMemoryStore is a MemoryStore that also implements SwapStore.
type AtomicMemoryStore struct {
	*MemoryStore
}

// NewAtomicMemoryStore creates an empty in-memory store with compare-and-swap.
func NewAtomicMemoryStore(opts ...MemoryStoreOption) *AtomicMemoryStore {
	return &AtomicMemoryStore{MemoryStore: NewMemoryStore(opts...)}
}

// CompareAndSwap writes next only if the stored state still equals prev.
func (ms *AtomicMemoryStore) CompareAndSwap(ctx context.Context, key string, prev, next BucketState) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	current, err := ms.getLocked(key)
	if err != nil {
		return false, err
	}
	if *current != prev {
		return false, nil
	}
	ms.buckets[key] = EncodeState(next)
	return true, nil
}
