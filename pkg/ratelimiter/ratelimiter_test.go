package ratelimiter_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errBackend = errors.New("connection refused")

// fixedClock returns a settable clock for limiter tests.
func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	var now atomic.Int64
	now.Store(start.Unix())
	return func() time.Time { return time.Unix(now.Load(), 0) },
		func(d time.Duration) { now.Add(int64(d / time.Second)) }
}

// failingStore fails Save with a store error.
type failingStore struct {
	*ratelimiter.MemoryStore
	saves atomic.Int32
}

func (s *failingStore) Save(ctx context.Context, key string, state ratelimiter.BucketState, cfg *ratelimiter.BucketConfig) error {
	s.saves.Add(1)
	return errors.Join(ratelimiter.ErrStoreUnavailable, errBackend)
}

// countingStore counts Save calls.
type countingStore struct {
	*ratelimiter.MemoryStore
	saves atomic.Int32
}

func (s *countingStore) Save(ctx context.Context, key string, state ratelimiter.BucketState, cfg *ratelimiter.BucketConfig) error {
	s.saves.Add(1)
	return s.MemoryStore.Save(ctx, key, state, cfg)
}

func seed(t *testing.T, store ratelimiter.BucketStore, key string, state ratelimiter.BucketState) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), key, state, nil))
}

func TestLimiter_Check(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	start := time.Unix(1_700_000_000, 0)

	t.Run("scenario A persists refill and spend", func(t *testing.T) {
		t.Parallel()
		clock, advance := fixedClock(start)
		store := ratelimiter.NewMemoryStore()
		seed(t, store, "key-a", ratelimiter.BucketState{Capacity: 100, RefillRate: 5, LastRefill: start.Unix(), Tokens: 50})
		advance(10 * time.Second)

		l := ratelimiter.New(store, ratelimiter.WithClock(clock))
		d, err := l.Check(ctx, "key-a", 10)
		require.NoError(t, err)

		assert.True(t, d.Allowed)
		assert.Equal(t, 90, d.RemainingTokens)
		assert.Equal(t, 100, d.Limit)

		state, err := store.Get(ctx, "key-a")
		require.NoError(t, err)
		assert.Equal(t, 90, state.Tokens)
		assert.Equal(t, start.Unix()+10, state.LastRefill)
	})

	t.Run("scenario B denial does not write", func(t *testing.T) {
		t.Parallel()
		clock, _ := fixedClock(start)
		store := &countingStore{MemoryStore: ratelimiter.NewMemoryStore()}
		seed(t, store.MemoryStore, "key-b", ratelimiter.BucketState{Capacity: 100, RefillRate: 2, LastRefill: start.Unix(), Tokens: 2})

		l := ratelimiter.New(store, ratelimiter.WithClock(clock))
		d, err := l.Check(ctx, "key-b", 5)
		require.NoError(t, err)

		assert.False(t, d.Allowed)
		assert.Equal(t, 2, d.RemainingTokens)
		assert.Equal(t, 2, d.ResetInSeconds)
		assert.Equal(t, 2*time.Second, d.RetryAfter())
		assert.Equal(t, int32(0), store.saves.Load())
	})

	t.Run("scenario C unknown key creates nothing", func(t *testing.T) {
		t.Parallel()
		store := ratelimiter.NewMemoryStore()
		l := ratelimiter.New(store)

		d, err := l.Check(ctx, "missing", 1)
		assert.Nil(t, d)
		assert.ErrorIs(t, err, ratelimiter.ErrUnknownKey)

		_, err = store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ratelimiter.ErrNotFound)
	})

	t.Run("scenario D zero rate", func(t *testing.T) {
		t.Parallel()
		clock, advance := fixedClock(start)
		store := ratelimiter.NewMemoryStore()
		seed(t, store, "key-d", ratelimiter.BucketState{Capacity: 10, RefillRate: 0, LastRefill: start.Unix(), Tokens: 0})
		advance(time.Hour)

		l := ratelimiter.New(store, ratelimiter.WithClock(clock))
		d, err := l.Check(ctx, "key-d", 1)
		require.NoError(t, err)

		assert.False(t, d.Allowed)
		assert.Equal(t, ratelimiter.NeverResets, d.ResetInSeconds)
	})

	t.Run("denial with refill persists refill only", func(t *testing.T) {
		t.Parallel()
		clock, advance := fixedClock(start)
		store := &countingStore{MemoryStore: ratelimiter.NewMemoryStore()}
		seed(t, store.MemoryStore, "key-r", ratelimiter.BucketState{Capacity: 50, RefillRate: 1, LastRefill: start.Unix(), Tokens: 0})
		advance(3 * time.Second)

		l := ratelimiter.New(store, ratelimiter.WithClock(clock))
		d, err := l.Check(ctx, "key-r", 10)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 7, d.ResetInSeconds)
		assert.Equal(t, int32(1), store.saves.Load())

		state, err := store.Get(ctx, "key-r")
		require.NoError(t, err)
		assert.Equal(t, 3, state.Tokens)
		assert.Equal(t, start.Unix()+3, state.LastRefill)
	})

	t.Run("drains then recovers", func(t *testing.T) {
		t.Parallel()
		clock, advance := fixedClock(start)
		store := ratelimiter.NewMemoryStore()
		seed(t, store, "key-x", ratelimiter.BucketState{Capacity: 3, RefillRate: 1, LastRefill: start.Unix(), Tokens: 3})
		l := ratelimiter.New(store, ratelimiter.WithClock(clock))

		for i := range 3 {
			d, err := l.Allow(ctx, "key-x")
			require.NoError(t, err)
			assert.True(t, d.Allowed)
			assert.Equal(t, 2-i, d.RemainingTokens)
		}

		d, err := l.Allow(ctx, "key-x")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 1, d.ResetInSeconds)

		advance(time.Second)
		d, err = l.Allow(ctx, "key-x")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 0, d.RemainingTokens)
	})

	t.Run("invalid cost is rejected before store access", func(t *testing.T) {
		t.Parallel()
		store := &countingStore{MemoryStore: ratelimiter.NewMemoryStore()}
		l := ratelimiter.New(store)

		for _, cost := range []int{0, -1} {
			d, err := l.Check(ctx, "any", cost)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, ratelimiter.ErrInvalidCost)
		}
	})

	t.Run("persistence failure surfaces", func(t *testing.T) {
		t.Parallel()
		clock, _ := fixedClock(start)
		store := &failingStore{MemoryStore: ratelimiter.NewMemoryStore()}
		seed(t, store.MemoryStore, "key-f", ratelimiter.BucketState{Capacity: 10, RefillRate: 1, LastRefill: start.Unix(), Tokens: 10})

		l := ratelimiter.New(store, ratelimiter.WithClock(clock))
		d, err := l.Check(ctx, "key-f", 1)
		assert.Nil(t, d)
		assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
		assert.Equal(t, int32(1), store.saves.Load())

		state, err := store.Get(ctx, "key-f")
		require.NoError(t, err)
		assert.Equal(t, 10, state.Tokens)
	})
}

func TestLimiter_CheckAtomicStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	start := time.Unix(1_700_000_000, 0)
	clock, advance := fixedClock(start)

	store := ratelimiter.NewAtomicMemoryStore()
	seed(t, store, "key", ratelimiter.BucketState{Capacity: 100, RefillRate: 5, LastRefill: start.Unix(), Tokens: 50})
	advance(10 * time.Second)

	l := ratelimiter.New(store, ratelimiter.WithClock(clock))
	d, err := l.Check(ctx, "key", 10)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 90, d.RemainingTokens)

	d, err = l.Check(ctx, "missing", 1)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, ratelimiter.ErrUnknownKey)
}

// alwaysConflictStore never wins a swap.
type alwaysConflictStore struct {
	*ratelimiter.MemoryStore
	attempts atomic.Int32
}

func (s *alwaysConflictStore) CompareAndSwap(ctx context.Context, key string, prev, next ratelimiter.BucketState) (bool, error) {
	s.attempts.Add(1)
	return false, nil
}

func TestLimiter_SwapConflictBudget(t *testing.T) {
	t.Parallel()

	store := &alwaysConflictStore{MemoryStore: ratelimiter.NewMemoryStore()}
	seed(t, store.MemoryStore, "key", ratelimiter.BucketState{Capacity: 10, RefillRate: 1, LastRefill: 0, Tokens: 10})

	l := ratelimiter.New(store, ratelimiter.WithMaxSwapAttempts(3))
	d, err := l.Check(context.Background(), "key", 1)

	assert.Nil(t, d)
	assert.ErrorIs(t, err, ratelimiter.ErrConflict)
	assert.Equal(t, int32(3), store.attempts.Load())
}
