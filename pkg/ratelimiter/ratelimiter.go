package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxSwapAttempts bounds the optimistic loop used with a SwapStore.
const DefaultMaxSwapAttempts = 8

// RateLimiter defines the interface for admission checks.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (*Decision, error)
	Check(ctx context.Context, key string, cost int) (*Decision, error)
}

// Limiter is the token bucket decision engine. It keeps no state of its own;
// every check loads the key's bucket from the store.
type Limiter struct {
	store           BucketStore
	swap            SwapStore
	now             func() time.Time
	maxSwapAttempts int
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Useful in tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithMaxSwapAttempts sets how many compare-and-swap rounds a check may take
// before failing with ErrConflict. Ignored for stores without SwapStore.
func WithMaxSwapAttempts(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxSwapAttempts = n
		}
	}
}

// New creates a Limiter over store. If store implements SwapStore, checks use
// it and concurrent checks on one key cannot overspend the bucket.
func New(store BucketStore, opts ...Option) *Limiter {
	l := &Limiter{
		store:           store,
		now:             time.Now,
		maxSwapAttempts: DefaultMaxSwapAttempts,
	}
	if s, ok := store.(SwapStore); ok {
		l.swap = s
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow checks a single-token request.
func (l *Limiter) Allow(ctx context.Context, key string) (*Decision, error) {
	return l.Check(ctx, key, 1)
}

// Check decides whether key may spend cost tokens now. Unknown keys fail with
// ErrUnknownKey and no state is created. The resulting state is persisted
// once, after the decision is computed; a persistence failure is returned and
// the decision discarded.
func (l *Limiter) Check(ctx context.Context, key string, cost int) (*Decision, error) {
	if cost <= 0 {
		return nil, fmt.Errorf("%w: must be positive, got %d", ErrInvalidCost, cost)
	}

	now := l.now().Unix()
	if l.swap != nil {
		return l.checkAndSwap(ctx, key, cost, now)
	}

	state, err := l.load(ctx, key)
	if err != nil {
		return nil, err
	}

	next, decision, changed := Evaluate(*state, now, cost)
	if changed {
		if err := l.store.Save(ctx, key, next, nil); err != nil {
			return nil, fmt.Errorf("persist bucket state: %w", err)
		}
	}
	return &decision, nil
}

func (l *Limiter) checkAndSwap(ctx context.Context, key string, cost int, now int64) (*Decision, error) {
	for range l.maxSwapAttempts {
		state, err := l.load(ctx, key)
		if err != nil {
			return nil, err
		}

		next, decision, changed := Evaluate(*state, now, cost)
		if !changed {
			return &decision, nil
		}

		swapped, err := l.swap.CompareAndSwap(ctx, key, *state, next)
		if err != nil {
			return nil, fmt.Errorf("persist bucket state: %w", err)
		}
		if swapped {
			return &decision, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %d attempts", ErrConflict, l.maxSwapAttempts)
}

func (l *Limiter) load(ctx context.Context, key string) (*BucketState, error) {
	state, err := l.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownKey
		}
		return nil, err
	}
	return state, nil
}
