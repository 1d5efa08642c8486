package redis

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
)

//go:embed compare_and_swap.lua
var compareAndSwapSource string

var compareAndSwapScript = redis.NewScript(compareAndSwapSource)

// AtomicStore is a Store that also implements ratelimiter.SwapStore with a
// server-side script, so concurrent checks on one key cannot overspend it.
type AtomicStore struct {
	*Store
}

// NewAtomicStore wraps a connected client.
func NewAtomicStore(client redis.UniversalClient, opts ...StoreOption) *AtomicStore {
	return &AtomicStore{Store: NewStore(client, opts...)}
}

// CompareAndSwap replaces the bucket state only if it still equals prev.
// Returns ratelimiter.ErrNotFound when the bucket does not exist.
func (s *AtomicStore) CompareAndSwap(ctx context.Context, key string, prev, next ratelimiter.BucketState) (bool, error) {
	args := append(stateArgs(prev), stateArgs(next)...)
	res, err := compareAndSwapScript.Run(ctx, s.client, []string{s.bucketKey(key)}, args...).Int()
	if err != nil {
		return false, unavailable(err)
	}

	switch res {
	case 1:
		return true, nil
	case 0:
		return false, nil
	case -1:
		return false, ratelimiter.ErrNotFound
	default:
		return false, fmt.Errorf("%w: compare-and-swap returned %d", ErrUnexpectedReply, res)
	}
}

// stateArgs renders a state in the script's field order, formatted exactly as
// EncodeState stores it.
func stateArgs(s ratelimiter.BucketState) []any {
	return []any{
		strconv.Itoa(s.Capacity),
		strconv.Itoa(s.RefillRate),
		strconv.FormatInt(s.LastRefill, 10),
		strconv.Itoa(s.Tokens),
	}
}
