package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
)

// Record key names. All of them are prefixed with the store's key prefix.
const (
	bucketKeyPrefix  = "bucket:"
	configKeyPrefix  = "config:"
	metricsKeyPrefix = "metrics:"
	keyIndexName     = "api-keys"
)

// Store implements ratelimiter.Store on Redis hashes and a set.
//
// Like MemoryStore it does not implement ratelimiter.SwapStore, so a check is
// a plain HGETALL followed by HSET. Use AtomicStore for compare-and-swap.
type Store struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithKeyPrefix prepends prefix to every key, e.g. "rat:".
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClock overrides the time source of UpdatedAt stamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore wraps a connected client.
func NewStore(client redis.UniversalClient, opts ...StoreOption) *Store {
	s := &Store{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying client.
func (s *Store) Client() redis.UniversalClient {
	return s.client
}

func (s *Store) bucketKey(key string) string { return s.prefix + bucketKeyPrefix + key }
func (s *Store) configKey(key string) string { return s.prefix + configKeyPrefix + key }
func (s *Store) indexKey() string            { return s.prefix + keyIndexName }

func (s *Store) metricsKey(key string, hour time.Time) string {
	return s.prefix + metricsKeyPrefix + key + ":" + ratelimiter.UsageHourSuffix(hour)
}

func (s *Store) Get(ctx context.Context, key string) (*ratelimiter.BucketState, error) {
	fields, err := s.client.HGetAll(ctx, s.bucketKey(key)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(fields) == 0 {
		return nil, ratelimiter.ErrNotFound
	}
	state, err := ratelimiter.DecodeState(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ratelimiter.ErrNotFound, err)
	}
	return &state, nil
}

// Save writes the bucket and, when cfg is set, replaces the config record in
// a single MULTI/EXEC.
func (s *Store) Save(ctx context.Context, key string, state ratelimiter.BucketState, cfg *ratelimiter.BucketConfig) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.bucketKey(key), pairs(ratelimiter.EncodeState(state))...)
		if cfg != nil {
			pipe.Del(ctx, s.configKey(key))
			pipe.HSet(ctx, s.configKey(key), pairs(ratelimiter.EncodeConfig(*cfg))...)
		}
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) RegisterKey(ctx context.Context, key string) error {
	if err := s.client.SAdd(ctx, s.indexKey(), key).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

func (s *Store) GetConfig(ctx context.Context, key string) (*ratelimiter.BucketConfig, error) {
	fields, err := s.client.HGetAll(ctx, s.configKey(key)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(fields) == 0 {
		return nil, ratelimiter.ErrNotFound
	}
	cfg, err := ratelimiter.DecodeConfig(fields)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Store) GetConfigFields(ctx context.Context, key string) (ratelimiter.ConfigFields, error) {
	values, err := s.client.HMGet(ctx, s.configKey(key), ratelimiter.ViewFields...).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	fields, err := fieldsFromReply(ratelimiter.ViewFields, values)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ratelimiter.ErrNotFound
	}
	return fields, nil
}

func (s *Store) UpdateLimits(ctx context.Context, key string, upd ratelimiter.LimitUpdate, existing ratelimiter.BucketState) error {
	state := existing
	state.Capacity = upd.Capacity
	state.RefillRate = upd.RefillRate
	state.Tokens = min(upd.Capacity, existing.Tokens)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.bucketKey(key), pairs(ratelimiter.EncodeState(state))...)
		pipe.HSet(ctx, s.configKey(key),
			ratelimiter.FieldAlgorithm, upd.Algorithm.String(),
			ratelimiter.FieldRefillRate, strconv.Itoa(upd.RefillRate),
			ratelimiter.FieldCapacity, strconv.Itoa(upd.Capacity),
			ratelimiter.FieldUpdatedAt, strconv.FormatInt(s.now().Unix(), 10),
		)
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// RecordUsage increments the hourly counter and refreshes its expiry in one
// MULTI/EXEC.
func (s *Store) RecordUsage(ctx context.Context, key string, allowed bool, now time.Time) error {
	field := ratelimiter.FieldThrottled
	if allowed {
		field = ratelimiter.FieldAllowed
	}
	mk := s.metricsKey(key, now)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, mk, field, 1)
		pipe.Expire(ctx, mk, ratelimiter.UsageRetention)
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// GetUsage reads every hour of the range in one pipeline round trip.
func (s *Store) GetUsage(ctx context.Context, key string, from, to time.Time) ([]ratelimiter.HourlyUsage, error) {
	hours := ratelimiter.HourRange(from, to)
	if len(hours) == 0 {
		return []ratelimiter.HourlyUsage{}, nil
	}

	cmds := make([]*redis.SliceCmd, len(hours))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, h := range hours {
			cmds[i] = pipe.HMGet(ctx, s.metricsKey(key, h), ratelimiter.FieldAllowed, ratelimiter.FieldThrottled)
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}

	out := make([]ratelimiter.HourlyUsage, 0, len(hours))
	for i, h := range hours {
		u := ratelimiter.HourlyUsage{Hour: h}
		values := cmds[i].Val()
		if len(values) != 2 {
			return nil, fmt.Errorf("%w: HMGET returned %d values", ErrUnexpectedReply, len(values))
		}
		if u.Allowed, err = counter(values[0]); err != nil {
			return nil, err
		}
		if u.Throttled, err = counter(values[1]); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// unavailable marks a client error as a store failure.
func unavailable(err error) error {
	return errors.Join(ratelimiter.ErrStoreUnavailable, err)
}

// pairs flattens a field map into HSET arguments.
func pairs(fields map[string]string) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

// fieldsFromReply zips an HMGET reply with the requested names, skipping
// missing fields.
func fieldsFromReply(names []string, values []any) (ratelimiter.ConfigFields, error) {
	if len(values) != len(names) {
		return nil, fmt.Errorf("%w: HMGET returned %d values for %d fields", ErrUnexpectedReply, len(values), len(names))
	}
	fields := make(ratelimiter.ConfigFields, len(names))
	for i, v := range values {
		switch v := v.(type) {
		case nil:
		case string:
			fields[names[i]] = v
		default:
			return nil, fmt.Errorf("%w: field %s has type %T", ErrUnexpectedReply, names[i], v)
		}
	}
	return fields, nil
}

// counter parses an HMGET counter value; missing counts as zero.
func counter(v any) (int64, error) {
	switch v := v.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: usage counter %q", ratelimiter.ErrMalformedRecord, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: usage counter has type %T", ErrUnexpectedReply, v)
	}
}
