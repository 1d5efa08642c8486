package usage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
	"github.com/dmitrymomot/keygate/pkg/usage"
)

type brokenStore struct{ ratelimiter.UsageStore }

func (brokenStore) RecordUsage(context.Context, string, bool, time.Time) error {
	return errors.Join(ratelimiter.ErrStoreUnavailable, errors.New("reset by peer"))
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := ratelimiter.NewMemoryStore(ratelimiter.WithStoreClock(clock))
	rec := usage.NewRecorder(store, usage.WithClock(clock))

	require.NoError(t, rec.Record(ctx, "k", true))
	require.NoError(t, rec.Record(ctx, "k", true))
	require.NoError(t, rec.Record(ctx, "k", false))

	from, to := rec.DefaultRange(time.Time{}, time.Time{})
	assert.Equal(t, now, to)
	assert.Equal(t, now.Add(-usage.DefaultWindow), from)

	series, err := rec.Range(ctx, "k", from, to)
	require.NoError(t, err)
	assert.Len(t, series, 25)
	assert.Equal(t, ratelimiter.HourlyUsage{Hour: now.Truncate(time.Hour), Allowed: 2, Throttled: 1}, series[len(series)-1])
	assert.Equal(t, usage.Totals{Allowed: 2, Throttled: 1}, usage.Summarize(series))
}

func TestRecorder_RangeValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := usage.NewRecorder(ratelimiter.NewMemoryStore())
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := rec.Range(ctx, "k", base.Add(time.Hour), base)
	assert.ErrorIs(t, err, usage.ErrInvalidRange)

	_, err = rec.Range(ctx, "k", base, base.Add(ratelimiter.UsageRetention+time.Hour))
	assert.ErrorIs(t, err, usage.ErrRangeTooLarge)

	series, err := rec.Range(ctx, "k", base, base.Add(ratelimiter.UsageRetention))
	require.NoError(t, err)
	assert.Len(t, series, 7*24+1)
	assert.Equal(t, usage.Totals{}, usage.Summarize(series))
}

func TestRecorder_DefaultRangeKeepsGivenBounds(t *testing.T) {
	t.Parallel()

	rec := usage.NewRecorder(ratelimiter.NewMemoryStore())
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	from, gotTo := rec.DefaultRange(time.Time{}, to)
	assert.Equal(t, to, gotTo)
	assert.Equal(t, to.Add(-24*time.Hour), from)

	given := to.Add(-3 * time.Hour)
	from, _ = rec.DefaultRange(given, to)
	assert.Equal(t, given, from)
}

func TestRecorder_RecordFailure(t *testing.T) {
	t.Parallel()

	err := usage.NewRecorder(brokenStore{}).Record(context.Background(), "k", true)
	assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
}
