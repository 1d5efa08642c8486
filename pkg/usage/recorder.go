package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
)

// DefaultWindow is the range served when a caller gives no bounds.
const DefaultWindow = 24 * time.Hour

// Totals sums a usage series.
type Totals struct {
	Allowed   int64 `json:"allowed"`
	Throttled int64 `json:"throttled"`
}

// Recorder writes and reads hourly allowed/throttled counters.
type Recorder struct {
	store ratelimiter.UsageStore
	now   func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the time source stamped on recorded events.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder builds a Recorder on store.
func NewRecorder(store ratelimiter.UsageStore, opts ...Option) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record counts one check outcome in the current UTC hour.
func (r *Recorder) Record(ctx context.Context, key string, allowed bool) error {
	if err := r.store.RecordUsage(ctx, key, allowed, r.now()); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// Range returns one entry per UTC hour from from to to inclusive. The
// window may not be longer than ratelimiter.UsageRetention, since older
// hours have expired anyway.
func (r *Recorder) Range(ctx context.Context, key string, from, to time.Time) ([]ratelimiter.HourlyUsage, error) {
	if from.After(to) {
		return nil, ErrInvalidRange
	}
	if to.Sub(from) > ratelimiter.UsageRetention {
		return nil, fmt.Errorf("%w: %s > %s", ErrRangeTooLarge, to.Sub(from), ratelimiter.UsageRetention)
	}
	return r.store.GetUsage(ctx, key, from, to)
}

// DefaultRange resolves missing bounds: to defaults to now and from to
// DefaultWindow before to.
func (r *Recorder) DefaultRange(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = r.now()
	}
	if from.IsZero() {
		from = to.Add(-DefaultWindow)
	}
	return from, to
}

// Summarize adds up a series.
func Summarize(series []ratelimiter.HourlyUsage) Totals {
	var t Totals
	for _, h := range series {
		t.Allowed += h.Allowed
		t.Throttled += h.Throttled
	}
	return t
}
