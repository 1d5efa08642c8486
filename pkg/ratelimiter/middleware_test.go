package ratelimiter_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
)

type brokenLimiter struct{}

func (brokenLimiter) Allow(ctx context.Context, key string) (*ratelimiter.Decision, error) {
	return nil, ratelimiter.ErrStoreUnavailable
}

func (brokenLimiter) Check(ctx context.Context, key string, cost int) (*ratelimiter.Decision, error) {
	return nil, ratelimiter.ErrStoreUnavailable
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	start := time.Unix(1_700_000_000, 0)
	store := ratelimiter.NewMemoryStore()
	seed(t, store, "good", ratelimiter.BucketState{Capacity: 2, RefillRate: 1, LastRefill: start.Unix(), Tokens: 2})
	l := ratelimiter.New(store, ratelimiter.WithClock(func() time.Time { return start }))

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := ratelimiter.Middleware(l)(ok)

	do := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if key != "" {
			req.Header.Set(ratelimiter.DefaultKeyHeader, key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := do("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do("unknown")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do("good")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, rec.Header().Get("Retry-After"))

	rec = do("good")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do("good")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestMiddleware_Options(t *testing.T) {
	t.Parallel()

	start := time.Unix(1_700_000_000, 0)
	store := ratelimiter.NewMemoryStore()
	seed(t, store, "q", ratelimiter.BucketState{Capacity: 10, RefillRate: 0, LastRefill: start.Unix(), Tokens: 10})
	l := ratelimiter.New(store, ratelimiter.WithClock(func() time.Time { return start }))

	var denied *ratelimiter.Decision
	handler := ratelimiter.Middleware(l,
		ratelimiter.WithKeyFunc(func(r *http.Request) string { return r.URL.Query().Get("key") }),
		ratelimiter.WithCostFunc(func(*http.Request) int { return 6 }),
		ratelimiter.WithErrorResponder(func(w http.ResponseWriter, r *http.Request, d *ratelimiter.Decision, err error) {
			denied = d
			w.WriteHeader(http.StatusServiceUnavailable)
		}),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?key=q", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?key=q", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	if assert.NotNil(t, denied) {
		assert.False(t, denied.Allowed)
		assert.Equal(t, ratelimiter.NeverResets, denied.ResetInSeconds)
	}
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestMiddleware_StoreFailure(t *testing.T) {
	t.Parallel()

	handler := ratelimiter.Middleware(brokenLimiter{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ratelimiter.DefaultKeyHeader, "k")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
