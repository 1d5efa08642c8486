package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/keygate/pkg/apikey"
	"github.com/dmitrymomot/keygate/pkg/binder"
	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
	"github.com/dmitrymomot/keygate/pkg/usage"
)

func TestAdminGuard(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	g := NewAdminGuard("token", WithFailureRate(0.5, 2), WithAdminClock(func() time.Time { return now }))

	assert.NoError(t, g.Authorize("10.0.0.1", "token"))
	assert.ErrorIs(t, g.Authorize("10.0.0.1", "tok"), ErrAdminUnauthorized)
	assert.ErrorIs(t, g.Authorize("10.0.0.1", ""), ErrAdminUnauthorized)
	assert.ErrorIs(t, g.Authorize("10.0.0.1", "token"), ErrAdminThrottled)

	// Other addresses are unaffected.
	assert.NoError(t, g.Authorize("10.0.0.2", "token"))

	// One failure refills every two seconds.
	now = now.Add(2 * time.Second)
	assert.NoError(t, g.Authorize("10.0.0.1", "token"))

	require.Equal(t, 2, g.Clients())
	now = now.Add(adminIdleTTL)
	assert.NoError(t, g.Authorize("10.0.0.3", "token"))
	assert.Equal(t, 1, g.Clients())
}

func TestAdminGuard_MaxClients(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	g := NewAdminGuard("token", WithFailureRate(0.01, 1), WithMaxClients(2), WithAdminClock(func() time.Time { return now }))

	assert.ErrorIs(t, g.Authorize("10.0.0.1", "bad"), ErrAdminUnauthorized)
	assert.ErrorIs(t, g.Authorize("10.0.0.1", "token"), ErrAdminThrottled)
	assert.NoError(t, g.Authorize("10.0.0.2", "token"))
	assert.NoError(t, g.Authorize("10.0.0.3", "token"))
	assert.Equal(t, 2, g.Clients())

	// 10.0.0.1 was evicted, so it starts over with a full bucket.
	assert.NoError(t, g.Authorize("10.0.0.1", "token"))
}

func TestAdminGuard_EvictionsAreCounted(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	g := NewAdminGuard("token", WithMaxClients(1), WithAdminClock(func() time.Time { return now }))
	store := ratelimiter.NewMemoryStore()
	s := NewServer(ratelimiter.New(store), apikey.NewService(store), usage.NewRecorder(store), g)

	require.NoError(t, g.Authorize("10.0.0.1", "token"))
	require.NoError(t, g.Authorize("10.0.0.2", "token"))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics().AdminEvictions))

	now = now.Add(adminIdleTTL)
	require.NoError(t, g.Authorize("10.0.0.3", "token"))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.Metrics().AdminEvictions))
	assert.Equal(t, 1, g.Clients())
}

func TestAdminGuard_EmptyTokenRejectsAll(t *testing.T) {
	t.Parallel()

	g := NewAdminGuard("")
	assert.ErrorIs(t, g.Authorize("10.0.0.1", ""), ErrAdminUnauthorized)
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	validationErr := validator.New().Var("", "required")
	require.Error(t, validationErr)

	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{err: ErrAdminUnauthorized, status: http.StatusUnauthorized, msg: MsgMissingAdminToken},
		{err: ErrAdminThrottled, status: http.StatusTooManyRequests, msg: MsgTooManyAttempts},
		{err: ratelimiter.ErrUnknownKey, status: http.StatusUnauthorized, msg: MsgInvalidAPIKey},
		{err: fmt.Errorf("wrapped: %w", ratelimiter.ErrNotFound), status: http.StatusNotFound, msg: MsgNotFound},
		{err: ErrBadRequest, status: http.StatusBadRequest, msg: MsgBadRequest},
		{err: validationErr, status: http.StatusBadRequest, msg: MsgBadRequest},
		{err: binder.ErrFailedToParseJSON, status: http.StatusBadRequest, msg: MsgBadRequest},
		{err: ratelimiter.ErrInvalidCost, status: http.StatusBadRequest, msg: MsgBadRequest},
		{err: ratelimiter.ErrInvalidLimits, status: http.StatusBadRequest, msg: MsgBadRequest},
		{err: ratelimiter.ErrMalformedRecord, status: http.StatusBadRequest, msg: MsgBadRequest},
		{err: apikey.ErrInvalidParams, status: http.StatusBadRequest, msg: MsgBadRequest},
		{err: usage.ErrInvalidRange, status: http.StatusBadRequest, msg: MsgBadRequest},
		{err: usage.ErrRangeTooLarge, status: http.StatusBadRequest, msg: MsgBadRequest},
		{err: ratelimiter.ErrStoreUnavailable, status: http.StatusInternalServerError, msg: MsgServerError},
		{err: ratelimiter.ErrConflict, status: http.StatusInternalServerError, msg: MsgServerError},
		{err: errors.New("boom"), status: http.StatusInternalServerError, msg: MsgServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			info := classifyError(tt.err)
			assert.Equal(t, tt.status, info.StatusCode)
			assert.Equal(t, tt.msg, info.Message)
		})
	}
}
