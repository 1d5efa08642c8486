package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/keygate/pkg/binder"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		APIKey string `json:"apiKey"`
		Cost   int    `json:"cost"`
	}

	newReq := func(body, contentType string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if contentType != "" {
			r.Header.Set("Content-Type", contentType)
		}
		return r
	}

	t.Run("decodes body", func(t *testing.T) {
		t.Parallel()
		var p payload
		err := binder.JSON()(newReq(`{"apiKey":"k","cost":3,"extra":true}`, "application/json; charset=utf-8"), &p)
		require.NoError(t, err)
		assert.Equal(t, payload{APIKey: "k", Cost: 3}, p)
	})

	t.Run("missing content type is accepted", func(t *testing.T) {
		t.Parallel()
		p := payload{Cost: 1}
		require.NoError(t, binder.JSON()(newReq(`{"apiKey":"k"}`, ""), &p))
		assert.Equal(t, 1, p.Cost)
	})

	t.Run("wrong media type", func(t *testing.T) {
		t.Parallel()
		var p payload
		err := binder.JSON()(newReq(`{}`, "text/plain"), &p)
		assert.ErrorIs(t, err, binder.ErrUnsupportedMediaType)
	})

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "invalid json", body: `{"apiKey":`},
		{name: "wrong type", body: `{"cost":"three"}`},
		{name: "trailing data", body: `{"cost":1}{"cost":2}`},
		{name: "too large", body: `{"apiKey":"` + strings.Repeat("a", binder.DefaultMaxJSONSize) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var p payload
			err := binder.JSON()(newReq(tt.body, "application/json"), &p)
			assert.ErrorIs(t, err, binder.ErrFailedToParseJSON)
		})
	}
}

func TestQuery(t *testing.T) {
	t.Parallel()

	type params struct {
		From    time.Time `query:"from"`
		To      time.Time `query:"to"`
		Limit   int       `query:"limit"`
		Verbose bool      `query:"verbose"`
		Tags    []string  `query:"tag"`
		Cursor  *string   `query:"cursor"`
		Skip    string    `query:"-"`
	}

	t.Run("binds supported types", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/?from=2026-03-01T10:00:00Z&to=1772370000&limit=5&verbose=yes&tag=a,b&tag=c&cursor=x&Skip=no", nil)

		var p params
		require.NoError(t, binder.Query()(r, &p))
		assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), p.From)
		assert.Equal(t, time.Unix(1772370000, 0).UTC(), p.To)
		assert.Equal(t, 5, p.Limit)
		assert.True(t, p.Verbose)
		assert.Equal(t, []string{"a", "b", "c"}, p.Tags)
		require.NotNil(t, p.Cursor)
		assert.Equal(t, "x", *p.Cursor)
		assert.Empty(t, p.Skip)
	})

	t.Run("absent keeps defaults", func(t *testing.T) {
		t.Parallel()
		p := params{Limit: 10}
		require.NoError(t, binder.Query()(httptest.NewRequest(http.MethodGet, "/", nil), &p))
		assert.Equal(t, 10, p.Limit)
		assert.True(t, p.From.IsZero())
		assert.Nil(t, p.Cursor)
	})

	for _, q := range []string{"from=yesterday", "limit=ten", "verbose=maybe"} {
		t.Run("invalid "+q, func(t *testing.T) {
			t.Parallel()
			var p params
			err := binder.Query()(httptest.NewRequest(http.MethodGet, "/?"+q, nil), &p)
			assert.ErrorIs(t, err, binder.ErrFailedToParseQuery)
		})
	}

	t.Run("non-pointer target", func(t *testing.T) {
		t.Parallel()
		err := binder.Query()(httptest.NewRequest(http.MethodGet, "/", nil), params{})
		assert.ErrorIs(t, err, binder.ErrFailedToParseQuery)
	})
}

func TestPath(t *testing.T) {
	t.Parallel()

	type params struct {
		Key  string `path:"key"`
		Page int    `path:"page"`
		Name string
	}

	pathParams := map[string]string{"key": "abc", "page": "2", "name": "ignored"}
	extractor := func(r *http.Request, name string) string { return pathParams[name] }

	var p params
	require.NoError(t, binder.Path(extractor)(httptest.NewRequest(http.MethodGet, "/", nil), &p))
	assert.Equal(t, params{Key: "abc", Page: 2}, p)

	err := binder.Path(func(*http.Request, string) string { return "x" })(httptest.NewRequest(http.MethodGet, "/", nil), &params{})
	assert.ErrorIs(t, err, binder.ErrFailedToParsePath)

	err = binder.Path(nil)(httptest.NewRequest(http.MethodGet, "/", nil), &params{})
	assert.ErrorIs(t, err, binder.ErrFailedToParsePath)
}
