package ratelimiter

import (
	"errors"
	"net/http"
	"strconv"
)

// DefaultKeyHeader carries the API key checked by Middleware.
const DefaultKeyHeader = "X-API-Key"

// KeyFunc extracts the API key from the request.
type KeyFunc func(r *http.Request) string

// HeaderKey reads the API key from the named header.
func HeaderKey(name string) KeyFunc {
	return func(r *http.Request) string {
		return r.Header.Get(name)
	}
}

// ErrorResponder writes the response for rejected or failed checks.
// decision is nil when err is not nil.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, decision *Decision, err error)

type middlewareConfig struct {
	keyFunc   KeyFunc
	costFunc  func(r *http.Request) int
	responder ErrorResponder
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

// WithKeyFunc replaces the default X-API-Key header lookup.
func WithKeyFunc(fn KeyFunc) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.keyFunc = fn
		}
	}
}

// WithCostFunc charges a per-request cost instead of one token.
func WithCostFunc(fn func(r *http.Request) int) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.costFunc = fn
		}
	}
}

// WithErrorResponder customizes denied and failed responses.
func WithErrorResponder(fn ErrorResponder) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.responder = fn
		}
	}
}

// Middleware admits requests through l before they reach next. Missing or
// unknown keys get 401, denials get 429 with Retry-After when the bucket
// refills, store failures get 500.
func Middleware(l RateLimiter, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		keyFunc:   HeaderKey(DefaultKeyHeader),
		costFunc:  func(*http.Request) int { return 1 },
		responder: defaultResponder,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.keyFunc(r)
			if key == "" {
				cfg.responder(w, r, nil, ErrUnknownKey)
				return
			}

			decision, err := l.Check(r.Context(), key, cfg.costFunc(r))
			if err != nil {
				cfg.responder(w, r, nil, err)
				return
			}

			SetHeaders(w.Header(), decision)
			if !decision.Allowed {
				cfg.responder(w, r, decision, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SetHeaders writes the X-RateLimit-* headers and, for denials that will
// recover, Retry-After.
func SetHeaders(h http.Header, d *Decision) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.RemainingTokens))
	if retryAfter := int(d.RetryAfter().Seconds()); retryAfter > 0 {
		h.Set("Retry-After", strconv.Itoa(retryAfter))
	}
}

func defaultResponder(w http.ResponseWriter, r *http.Request, decision *Decision, err error) {
	switch {
	case err == nil:
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	case errors.Is(err, ErrUnknownKey):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidCost):
		http.Error(w, "Bad Request", http.StatusBadRequest)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
