// Package api is the HTTP adapter of keygate.
//
// NewServer wires a ratelimiter.RateLimiter, a key manager and a usage
// recorder behind a chi router:
//
//	POST /v1/check                    admit or throttle a call
//	POST /v1/api-keys                 issue a key (admin)
//	GET  /v1/api-keys                 list every key (admin)
//	GET  /v1/api-keys/{key}           key details (admin)
//	PUT  /v1/api-keys/{key}/limits    resize a bucket (admin)
//	GET  /v1/api-keys/{key}/usage     hourly usage counters (admin)
//	GET  /healthz, /readyz, /metrics
//
// Admin routes require the X-Admin-Token header. Failed admin attempts are
// throttled per client address.
//
// Every error is rendered as {"message": "..."}. Server errors are logged in
// full and answered with a generic message.
package api
