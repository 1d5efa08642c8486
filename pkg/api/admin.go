package api

import (
	"crypto/subtle"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrymomot/keygate/pkg/cache"
)

// AdminTokenHeader carries the admin secret.
const AdminTokenHeader = "X-Admin-Token"

// Failure throttle defaults.
const (
	DefaultAdminRateLimit  = 1
	DefaultAdminRateBurst  = 10
	DefaultAdminMaxClients = 10_000

	adminIdleTTL       = 10 * time.Minute
	adminSweepInterval = time.Minute
)

// AdminGuard authenticates admin requests and throttles clients that keep
// presenting a wrong token. Each client address gets a token bucket that
// only failed attempts drain; once it is empty every admin request from that
// address is refused with 429 until it refills. At most maxClients addresses
// are tracked; the least recently seen is forgotten first.
type AdminGuard struct {
	token      []byte
	limit      rate.Limit
	burst      int
	maxClients int
	now        func() time.Time

	mu        sync.Mutex
	clients   *cache.LRUCache[string, *adminClient]
	lastSweep time.Time
}

type adminClient struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// AdminOption configures an AdminGuard.
type AdminOption func(*AdminGuard)

// WithFailureRate sets the refill rate (per second) and burst of the
// per-address failure bucket.
func WithFailureRate(limit float64, burst int) AdminOption {
	return func(g *AdminGuard) {
		if limit > 0 {
			g.limit = rate.Limit(limit)
		}
		if burst > 0 {
			g.burst = burst
		}
	}
}

// WithMaxClients bounds the number of tracked client addresses.
func WithMaxClients(n int) AdminOption {
	return func(g *AdminGuard) {
		if n > 0 {
			g.maxClients = n
		}
	}
}

// WithAdminClock overrides the time source of the failure buckets.
func WithAdminClock(now func() time.Time) AdminOption {
	return func(g *AdminGuard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewAdminGuard accepts requests carrying token. An empty token rejects
// every request.
func NewAdminGuard(token string, opts ...AdminOption) *AdminGuard {
	g := &AdminGuard{
		token:      []byte(token),
		limit:      DefaultAdminRateLimit,
		burst:      DefaultAdminRateBurst,
		maxClients: DefaultAdminMaxClients,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.clients = cache.NewLRUCache[string, *adminClient](g.maxClients)
	return g
}

// Authorize returns nil when the presented token matches, ErrAdminThrottled
// when ip has run out of failed attempts and ErrAdminUnauthorized otherwise.
func (g *AdminGuard) Authorize(ip, presented string) error {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweepLocked(now)

	c := g.clientLocked(ip, now)
	if c.limiter.TokensAt(now) < 1 {
		return ErrAdminThrottled
	}

	if len(g.token) > 0 && subtle.ConstantTimeCompare([]byte(presented), g.token) == 1 {
		return nil
	}

	c.limiter.AllowN(now, 1)
	return ErrAdminUnauthorized
}

// Clients returns the number of tracked client addresses.
func (g *AdminGuard) Clients() int {
	return g.clients.Len()
}

// onEvict registers fn for addresses forgotten by the capacity bound or the
// idle sweep.
func (g *AdminGuard) onEvict(fn func(ip string)) {
	g.clients.SetEvictCallback(func(ip string, _ *adminClient) { fn(ip) })
}

func (g *AdminGuard) clientLocked(ip string, now time.Time) *adminClient {
	c := g.clients.GetOrPut(ip, func() *adminClient {
		return &adminClient{limiter: rate.NewLimiter(g.limit, g.burst)}
	})
	c.lastUsed = now
	return c
}

// sweepLocked forgets addresses idle for adminIdleTTL, at most once per
// adminSweepInterval.
func (g *AdminGuard) sweepLocked(now time.Time) {
	if now.Sub(g.lastSweep) < adminSweepInterval {
		return
	}
	g.lastSweep = now
	g.clients.EvictOldest(func(_ string, c *adminClient) bool {
		return now.Sub(c.lastUsed) >= adminIdleTTL
	})
}
