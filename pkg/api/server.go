package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/keygate/pkg/apikey"
	"github.com/dmitrymomot/keygate/pkg/clientip"
	"github.com/dmitrymomot/keygate/pkg/logger"
	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
)

// DefaultAllowedOrigin is the CORS origin allowed when none is configured.
const DefaultAllowedOrigin = "http://localhost:5174"

// KeyManager is the key lifecycle the admin routes drive.
type KeyManager interface {
	Create(ctx context.Context, p apikey.CreateParams) (string, error)
	ListAll(ctx context.Context) (map[string]ratelimiter.ConfigView, error)
	GetDetails(ctx context.Context, key string) (*ratelimiter.ConfigView, error)
	UpdateLimits(ctx context.Context, key string, upd ratelimiter.LimitUpdate) error
	Config(ctx context.Context, key string) (*ratelimiter.BucketConfig, error)
}

// UsageRecorder writes and reads the hourly check counters.
type UsageRecorder interface {
	Record(ctx context.Context, key string, allowed bool) error
	Range(ctx context.Context, key string, from, to time.Time) ([]ratelimiter.HourlyUsage, error)
	DefaultRange(from, to time.Time) (time.Time, time.Time)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	limiter  ratelimiter.RateLimiter
	keys     KeyManager
	usage    UsageRecorder
	admin    *AdminGuard
	log      *slog.Logger
	validate *validator.Validate
	resolver *clientip.Resolver
	origins  []string
	registry *prometheus.Registry
	metrics  *Metrics
	checks   []func(context.Context) error
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithAllowedOrigins sets the CORS origins. Defaults to DefaultAllowedOrigin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithClientIPResolver sets how client addresses are resolved for the admin
// throttle. The default trusts no proxy headers.
func WithClientIPResolver(res *clientip.Resolver) Option {
	return func(s *Server) {
		if res != nil {
			s.resolver = res
		}
	}
}

// WithRegistry registers the adapter metrics on reg and serves it on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithReadinessChecks adds checks run by /readyz.
func WithReadinessChecks(checks ...func(context.Context) error) Option {
	return func(s *Server) {
		s.checks = append(s.checks, checks...)
	}
}

// NewServer builds a Server. admin guards every /v1/api-keys route.
func NewServer(limiter ratelimiter.RateLimiter, keys KeyManager, recorder UsageRecorder, admin *AdminGuard, opts ...Option) *Server {
	s := &Server{
		limiter:  limiter,
		keys:     keys,
		usage:    recorder,
		admin:    admin,
		log:      logger.Nop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		resolver: clientip.New(),
		origins:  []string{DefaultAllowedOrigin},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = NewMetrics(s.registry)
	if s.admin != nil {
		s.admin.onEvict(func(string) { s.metrics.AdminEvictions.Inc() })
	}
	s.log = s.log.With(logger.Component("api"))
	return s
}

// Metrics returns the adapter collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}
