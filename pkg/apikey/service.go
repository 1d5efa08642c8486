package apikey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/keygate/pkg/async"
	"github.com/dmitrymomot/keygate/pkg/logger"
	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
)

// Defaults applied by DefaultCreateParams.
const (
	DefaultCapacity   = 100
	DefaultRefillRate = 5
)

// DefaultListConcurrency bounds the config reads ListAll runs at once.
const DefaultListConcurrency = 32

// CreateParams describes a new key.
type CreateParams struct {
	Name        string                `validate:"required,max=256"`
	Description *string               `validate:"omitempty,max=1024"`
	Status      ratelimiter.Status    `validate:"known"`
	Algorithm   ratelimiter.Algorithm `validate:"known"`
	Capacity    int                   `validate:"gt=0"`
	RefillRate  int                   `validate:"gte=0"`
}

// DefaultCreateParams returns params for an ACTIVE token bucket of 100
// tokens refilling 5 per second.
func DefaultCreateParams(name string) CreateParams {
	return CreateParams{
		Name:       name,
		Status:     ratelimiter.StatusActive,
		Algorithm:  ratelimiter.AlgorithmTokenBucket,
		Capacity:   DefaultCapacity,
		RefillRate: DefaultRefillRate,
	}
}

// Service manages the lifecycle of API keys.
type Service struct {
	store       ratelimiter.KeyStore
	log         *slog.Logger
	now         func() time.Time
	generate    func() (string, error)
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source of CreatedAt stamps and initial
// LastRefill values.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGenerator replaces Generate.
func WithGenerator(fn func() (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.generate = fn
		}
	}
}

// WithListConcurrency bounds how many config reads ListAll runs at once.
// Zero or less means unbounded.
func WithListConcurrency(n int) Option {
	return func(s *Service) {
		s.concurrency = n
	}
}

// NewService builds a Service on store.
func NewService(store ratelimiter.KeyStore, opts ...Option) *Service {
	s := &Service{
		store:       store,
		log:         logger.Nop(),
		now:         time.Now,
		generate:    Generate,
		concurrency: DefaultListConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("apikey"))
	return s
}

// Create issues a new key with a full bucket and returns it. This is the only
// call that returns the key itself. Generated keys are not checked against
// existing ones; a collision overwrites the older key's records.
func (s *Service) Create(ctx context.Context, p CreateParams) (string, error) {
	if err := validateParams(p); err != nil {
		return "", err
	}

	key, err := s.generate()
	if err != nil {
		return "", err
	}

	now := s.now().Unix()
	cfg := ratelimiter.BucketConfig{
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		Algorithm:   p.Algorithm,
		RefillRate:  p.RefillRate,
		Capacity:    p.Capacity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	state := ratelimiter.BucketState{
		Capacity:   p.Capacity,
		RefillRate: p.RefillRate,
		LastRefill: now,
		Tokens:     p.Capacity,
	}

	if err := s.store.Save(ctx, key, state, &cfg); err != nil {
		return "", fmt.Errorf("save key records: %w", err)
	}
	if err := s.store.RegisterKey(ctx, key); err != nil {
		return "", fmt.Errorf("register key: %w", err)
	}

	s.log.InfoContext(ctx, "api key created", logger.APIKey(key), slog.String("name", p.Name))
	return key, nil
}

// ListAll returns the projection of every indexed key. Keys whose config is
// missing or does not decode are left out. A store failure on any key fails
// the whole listing.
func (s *Service) ListAll(ctx context.Context) (map[string]ratelimiter.ConfigView, error) {
	keys, err := s.store.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	results := async.Map(ctx, keys, s.concurrency, s.details)

	out := make(map[string]ratelimiter.ConfigView, len(results))
	for _, r := range results {
		switch {
		case r.Err == nil:
			out[r.Param] = r.Value
		case errors.Is(r.Err, ratelimiter.ErrNotFound), errors.Is(r.Err, ratelimiter.ErrMalformedRecord):
			s.log.DebugContext(ctx, "skipping key without usable config", logger.APIKey(r.Param), logger.Error(r.Err))
		default:
			return nil, r.Err
		}
	}
	return out, nil
}

// GetDetails returns the projection of one key. ratelimiter.ErrNotFound when
// the key has no config, ratelimiter.ErrMalformedRecord when it does not decode.
func (s *Service) GetDetails(ctx context.Context, key string) (*ratelimiter.ConfigView, error) {
	view, err := s.details(ctx, key)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *Service) details(ctx context.Context, key string) (ratelimiter.ConfigView, error) {
	fields, err := s.store.GetConfigFields(ctx, key)
	if err != nil {
		return ratelimiter.ConfigView{}, err
	}
	return ratelimiter.DecodeConfigView(fields)
}

// UpdateLimits resizes a key's bucket. The limits are validated before the
// store is touched; a key without bucket state gives ratelimiter.ErrNotFound.
func (s *Service) UpdateLimits(ctx context.Context, key string, upd ratelimiter.LimitUpdate) error {
	if err := upd.Validate(); err != nil {
		return err
	}

	existing, err := s.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := s.store.UpdateLimits(ctx, key, upd, *existing); err != nil {
		return fmt.Errorf("update limits: %w", err)
	}

	s.log.InfoContext(ctx, "api key limits updated",
		logger.APIKey(key),
		slog.Int("capacity", upd.Capacity),
		slog.Int("refill_rate", upd.RefillRate),
	)
	return nil
}

// Config returns the full config record of a key.
func (s *Service) Config(ctx context.Context, key string) (*ratelimiter.BucketConfig, error) {
	return s.store.GetConfig(ctx, key)
}
