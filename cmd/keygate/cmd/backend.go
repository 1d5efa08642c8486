package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/keygate/pkg/logger"
	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
	"github.com/dmitrymomot/keygate/pkg/redis"
)

// backend is an opened store with its readiness probes.
type backend struct {
	Store ratelimiter.Store
	Ready []func(context.Context) error
	Close func() error
}

// openBackend opens the store selected by cfg. Replaced in tests.
var openBackend = func(ctx context.Context, cfg Config, log *slog.Logger) (*backend, error) {
	if cfg.StoreDriver == DriverMemory {
		log.WarnContext(ctx, "using the in-memory store, keys are lost on exit", slog.Bool("atomic", cfg.StoreAtomic))
		var store ratelimiter.Store = ratelimiter.NewMemoryStore()
		if cfg.StoreAtomic {
			store = ratelimiter.NewAtomicMemoryStore()
		}
		return &backend{Store: store, Close: func() error { return nil }}, nil
	}

	client, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.InfoContext(ctx, "connected to redis",
		logger.Component("backend"),
		slog.String("addr", client.Options().Addr),
		slog.Bool("atomic", cfg.StoreAtomic),
		slog.String("key_prefix", cfg.StoreKeyPrefix),
	)

	var store ratelimiter.Store = redis.NewStore(client, redis.WithKeyPrefix(cfg.StoreKeyPrefix))
	if cfg.StoreAtomic {
		store = redis.NewAtomicStore(client, redis.WithKeyPrefix(cfg.StoreKeyPrefix))
	}
	return &backend{
		Store: store,
		Ready: []func(context.Context) error{redis.Healthcheck(client)},
		Close: client.Close,
	}, nil
}
