package cmd

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/keygate/pkg/api"
	"github.com/dmitrymomot/keygate/pkg/apikey"
	"github.com/dmitrymomot/keygate/pkg/clientip"
	"github.com/dmitrymomot/keygate/pkg/httpserver"
	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
	"github.com/dmitrymomot/keygate/pkg/usage"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Run the HTTP service until SIGINT or SIGTERM.

ADMIN_TOKEN must be set; it guards every /v1/api-keys route.
STORE_DRIVER selects redis (default) or memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.AdminToken == "" {
				return ErrMissingAdminToken
			}

			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			handler := newServer(a).Handler()

			srv := httpserver.New(a.cfg.HTTP, httpserver.WithLogger(a.log))
			a.log.InfoContext(ctx, "starting keygate",
				slog.String("addr", a.cfg.HTTP.Addr),
				slog.String("store", a.cfg.StoreDriver),
			)
			return srv.Run(ctx, handler)
		},
	}
}

// newServer wires the limiter, key service and usage recorder into the
// HTTP adapter.
func newServer(a *app) *api.Server {
	store := a.backend.Store

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	limiter := ratelimiter.New(store)
	keys := apikey.NewService(store, apikey.WithLogger(a.log))
	recorder := usage.NewRecorder(store)
	guard := api.NewAdminGuard(a.cfg.AdminToken,
		api.WithFailureRate(a.cfg.AdminRateLimit, a.cfg.AdminRateBurst),
		api.WithMaxClients(a.cfg.AdminMaxClients),
	)

	return api.NewServer(limiter, keys, recorder, guard,
		api.WithLogger(a.log),
		api.WithAllowedOrigins(a.cfg.CORSAllowedOrigins...),
		api.WithClientIPResolver(clientip.New(a.cfg.TrustedIPHeaders...)),
		api.WithRegistry(reg),
		api.WithReadinessChecks(a.backend.Ready...),
	)
}
