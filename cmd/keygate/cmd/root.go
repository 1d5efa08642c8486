// Package cmd provides the CLI commands for keygate.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/keygate/pkg/config"
	"github.com/dmitrymomot/keygate/pkg/environment"
	"github.com/dmitrymomot/keygate/pkg/logger"
	"github.com/dmitrymomot/keygate/pkg/requestid"
)

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	envFiles []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "keygate",
		Short: "keygate - API key admission control",
		Long: `keygate admits or throttles calls per API key using a token bucket
that refills over time.

Configuration is read from the environment and, when present, from the
dotenv files given with --env-file (default: .env).

Commands:
  serve       Run the HTTP service
  keys        Create, inspect and resize API keys
  version     Print version information`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")

	root.AddCommand(
		newServeCmd(opts),
		newKeysCmd(opts),
		newVersionCmd(),
	)
	return root
}

// app is the state shared by commands that touch the store.
type app struct {
	cfg     Config
	log     *slog.Logger
	backend *backend
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.log.Warn("failed to close store", logger.Error(err))
	}
}

// loadConfig reads Config from the environment and the env files.
func (o *rootOptions) loadConfig() (Config, error) {
	cfg, err := config.Load[Config](config.WithEnvFiles(o.envFiles...))
	if err != nil {
		return cfg, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. CLI output goes to stdout, so logs
// go to stderr.
func newLogger(cfg Config) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(environment.Parse(cfg.AppEnv), cfg.AppName),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
		logger.WithOutput(os.Stderr),
	)
}

// open loads the configuration and opens the store.
func (o *rootOptions) open(ctx context.Context) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return openApp(ctx, cfg)
}

func openApp(ctx context.Context, cfg Config) (*app, error) {
	log := newLogger(cfg)

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, backend: b}, nil
}
