package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/keygate/pkg/apikey"
	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
	"github.com/dmitrymomot/keygate/pkg/usage"
)

func newKeysCmd(opts *rootOptions) *cobra.Command {
	keys := &cobra.Command{
		Use:   "keys",
		Short: "Create, inspect and resize API keys",
		Long: `Administer API keys directly against the configured store.

Results are printed as JSON on stdout.`,
	}
	keys.AddCommand(
		newKeysCreateCmd(opts),
		newKeysListCmd(opts),
		newKeysShowCmd(opts),
		newKeysLimitsCmd(opts),
		newKeysUsageCmd(opts),
		newKeysImportCmd(opts),
	)
	return keys
}

func newKeysCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		p           = apikey.DefaultCreateParams("")
		description string
		status      string
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Issue a new API key",
		Long: `Issue a new API key with a full bucket and print it.

The key is shown only once.

Example:
  keygate keys create reports --capacity 10 --refill-rate 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Name = args[0]
			if cmd.Flags().Changed("description") {
				p.Description = &description
			}
			var err error
			if p.Status, err = ratelimiter.ParseStatus(status); err != nil {
				return err
			}

			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			key, err := apikey.NewService(a.backend.Store, apikey.WithLogger(a.log)).Create(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"ApiKey": key})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "free-form description")
	cmd.Flags().StringVar(&status, "status", ratelimiter.StatusActive.String(), "ACTIVE or DISABLED")
	cmd.Flags().IntVar(&p.Capacity, "capacity", apikey.DefaultCapacity, "bucket capacity in tokens")
	cmd.Flags().IntVar(&p.RefillRate, "refill-rate", apikey.DefaultRefillRate, "tokens added per second")
	return cmd
}

func newKeysListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			all, err := apikey.NewService(a.backend.Store, apikey.WithLogger(a.log)).ListAll(cmd.Context())
			if err != nil {
				return err
			}
			out := make(map[string]keyView, len(all))
			for key, v := range all {
				out[key] = newKeyView(v)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newKeysShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show KEY",
		Short: "Show one API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := apikey.NewService(a.backend.Store, apikey.WithLogger(a.log)).GetDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newKeyView(*v))
		},
	}
}

func newKeysLimitsCmd(opts *rootOptions) *cobra.Command {
	upd := ratelimiter.LimitUpdate{Algorithm: ratelimiter.AlgorithmTokenBucket}

	cmd := &cobra.Command{
		Use:   "limits KEY",
		Short: "Resize the bucket of an API key",
		Long: `Resize the bucket of an API key. Available tokens are clamped to the
new capacity.

Example:
  keygate keys limits Ab3xYz... --capacity 500 --refill-rate 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return apikey.NewService(a.backend.Store, apikey.WithLogger(a.log)).UpdateLimits(cmd.Context(), args[0], upd)
		},
	}
	cmd.Flags().IntVar(&upd.Capacity, "capacity", 0, "new bucket capacity in tokens")
	cmd.Flags().IntVar(&upd.RefillRate, "refill-rate", 0, "new tokens added per second")
	_ = cmd.MarkFlagRequired("capacity")
	_ = cmd.MarkFlagRequired("refill-rate")
	return cmd
}

func newKeysUsageCmd(opts *rootOptions) *cobra.Command {
	var from, to time.Duration

	cmd := &cobra.Command{
		Use:   "usage KEY",
		Short: "Print hourly usage counters of an API key",
		Long: `Print the hourly allowed/throttled counters of an API key.

--from and --to are offsets into the past; the default window is the last
24 hours.

Example:
  keygate keys usage Ab3xYz... --from 6h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.backend.Store.GetConfig(ctx, args[0]); err != nil {
				return err
			}

			rec := usage.NewRecorder(a.backend.Store)
			now := time.Now().UTC()
			start, end := now.Add(-from), now.Add(-to)
			series, err := rec.Range(ctx, args[0], start, end)
			if err != nil {
				return err
			}

			hours := make([]hourView, 0, len(series))
			for _, h := range series {
				hours = append(hours, hourView{Hour: h.Hour.Format(time.RFC3339), Allowed: h.Allowed, Throttled: h.Throttled})
			}
			return printJSON(cmd.OutOrStdout(), usageView{Hours: hours, Totals: usage.Summarize(series)})
		},
	}
	cmd.Flags().DurationVar(&from, "from", usage.DefaultWindow, "start of the window, as an offset before now")
	cmd.Flags().DurationVar(&to, "to", 0, "end of the window, as an offset before now")
	return cmd
}

type keyView struct {
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Status      string `json:"Status"`
	Algorithm   string `json:"Algorithm"`
	Capacity    int    `json:"Capacity"`
	RefillRate  int    `json:"RefillRate"`
	CreatedAt   string `json:"CreatedAt"`
}

func newKeyView(v ratelimiter.ConfigView) keyView {
	return keyView{
		Name:        v.Name,
		Description: v.Description,
		Status:      v.Status.String(),
		Algorithm:   v.Algorithm.String(),
		Capacity:    v.Capacity,
		RefillRate:  v.RefillRate,
		CreatedAt:   v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type hourView struct {
	Hour      string `json:"hour"`
	Allowed   int64  `json:"allowed"`
	Throttled int64  `json:"throttled"`
}

type usageView struct {
	Hours  []hourView   `json:"hours"`
	Totals usage.Totals `json:"totals"`
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
