package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/keygate/pkg/apikey"
	"github.com/dmitrymomot/keygate/pkg/async"
	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
)

// importConcurrency bounds the keys created at once by keys import.
const importConcurrency = 8

// ErrEmptyManifest is returned for a manifest without keys.
var ErrEmptyManifest = errors.New("manifest lists no keys")

// manifest is the YAML document read by keys import:
//
//	keys:
//	  - name: reports
//	    description: nightly export
//	    status: ACTIVE
//	    capacity: 100
//	    refillRate: 5
type manifest struct {
	Keys []manifestKey `yaml:"keys"`
}

type manifestKey struct {
	Name        string  `yaml:"name"`
	Description *string `yaml:"description"`
	Status      string  `yaml:"status"`
	Algorithm   string  `yaml:"algorithm"`
	Capacity    *int    `yaml:"capacity"`
	RefillRate  *int    `yaml:"refillRate"`
}

// parseManifest decodes a manifest into create params, applying the
// defaults of apikey.DefaultCreateParams. Unknown fields are rejected.
func parseManifest(r io.Reader) ([]apikey.CreateParams, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyManifest
		}
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if len(m.Keys) == 0 {
		return nil, ErrEmptyManifest
	}

	out := make([]apikey.CreateParams, 0, len(m.Keys))
	for i, k := range m.Keys {
		p := apikey.DefaultCreateParams(k.Name)
		p.Description = k.Description

		var err error
		if k.Status != "" {
			if p.Status, err = ratelimiter.ParseStatus(k.Status); err != nil {
				return nil, fmt.Errorf("keys[%d]: %w", i, err)
			}
		}
		if k.Algorithm != "" {
			if p.Algorithm, err = ratelimiter.ParseAlgorithm(k.Algorithm); err != nil {
				return nil, fmt.Errorf("keys[%d]: %w", i, err)
			}
		}
		if k.Capacity != nil {
			p.Capacity = *k.Capacity
		}
		if k.RefillRate != nil {
			p.RefillRate = *k.RefillRate
		}
		out = append(out, p)
	}
	return out, nil
}

type importResult struct {
	Name   string `json:"name"`
	APIKey string `json:"ApiKey,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newKeysImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create API keys from a YAML manifest",
		Long: `Create one API key per entry of a YAML manifest ("-" reads stdin).

Example manifest:

  keys:
    - name: reports
      description: nightly export
      capacity: 100
      refillRate: 5
    - name: batch
      status: DISABLED

Omitted fields take the defaults of keys create. Every created key is
printed with its name; entries that fail are reported and the command
exits non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open manifest: %w", err)
				}
				defer f.Close()
				in = f
			}

			params, err := parseManifest(in)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			svc := apikey.NewService(a.backend.Store, apikey.WithLogger(a.log))
			results := async.Map(ctx, params, importConcurrency, svc.Create)

			out := make([]importResult, 0, len(results))
			var failed int
			for _, r := range results {
				res := importResult{Name: r.Param.Name, APIKey: r.Value}
				if r.Err != nil {
					failed++
					res.Error = r.Err.Error()
				}
				out = append(out, res)
			}
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d keys failed to import", failed, len(results))
			}
			return nil
		},
	}
}
