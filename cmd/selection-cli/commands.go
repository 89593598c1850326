package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"actuator-workers/internal/catalog"
	"actuator-workers/internal/common/config"
	"actuator-workers/internal/common/errors"
	"actuator-workers/internal/common/logger"
	"actuator-workers/internal/models"
	"actuator-workers/internal/selection"
)

type rootOptions struct {
	catalogFile string
	configFile  string
	output      string
	verbose     bool
	timeout     time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "selection-cli",
		Short: "Run actuator selection against a YAML catalog",
		Long: `selection-cli evaluates actuator selection requests offline.

Requests use the same JSON document the calculate-selection worker receives.
Use "-" as the request file to read from stdin.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "json" && opts.output != "yaml" {
				return fmt.Errorf("unsupported output %q (json|yaml)", opts.output)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.catalogFile, "catalog", "configs/catalog.yaml", "YAML catalog file")
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file supplying selection settings")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log engine decisions to stderr")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall time limit")

	cmd.AddCommand(newSelectCmd(opts))
	cmd.AddCommand(newBatchCmd(opts))
	cmd.AddCommand(newValidateCatalogCmd(opts))
	return cmd
}

func newSelectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select <request.json|->",
		Short: "Evaluate one selection request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			engine, err := opts.engine(cmd, 0)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			result, selErr := engine.CalculateSelectionJSON(ctx, payload)
			if result != nil {
				if err := opts.write(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			}
			return describeError(selErr)
		},
	}
}

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "batch <requests.json|->",
		Short: "Evaluate a JSON array of requests, or a {\"requests\": [...]} document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			requests, err := decodeBatch(payload)
			if err != nil {
				return err
			}
			engine, err := opts.engine(cmd, concurrency)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			result := engine.BatchSelection(ctx, requests)
			if err := opts.write(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d of %d requests failed", len(result.Failed), result.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel evaluations (default from config)")
	return cmd
}

func newValidateCatalogCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-catalog",
		Short: "Report catalog entries that cannot be loaded or priced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := catalog.LoadFile(opts.catalogFile)
			if err != nil {
				return err
			}

			report := catalogReport{Actuators: fs.Len(), Skipped: fs.Skipped()}
			for _, rec := range fs.Records() {
				if rec.Pricing != models.PricingTiered {
					continue
				}
				if _, err := selection.ResolvePrice(&rec, 1); err != nil {
					report.Issues = append(report.Issues, fmt.Sprintf("%s: %s", rec.ID, errors.Normalize(err).Details))
				}
				for _, issue := range selection.ValidatePriceTiers(rec.PriceTiers) {
					report.Issues = append(report.Issues, fmt.Sprintf("%s: %s", rec.ID, issue))
				}
			}

			if err := opts.write(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if len(report.Skipped) > 0 || len(report.Issues) > 0 {
				return fmt.Errorf("catalog has %d skipped entries and %d pricing issues", len(report.Skipped), len(report.Issues))
			}
			return nil
		},
	}
}

type catalogReport struct {
	Actuators int      `json:"actuators"`
	Skipped   []string `json:"skipped,omitempty"`
	Issues    []string `json:"issues,omitempty"`
}

// engine builds a selection engine over the catalog file, taking tuning
// values from the config file when one is given. concurrency > 0 overrides it.
func (o *rootOptions) engine(cmd *cobra.Command, concurrency int) (*selection.Engine, error) {
	var engineOpts selection.Options
	if o.configFile != "" {
		cfg, err := config.LoadFromFile(o.configFile)
		if err != nil {
			return nil, err
		}
		engineOpts = selection.Options{
			DefaultSafetyFactor:  cfg.Selection.DefaultSafetyFactor,
			TemperatureSurcharge: cfg.Selection.TemperatureSurcharge,
			BatchConcurrency:     cfg.Selection.BatchConcurrency,
		}
		if !cmd.Flags().Changed("catalog") && cfg.Selection.CatalogFile != "" {
			o.catalogFile = cfg.Selection.CatalogFile
		}
	}
	if concurrency > 0 {
		engineOpts.BatchConcurrency = concurrency
	}

	log := logger.NewNoOpLogger()
	if o.verbose {
		log = logger.NewZapAdapter(logger.NewWithOutput("debug", "console", "stderr"))
	}

	fs, err := catalog.LoadFile(o.catalogFile)
	if err != nil {
		return nil, err
	}
	for _, s := range fs.Skipped() {
		log.Warn("Catalog entry skipped", map[string]interface{}{"entry": s})
	}
	return selection.NewEngine(fs, fs, engineOpts, log), nil
}

func (o *rootOptions) write(w io.Writer, v interface{}) error {
	if o.output == "yaml" {
		// Round trip through JSON so field names follow the json tags.
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var doc interface{}
		if err := json.Unmarshal(b, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

// decodeBatch accepts a bare array or the batch-selection job document.
func decodeBatch(payload []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	var requests []json.RawMessage
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &requests); err != nil {
			return nil, fmt.Errorf("decode batch: %w", err)
		}
		return requests, nil
	}

	var doc struct {
		Requests []json.RawMessage `json:"requests"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	if doc.Requests == nil {
		return nil, fmt.Errorf("decode batch: requests is required")
	}
	return doc.Requests, nil
}

func describeError(err error) error {
	if err == nil {
		return nil
	}
	stdErr := errors.Normalize(err)
	msg := fmt.Sprintf("%s: %s", stdErr.Code, stdErr.Message)
	if stdErr.Details != "" {
		msg += " (" + stdErr.Details + ")"
	}
	for _, s := range stdErr.Suggestions() {
		msg += "\n  - " + s
	}
	return fmt.Errorf("%s", msg)
}
