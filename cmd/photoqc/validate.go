package main

import (
	"context"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	photoquality "github.com/Skryldev/photo-quality"
	"github.com/Skryldev/photo-quality/core"
	"github.com/Skryldev/photo-quality/hooks"
)

const defaultTimeout = 5 * time.Minute

// fileResult is one line of `validate --json` output.
type fileResult struct {
	File   string                 `json:"file"`
	Report *core.ValidationReport `json:"report,omitempty"`
	Stored string                 `json:"stored,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

func newValidateCmd() *cobra.Command {
	var (
		store       bool
		metricsFile string
		summary     bool
	)
	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate one or more photos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
			defer cancel()
			return runValidate(ctx, args, store, metricsFile, summary)
		},
	}
	cmd.Flags().BoolVar(&store, "store", false, "Archive photos and reports in the configured storage")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print summary statistics after all files")
	return cmd
}

func runValidate(ctx context.Context, files []string, store bool, metricsFile string, summary bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	v, err := photoquality.New(cfg)
	if err != nil {
		return err
	}
	defer v.Close()

	zl := hooks.NewZapLogger(logger.Sugar())
	v.SetLogger(zl)
	v.AddHook(hooks.NewLoggingHook(zl))
	prom := hooks.NewPrometheusMetrics()
	v.SetMetrics(prom)
	v.AddHook(hooks.NewMetricsHook(prom))

	results := make([]fileResult, 0, len(files))
	for _, file := range files {
		res := validateOne(ctx, v, file, store)
		results = append(results, res)
		if !outputJSON {
			printResult(os.Stdout, res)
		}
	}

	if outputJSON {
		out := map[string]interface{}{"results": results}
		if summary {
			out["summary"] = v.Summary()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else if summary {
		printSummary(os.Stdout, v.Summary())
	}

	if metricsFile != "" {
		if err := prom.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return outcome(results)
}

// outcome turns per-file results into the command's error.  Files that could
// not be validated or stored take precedence over rejections.
func outcome(results []fileResult) error {
	var failed, rejected int
	for _, r := range results {
		switch {
		case r.Error != "":
			failed++
		case !r.Report.Passed():
			rejected++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) could not be validated", failed, len(results))
	}
	if rejected > 0 {
		return errRejected
	}
	return nil
}

func validateOne(ctx context.Context, v *photoquality.Validator, file string, store bool) fileResult {
	res := fileResult{File: file}
	raw, err := os.ReadFile(file)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if store {
		report, rec, err := v.ValidateAndStore(ctx, raw, file)
		res.Report = report
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Stored = rec.Image.Bucket + "/" + rec.Image.Path
		return res
	}
	res.Report, err = v.Validate(ctx, raw, file)
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
