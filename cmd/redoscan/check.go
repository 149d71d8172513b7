package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KromDaniel/redoscan/internal/batch"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		files   []string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "check [pattern...]",
		Short: "Check patterns for exponential or polynomial ambiguity",
		Long: `Check analyzes every pattern given as an argument or listed in a pattern
file (-f, repeatable). Files may be plain text with one pattern per line,
YAML, or zstd-compressed text (.zst).

Exit status is 1 when any pattern is vulnerable or could not be analyzed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns := append([]string(nil), args...)
			for _, f := range files {
				ps, err := batch.ReadPatterns(f)
				if err != nil {
					return err
				}
				patterns = append(patterns, ps...)
			}
			if len(patterns) == 0 {
				return fmt.Errorf("no patterns given")
			}
			return a.check(cmd.Context(), patterns, jsonOut)
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVarP(&files, "file", "f", nil, "pattern file (repeatable)")
	fl.BoolVar(&jsonOut, "json", false, "print the report as JSON")
	fl.Duration("timeout", 0, "per-pattern timeout (0 = configured default)")
	fl.Int("workers", 0, "concurrent analyses (0 = configured default)")
	fl.Int("cache-size", 0, "verdict cache entries (0 = configured default)")
	fl.String("metrics-file", "", "write Prometheus metrics to this textfile")
	return cmd
}

func (a *app) check(ctx context.Context, patterns []string, jsonOut bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var metrics *batch.Metrics
	if a.cfg.MetricsFile != "" {
		metrics = batch.NewMetrics()
	}
	checker, err := batch.NewChecker(batch.Options{
		Analyzer:  a.cfg.AnalyzerConfig(a.logger),
		Timeout:   a.cfg.Timeout,
		Workers:   a.cfg.Workers,
		CacheSize: a.cfg.CacheSize,
		Metrics:   metrics,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}

	report, err := checker.Check(ctx, patterns)
	if err != nil {
		return err
	}

	if jsonOut {
		err = report.WriteJSON(a.stdout)
	} else {
		err = report.WriteText(a.stdout)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if metrics != nil {
		if err := metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if report.HasFindings() {
		return errFindings
	}
	return nil
}
