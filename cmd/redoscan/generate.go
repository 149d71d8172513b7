package main

import (
	"github.com/spf13/cobra"

	"github.com/KromDaniel/redoscan/internal/batch"
	"github.com/KromDaniel/redoscan/pkg/redoscan"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		file string
		opts redoscan.GenerateOptions
	)
	cmd := &cobra.Command{
		Use:   "generate -f file --package P [--output F]",
		Short: "Generate a Go file of precompiled regexps for the safe patterns",
		RunE: func(_ *cobra.Command, _ []string) error {
			patterns, err := batch.ReadPatterns(file)
			if err != nil {
				return err
			}
			opts.Options = redoscan.Options{
				Syntax:           a.cfg.Syntax,
				Prune:            a.cfg.Prune,
				MaxProductStates: a.cfg.MaxProductStates,
			}

			var rejected []string
			if opts.OutputFile != "" {
				rejected, err = redoscan.Generate(patterns, opts)
			} else {
				rejected, err = redoscan.WriteGenerated(a.stdout, patterns, opts)
			}
			if err != nil {
				return err
			}
			for _, p := range rejected {
				a.logger.Warn("pattern rejected", "pattern", p)
			}
			a.logger.Info("generated", "patterns", len(patterns)-len(rejected), "rejected", len(rejected))
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&file, "file", "f", "", "pattern file")
	fl.StringVar(&opts.Package, "package", "", "package name of the generated file")
	fl.StringVarP(&opts.OutputFile, "output", "o", "", "output file (stdout when empty)")
	fl.StringVar(&opts.Prefix, "prefix", "", "variable name prefix")
	fl.BoolVar(&opts.AllowVulnerable, "allow-vulnerable", false, "emit vulnerable patterns with a warning")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("package")
	return cmd
}
