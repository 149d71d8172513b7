package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KromDaniel/redoscan/internal/analyzer"
	"github.com/KromDaniel/redoscan/internal/config"
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"syntax":       "syntax",
	"prune":        "prune",
	"max-states":   "max_product_states",
	"timeout":      "timeout",
	"workers":      "workers",
	"cache-size":   "cache_size",
	"metrics-file": "metrics_file",
	"log-level":    "log_level",
	"log-json":     "log_json",
	"verbose":      "verbose",
}

// app carries state shared by the subcommands.
type app struct {
	stdout, stderr io.Writer
	configPath     string
	cfg            *config.Config
	logger         *analyzer.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "redoscan",
		Short:         "Detect regular expressions vulnerable to ReDoS",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd.Flags())
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.Bool("log-json", false, "emit logs as JSON")
	pf.BoolP("verbose", "v", false, "log every analysis stage")
	pf.String("syntax", analyzer.SyntaxECMAScript, "pattern syntax: ecmascript or re2")
	pf.Bool("prune", false, "prune states that cannot reach acceptance before the checks")
	pf.Int("max-states", analyzer.DefaultMaxProductStates, "state ceiling per product automaton (0 = unlimited)")

	root.AddCommand(
		newCheckCmd(a),
		newDotCmd(a),
		newGenerateCmd(a),
	)
	return root
}

// load resolves the configuration. Only flags set on the command line
// override the file and the environment.
func (a *app) load(fs *pflag.FlagSet) error {
	cfg, err := config.NewLoader().Load(a.configPath, overrides(fs))
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = analyzer.NewLoggerWithOptions(analyzer.LoggerOptions{
		Verbose: cfg.Verbose,
		Output:  a.stderr,
		Level:   cfg.LogLevel,
		JSON:    cfg.LogJSON,
	})
	return nil
}

func overrides(fs *pflag.FlagSet) map[string]any {
	out := make(map[string]any)
	fs.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			out[key] = f.Value.String()
		}
	})
	return out
}
