// Package config loads redoscan settings from defaults, an optional YAML
// file, REDOSCAN_ environment variables and command-line overrides, in that
// order of precedence.
package config

import (
	"time"

	"github.com/KromDaniel/redoscan/internal/analyzer"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "REDOSCAN_"

// Config holds every setting the CLI and the batch checker consume.
type Config struct {
	Syntax           string        `koanf:"syntax"             validate:"oneof=ecmascript re2"`
	Prune            bool          `koanf:"prune"`
	MaxProductStates int           `koanf:"max_product_states" validate:"min=0"`
	Timeout          time.Duration `koanf:"timeout"            validate:"min=0"`
	Workers          int           `koanf:"workers"            validate:"min=1,max=1024"`
	CacheSize        int           `koanf:"cache_size"         validate:"min=0"`
	LogLevel         string        `koanf:"log_level"          validate:"oneof=debug info warn error"`
	LogJSON          bool          `koanf:"log_json"`
	Verbose          bool          `koanf:"verbose"`
	MetricsFile      string        `koanf:"metrics_file"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Syntax:           analyzer.SyntaxECMAScript,
		MaxProductStates: analyzer.DefaultMaxProductStates,
		Timeout:          10 * time.Second,
		Workers:          4,
		CacheSize:        1024,
		LogLevel:         "info",
	}
}

// AnalyzerConfig projects the settings relevant to a single analysis.
func (c *Config) AnalyzerConfig(logger *analyzer.Logger) analyzer.Config {
	return analyzer.Config{
		Syntax:           c.Syntax,
		Prune:            c.Prune,
		MaxProductStates: c.MaxProductStates,
		Verbose:          c.Verbose,
		Logger:           logger,
	}
}

// Logger builds the logger described by the settings.
func (c *Config) Logger() *analyzer.Logger {
	return analyzer.NewLoggerWithOptions(analyzer.LoggerOptions{
		Verbose: c.Verbose,
		Level:   c.LogLevel,
		JSON:    c.LogJSON,
	})
}
