package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KromDaniel/redoscan/internal/analyzer"
)

func newTestLoader(environ ...string) *Loader {
	l := NewLoader()
	l.environ = func() []string { return environ }
	return l
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "redoscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := newTestLoader().Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPrecedence(t *testing.T) {
	t.Run("Should let the file override defaults", func(t *testing.T) {
		path := writeFile(t, "syntax: re2\nprune: true\ntimeout: 2s\n")
		cfg, err := newTestLoader().Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, analyzer.SyntaxRE2, cfg.Syntax)
		assert.True(t, cfg.Prune)
		assert.Equal(t, 2*time.Second, cfg.Timeout)
		assert.Equal(t, 4, cfg.Workers, "keys absent from the file keep defaults")
	})

	t.Run("Should let the environment override the file", func(t *testing.T) {
		path := writeFile(t, "workers: 2\n")
		cfg, err := newTestLoader("REDOSCAN_WORKERS=8", "REDOSCAN_MAX_PRODUCT_STATES=50", "OTHER=1").Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Workers)
		assert.Equal(t, 50, cfg.MaxProductStates)
	})

	t.Run("Should let overrides win over everything", func(t *testing.T) {
		cfg, err := newTestLoader("REDOSCAN_WORKERS=8").Load("", map[string]any{
			"workers":  16,
			"log_json": true,
		})
		require.NoError(t, err)
		assert.Equal(t, 16, cfg.Workers)
		assert.True(t, cfg.LogJSON)
	})
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{"unknown syntax", map[string]any{"syntax": "pcre"}},
		{"zero workers", map[string]any{"workers": 0}},
		{"negative limit", map[string]any{"max_product_states": -1}},
		{"unknown log level", map[string]any{"log_level": "trace"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestLoader().Load("", tt.overrides)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	_, err := newTestLoader().Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorContains(t, err, "failed to read config file")

	path := writeFile(t, "syntax: [unclosed\n")
	_, err = newTestLoader().Load(path, nil)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestAnalyzerConfig(t *testing.T) {
	cfg := Default()
	cfg.Prune = true
	logger := cfg.Logger()

	ac := cfg.AnalyzerConfig(logger)
	assert.Equal(t, analyzer.SyntaxECMAScript, ac.Syntax)
	assert.True(t, ac.Prune)
	assert.Equal(t, analyzer.DefaultMaxProductStates, ac.MaxProductStates)
	assert.Same(t, logger, ac.Logger)
}
