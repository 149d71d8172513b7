package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KromDaniel/redoscan/internal/analyzer"
)

func newChecker(t *testing.T, opts Options) *Checker {
	t.Helper()
	c, err := NewChecker(opts)
	require.NoError(t, err)
	return c
}

func TestCheck(t *testing.T) {
	metrics := NewMetrics()
	c := newChecker(t, Options{Workers: 4, CacheSize: 16, Metrics: metrics})

	patterns := []string{`a*`, `(a*)*`, `a*a*`, `(?=a)`, `[a-z][0-9a-z]*`, `(`}
	report, err := c.Check(context.Background(), patterns)
	require.NoError(t, err)

	require.Len(t, report.Results, len(patterns))
	for i, o := range report.Results {
		assert.Equal(t, patterns[i], o.Pattern, "results keep input order")
	}
	assert.Equal(t, "safe", report.Results[0].Verdict)
	assert.Equal(t, "EDA", report.Results[1].Ambiguity)
	assert.Equal(t, "IDA", report.Results[2].Ambiguity)
	assert.Equal(t, analyzer.ClassUnsupported, report.Results[3].ErrorClass)
	assert.Equal(t, analyzer.ClassParse, report.Results[5].ErrorClass)

	assert.Equal(t, Summary{Total: 6, Safe: 2, Vulnerable: 2, Failed: 2}, report.Summary)
	assert.True(t, report.HasFindings())
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, analyzer.SyntaxECMAScript, report.Syntax)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.results.WithLabelValues("vulnerable", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.results.WithLabelValues("error", analyzer.ClassParse)))
}

func TestCheckCache(t *testing.T) {
	metrics := NewMetrics()
	c := newChecker(t, Options{CacheSize: 4, Metrics: metrics})

	first := c.CheckOne(context.Background(), `(a|a)*`)
	assert.False(t, first.Cached)
	second := c.CheckOne(context.Background(), `(a|a)*`)
	assert.True(t, second.Cached)
	assert.Same(t, first.AnalysisResult, second.AnalysisResult)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHit))

	uncached := newChecker(t, Options{})
	assert.False(t, uncached.CheckOne(context.Background(), `a`).Cached)
	assert.False(t, uncached.CheckOne(context.Background(), `a`).Cached)
}

func TestCacheKeyDependsOnOptions(t *testing.T) {
	plain := newChecker(t, Options{})
	pruned := newChecker(t, Options{Analyzer: analyzer.Config{Prune: true}})
	re2 := newChecker(t, Options{Analyzer: analyzer.Config{Syntax: analyzer.SyntaxRE2}})

	assert.Equal(t, plain.cacheKey(`a*`), plain.cacheKey(`a*`))
	assert.NotEqual(t, plain.cacheKey(`a*`), plain.cacheKey(`a+`))
	assert.NotEqual(t, plain.cacheKey(`a*`), pruned.cacheKey(`a*`))
	assert.NotEqual(t, plain.cacheKey(`a*`), re2.cacheKey(`a*`))
}

func TestCheckTimeout(t *testing.T) {
	c := newChecker(t, Options{Timeout: time.Nanosecond, CacheSize: 4})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Any realistic analysis outlives a nanosecond deadline.
	pattern := strings.Repeat(`(?:a|b|ab)*`, 6)
	out := c.CheckOne(ctx, pattern)
	if !out.Failed() {
		t.Skip("analysis finished before the deadline")
	}
	assert.Equal(t, analyzer.ClassTimeout, out.ErrorClass)
	assert.Contains(t, out.Error, "timed out")
	assert.Equal(t, 0, c.cache.Len(), "timeouts are not cached")
}

func TestErrTimeout(t *testing.T) {
	assert.True(t, errors.Is(ErrTimeout, context.DeadlineExceeded))
	assert.Equal(t, analyzer.ClassTimeout, analyzer.ErrorClass(ErrTimeout))
}

func TestCheckCanceled(t *testing.T) {
	c := newChecker(t, Options{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Check(ctx, []string{`a`, `b`})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportOutput(t *testing.T) {
	c := newChecker(t, Options{})
	report, err := c.Check(context.Background(), []string{`a`, `(a*)*`})
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, report.WriteText(&text))
	assert.Contains(t, text.String(), "vulnerable (a*)*")
	assert.Contains(t, text.String(), "2 patterns: 1 safe, 1 vulnerable, 0 failed")

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))
	var decoded struct {
		RunID   string           `json:"run_id"`
		Results []map[string]any `json:"results"`
		Summary Summary          `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	assert.Equal(t, "vulnerable", decoded.Results[1]["verdict"])
	assert.Equal(t, 1, decoded.Summary.Vulnerable)
}

func TestMetricsTextfile(t *testing.T) {
	metrics := NewMetrics()
	c := newChecker(t, Options{Metrics: metrics})
	_, err := c.Check(context.Background(), []string{`a*a*`})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "redoscan.prom")
	require.NoError(t, metrics.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `redoscan_patterns_total{class="",verdict="vulnerable"} 1`)
	assert.Contains(t, string(data), "redoscan_analysis_duration_seconds_count 1")
}

func TestReadPatterns(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("Should read text with comments", func(t *testing.T) {
		path := write("p.txt", "# header\na*\n\n  # indented comment\n(a|a)*\r\n a b\n")
		got, err := ReadPatterns(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"a*", "(a|a)*", " a b"}, got)
	})

	t.Run("Should read a YAML patterns list", func(t *testing.T) {
		path := write("p.yaml", "patterns:\n  - 'a*'\n  - '(a*)*'\n")
		got, err := ReadPatterns(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"a*", "(a*)*"}, got)
	})

	t.Run("Should read a bare YAML list", func(t *testing.T) {
		path := write("p.yml", "- 'x'\n- '\\d*\\w*'\n")
		got, err := ReadPatterns(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", `\d*\w*`}, got)
	})

	t.Run("Should reject a YAML scalar", func(t *testing.T) {
		path := write("bad.yaml", "just a string\n")
		_, err := ReadPatterns(path)
		assert.Error(t, err)
	})

	t.Run("Should read zstd-compressed text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, CompressText(&buf, []string{"a*", "# skipped", "b+"}))
		path := write("p.txt.zst", buf.String())
		got, err := ReadPatterns(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"a*", "b+"}, got)
	})

	t.Run("Should fail on a missing file", func(t *testing.T) {
		_, err := ReadPatterns(filepath.Join(dir, "missing.txt"))
		assert.ErrorContains(t, err, "failed to open pattern file")
	})
}
