// Package batch analyzes many patterns concurrently with per-pattern
// timeouts, a verdict cache and Prometheus metrics.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dchest/siphash"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/KromDaniel/redoscan/internal/analyzer"
)

// ErrTimeout reports an analysis abandoned after the per-pattern timeout.
var ErrTimeout = fmt.Errorf("analysis timed out: %w", context.DeadlineExceeded)

// Cache key seed.
const (
	k0 = 0x7265646f7363616e
	k1 = 0x636865636b657273
)

// Options configures a Checker.
type Options struct {
	Analyzer  analyzer.Config
	Timeout   time.Duration // per pattern; 0 disables
	Workers   int           // concurrent analyses; values < 1 mean 1
	CacheSize int           // verdict cache entries; 0 disables
	Metrics   *Metrics      // optional
	Logger    *analyzer.Logger
}

// Outcome is the result for one pattern of a batch.
type Outcome struct {
	*analyzer.AnalysisResult
	Duration time.Duration `json:"duration_ns"`
	Cached   bool          `json:"cached,omitempty"`
}

// Checker runs analyses. It is safe for concurrent use.
type Checker struct {
	opts     Options
	analyzer *analyzer.Analyzer
	cache    *lru.Cache[uint64, *analyzer.AnalysisResult]
	logger   *analyzer.Logger
}

// NewChecker creates a checker.
func NewChecker(opts Options) (*Checker, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = analyzer.NewLogger(false)
	}
	if opts.Analyzer.Logger == nil {
		opts.Analyzer.Logger = logger
	}
	c := &Checker{
		opts:     opts,
		analyzer: analyzer.New(opts.Analyzer),
		logger:   logger,
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[uint64, *analyzer.AnalysisResult](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create verdict cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Check analyzes every pattern and returns the report in input order.
// Analysis failures are part of the report; the error is non-nil only when
// ctx ends before the batch completes.
func (c *Checker) Check(ctx context.Context, patterns []string) (*Report, error) {
	report := newReport(c.analyzer.Config(), len(patterns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, pattern := range patterns {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			report.Results[i] = c.CheckOne(gctx, pattern)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}

	report.finish()
	c.logger.Info("batch complete",
		"run_id", report.RunID,
		"total", report.Summary.Total,
		"vulnerable", report.Summary.Vulnerable,
		"failed", report.Summary.Failed)
	return report, nil
}

// CheckOne analyzes a single pattern, consulting the cache first.
func (c *Checker) CheckOne(ctx context.Context, pattern string) *Outcome {
	key := c.cacheKey(pattern)
	if c.cache != nil {
		if res, ok := c.cache.Get(key); ok && res.Pattern == pattern {
			out := &Outcome{AnalysisResult: res, Cached: true}
			c.record(out)
			return out
		}
	}

	start := time.Now()
	res := c.analyze(ctx, pattern)
	out := &Outcome{AnalysisResult: res, Duration: time.Since(start)}

	// Timeouts and cancellations depend on the host, not the pattern.
	if c.cache != nil && res.ErrorClass != analyzer.ClassTimeout && ctx.Err() == nil {
		c.cache.Add(key, res)
	}
	c.record(out)
	return out
}

func (c *Checker) record(out *Outcome) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.observe(out)
	}
	log := c.logger.With("pattern", out.Pattern)
	switch {
	case out.Failed():
		log.Warn("analysis failed", "class", out.ErrorClass, "error", out.Error)
	case out.Vulnerable():
		log.Info("vulnerable", "ambiguity", out.Ambiguity, "witness", out.Witness)
	default:
		log.Debug("safe", "cached", out.Cached, "duration", out.Duration)
	}
}

// analyze runs the pipeline on its own goroutine. The pipeline has no
// cancellation points, so a timed-out goroutine runs to completion in the
// background and its result is dropped.
func (c *Checker) analyze(ctx context.Context, pattern string) *analyzer.AnalysisResult {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	done := make(chan *analyzer.AnalysisResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("analysis panic: %v", r)
				done <- analyzer.NewAnalysisResult(pattern, nil, nil, err)
			}
		}()
		done <- c.run(pattern)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrTimeout
		}
		return analyzer.NewAnalysisResult(pattern, nil, nil, err)
	}
}

func (c *Checker) run(pattern string) *analyzer.AnalysisResult {
	p, err := c.analyzer.Parse(pattern)
	if err != nil {
		return analyzer.NewAnalysisResult(pattern, nil, nil, err)
	}
	res, err := c.analyzer.Analyze(p)
	return analyzer.NewAnalysisResult(pattern, p, res, err)
}

func (c *Checker) cacheKey(pattern string) uint64 {
	cfg := c.analyzer.Config()
	buf := make([]byte, 0, len(cfg.Syntax)+len(pattern)+16)
	buf = append(buf, cfg.Syntax...)
	buf = append(buf, 0)
	buf = strconv.AppendBool(buf, cfg.Prune)
	buf = append(buf, 0)
	buf = strconv.AppendInt(buf, int64(cfg.MaxProductStates), 10)
	buf = append(buf, 0)
	buf = append(buf, pattern...)
	return siphash.Hash(k0, k1, buf)
}
