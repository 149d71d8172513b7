// Package redoscan detects regular expressions vulnerable to ReDoS by
// checking their NFA for exponential (EDA) and polynomial (IDA) degree of
// ambiguity.
package redoscan

import (
	"fmt"
	"io"
	"os"

	"github.com/KromDaniel/redoscan/internal/ambiguity"
	"github.com/KromDaniel/redoscan/internal/analyzer"
	"github.com/KromDaniel/redoscan/internal/codegen"
)

// Syntax values accepted by Options.Syntax.
const (
	SyntaxECMAScript = analyzer.SyntaxECMAScript
	SyntaxRE2        = analyzer.SyntaxRE2
)

// Verdict values.
const (
	Safe       = analyzer.Safe
	Vulnerable = analyzer.Vulnerable
)

// Ambiguity kinds reported for vulnerable patterns.
const (
	EDA = ambiguity.EDA
	IDA = ambiguity.IDA
)

type (
	// Result is the verdict for one pattern.
	Result = analyzer.Result
	// Verdict is Safe or Vulnerable.
	Verdict = analyzer.Verdict
	// Witness locates the ambiguity in the automaton.
	Witness = ambiguity.Witness
	// AnalysisResult is the serializable outcome including failures.
	AnalysisResult = analyzer.AnalysisResult
	// LimitError reports a product automaton over Options.MaxProductStates.
	LimitError = ambiguity.LimitError
)

// Options configures an analysis.
type Options struct {
	// Syntax selects the front end: SyntaxECMAScript (default) or SyntaxRE2
	Syntax string

	// Prune runs the checks on the product with the reverse-reachability DFA
	Prune bool

	// MaxProductStates bounds each product automaton (0 = unlimited)
	MaxProductStates int

	// Verbose logs every pipeline stage to stderr
	Verbose bool
}

// Validate checks if the options are valid.
func (o Options) Validate() error {
	switch o.Syntax {
	case "", SyntaxECMAScript, SyntaxRE2:
	default:
		return fmt.Errorf("unknown syntax %q", o.Syntax)
	}
	if o.MaxProductStates < 0 {
		return fmt.Errorf("max product states cannot be negative")
	}
	return nil
}

func (o Options) config() analyzer.Config {
	return analyzer.Config{
		Syntax:           o.Syntax,
		Prune:            o.Prune,
		MaxProductStates: o.MaxProductStates,
		Verbose:          o.Verbose,
	}
}

// Analyze checks an ECMAScript-syntax pattern with the default product
// state ceiling.
//
// Example:
//
//	res, err := redoscan.Analyze(`(a|a)*`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Verdict, res.Witness) // vulnerable EDA in SCC ...
func Analyze(pattern string) (*Result, error) {
	return AnalyzeWithOptions(pattern, Options{MaxProductStates: analyzer.DefaultMaxProductStates})
}

// AnalyzeWithOptions checks pattern with the given options.
func AnalyzeWithOptions(pattern string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return analyzer.New(opts.config()).AnalyzeString(pattern)
}

// Describe returns the serializable outcome, with feature labels, for
// pattern. Analysis errors are reported both in the result and as err.
func Describe(pattern string, opts Options) (*AnalysisResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return analyzer.AnalyzePattern(pattern, opts.config())
}

// ErrorClass classifies an error returned by this package as parse,
// unsupported, internal, limit, timeout or unknown.
func ErrorClass(err error) string {
	return analyzer.ErrorClass(err)
}

// GenerateOptions configures Generate.
type GenerateOptions struct {
	Options

	// Package is the Go package name for the generated code
	Package string

	// OutputFile is where the generated code is written; stdout when empty
	OutputFile string

	// Prefix names the generated variables (Prefix0, Prefix1, ...)
	Prefix string

	// AllowVulnerable emits vulnerable patterns with a warning instead of rejecting them
	AllowVulnerable bool
}

// Generate analyzes patterns and writes a Go file declaring compiled
// regexps for the accepted ones. It returns the rejected patterns.
func Generate(patterns []string, opts GenerateOptions) ([]string, error) {
	guard, err := generate(patterns, opts)
	if err != nil {
		return nil, err
	}
	if opts.OutputFile == "" {
		return guard.Rejected, guard.Render(os.Stdout)
	}
	return guard.Rejected, guard.Save(opts.OutputFile)
}

// WriteGenerated is Generate with an explicit destination.
func WriteGenerated(w io.Writer, patterns []string, opts GenerateOptions) ([]string, error) {
	guard, err := generate(patterns, opts)
	if err != nil {
		return nil, err
	}
	return guard.Rejected, guard.Render(w)
}

func generate(patterns []string, opts GenerateOptions) (*codegen.Guard, error) {
	if err := opts.Options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if opts.Package == "" {
		return nil, fmt.Errorf("package cannot be empty")
	}

	results := make([]*AnalysisResult, len(patterns))
	for i, p := range patterns {
		// Failures are recorded in the result and rejected by the generator.
		results[i], _ = analyzer.AnalyzePattern(p, opts.config())
	}

	guard, err := codegen.GenerateGuard(codegen.GuardOptions{
		Package:         opts.Package,
		Prefix:          opts.Prefix,
		AllowVulnerable: opts.AllowVulnerable,
	}, results)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}
	return guard, nil
}
