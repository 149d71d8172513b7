package analyzer

import (
	"context"
	"errors"
	"sort"

	"github.com/KromDaniel/redoscan/internal/ambiguity"
	"github.com/KromDaniel/redoscan/internal/ast"
	"github.com/KromDaniel/redoscan/internal/automaton"
)

// Error classes reported by ErrorClass.
const (
	ClassParse       = "parse"
	ClassUnsupported = "unsupported"
	ClassInternal    = "internal"
	ClassLimit       = "limit"
	ClassTimeout     = "timeout"
	ClassUnknown     = "unknown"
)

// ErrorClass maps an analysis error onto its class. It returns "" for nil.
func ErrorClass(err error) string {
	var (
		parseErr       *ast.ParseError
		unsupportedErr *automaton.UnsupportedConstructError
		internalErr    *automaton.InternalInvariantError
		limitErr       *ambiguity.LimitError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &parseErr):
		return ClassParse
	case errors.As(err, &unsupportedErr):
		return ClassUnsupported
	case errors.As(err, &internalErr):
		return ClassInternal
	case errors.As(err, &limitErr):
		return ClassLimit
	case errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	}
	return ClassUnknown
}

// AnalysisResult is the serializable form of an analysis outcome.
type AnalysisResult struct {
	Pattern string `json:"pattern"`

	// Verdict is "safe", "vulnerable" or "error".
	Verdict    string `json:"verdict"`
	Ambiguity  string `json:"ambiguity,omitempty"`
	Witness    string `json:"witness,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorClass string `json:"error_class,omitempty"`

	// FeatureLabels are derived from pattern structure (sorted alphabetically)
	FeatureLabels []string `json:"feature_labels,omitempty"`

	StarHeight  int    `json:"star_height"`
	HasCaptures bool   `json:"has_captures"`
	Stats       *Stats `json:"stats,omitempty"`
}

// VerdictError marks results whose analysis failed.
const VerdictError = "error"

// Vulnerable reports whether the result flags the pattern.
func (r *AnalysisResult) Vulnerable() bool {
	return r.Verdict == Vulnerable.String()
}

// Failed reports whether the analysis ended in an error.
func (r *AnalysisResult) Failed() bool {
	return r.Verdict == VerdictError
}

// NewAnalysisResult builds the serializable outcome. p may be nil when
// parsing failed; res is ignored when err is set.
func NewAnalysisResult(pattern string, p *ast.Pattern, res *Result, err error) *AnalysisResult {
	out := &AnalysisResult{Pattern: pattern}
	if p != nil {
		out.FeatureLabels = deriveFeatureLabels(p)
		out.StarHeight = ast.StarHeight(p.Root)
		out.HasCaptures = ast.HasOp(p.Root, ast.OpCapture, ast.OpNamedCapture)
	}
	if err != nil {
		out.Verdict = VerdictError
		out.Error = err.Error()
		out.ErrorClass = ErrorClass(err)
		return out
	}

	out.Verdict = res.Verdict.String()
	stats := res.Stats
	out.Stats = &stats
	if res.Witness != nil {
		out.Ambiguity = res.Ambiguity.String()
		out.Witness = res.Witness.String()
	}
	return out
}

// AnalyzePattern parses and analyzes pattern and returns the serializable
// outcome. The error is returned alongside a populated result.
func AnalyzePattern(pattern string, config Config) (*AnalysisResult, error) {
	a := New(config)
	p, err := a.Parse(pattern)
	if err != nil {
		return NewAnalysisResult(pattern, nil, nil, err), err
	}
	res, err := a.Analyze(p)
	return NewAnalysisResult(pattern, p, res, err), err
}

// deriveFeatureLabels extracts feature labels from the pattern structure.
// Labels are sorted alphabetically.
func deriveFeatureLabels(p *ast.Pattern) []string {
	var labels []string
	root := p.Root

	if ast.HasOp(root, ast.OpLineBegin, ast.OpLineEnd) {
		labels = append(labels, "Anchored")
	}
	if ast.HasOp(root, ast.OpDisjunction) {
		labels = append(labels, "Alternation")
	}
	if ast.HasOp(root, ast.OpBackRef, ast.OpNamedBackRef) {
		labels = append(labels, "Backreference")
	}
	if ast.HasOp(root, ast.OpCapture, ast.OpNamedCapture) {
		labels = append(labels, "Captures")
	}
	if ast.HasOp(root, ast.OpClass, ast.OpEscapeClass, ast.OpDot) {
		labels = append(labels, "CharClass")
	}
	if ast.HasOp(root, ast.OpLookAhead, ast.OpLookBehind) {
		labels = append(labels, "Lookaround")
	}
	if hasMultibyte(p.Source) {
		labels = append(labels, "Multibyte")
	}
	if ast.HasOp(root, ast.OpGroup) {
		labels = append(labels, "NonCapturing")
	}
	if ast.HasOp(root, ast.OpMany, ast.OpSome, ast.OpOptional, ast.OpRepeat) {
		labels = append(labels, "Quantifiers")
	}
	if ast.StarHeight(root) > 1 {
		labels = append(labels, "NestedQuantifiers")
	}
	if ast.HasRepeatingCaptures(root) {
		labels = append(labels, "RepeatingCaptures")
	}
	if ast.HasOp(root, ast.OpWordBoundary) {
		labels = append(labels, "WordBoundary")
	}

	// Simple: no special features
	if len(labels) == 0 {
		labels = append(labels, "Simple")
	}

	sort.Strings(labels)
	return labels
}

func hasMultibyte(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] >= 0x80 {
			return true
		}
	}
	return false
}
