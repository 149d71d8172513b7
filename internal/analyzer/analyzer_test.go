package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/KromDaniel/redoscan/internal/ambiguity"
	"github.com/KromDaniel/redoscan/internal/ast"
	"github.com/KromDaniel/redoscan/internal/automaton"
)

func TestAnalyzeScenarios(t *testing.T) {
	tests := []struct {
		pattern     string
		verdict     Verdict
		kind        ambiguity.Kind
		description string
	}{
		{`a`, Safe, 0, "single character"},
		{`a*`, Safe, 0, "single self-loop"},
		{`(a*)*`, Vulnerable, ambiguity.EDA, "star inside star"},
		{`(a|a)*`, Vulnerable, ambiguity.EDA, "identical alternatives looping"},
		{`[a-z][0-9a-z]*`, Safe, 0, "identifier"},
		{`a*a*`, Vulnerable, ambiguity.IDA, "two adjacent overlapping loops"},
		{`\d*\w*`, Vulnerable, ambiguity.IDA, "overlapping escape classes"},
		{`a*b*`, Safe, 0, "disjoint adjacent loops"},
		{`(\w|\d)*`, Vulnerable, ambiguity.EDA, "differently spelled overlapping classes"},
		{`(?:)`, Safe, 0, "empty group"},
		{`(.*)="(.*)"`, Vulnerable, ambiguity.IDA, "two wildcards around a separator"},
		{`(?:a|bc)`, Safe, 0, "finite alternation"},
		{`((a*)*)*b`, Vulnerable, ambiguity.EDA, "three nested stars"},
		{`(a*b*)*c`, Vulnerable, ambiguity.EDA, "star around adjacent stars"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			res, err := New(Config{}).AnalyzeString(tt.pattern)
			if err != nil {
				t.Fatalf("pattern %q: unexpected error: %v", tt.pattern, err)
			}
			if res.Verdict != tt.verdict {
				t.Errorf("pattern %q: verdict = %v, want %v", tt.pattern, res.Verdict, tt.verdict)
			}
			if res.Ambiguity != tt.kind {
				t.Errorf("pattern %q: ambiguity = %v, want %v", tt.pattern, res.Ambiguity, tt.kind)
			}
			if (res.Witness != nil) != (tt.verdict == Vulnerable) {
				t.Errorf("pattern %q: witness = %v with verdict %v", tt.pattern, res.Witness, res.Verdict)
			}
		})
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		pattern string
		class   string
	}{
		{`(?=a)b`, ClassUnsupported},
		{`(a+)+`, ClassUnsupported},
		{`^a`, ClassUnsupported},
		{`a{2,3}`, ClassUnsupported},
		{`(a)\1`, ClassUnsupported},
		{`(a`, ClassParse},
		{`[z-a]`, ClassParse},
		{"\xff*", ClassParse},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			res, err := New(Config{}).AnalyzeString(tt.pattern)
			if err == nil {
				t.Fatalf("pattern %q: expected error, got verdict %v", tt.pattern, res.Verdict)
			}
			if res != nil {
				t.Errorf("pattern %q: result returned alongside error", tt.pattern)
			}
			if got := ErrorClass(err); got != tt.class {
				t.Errorf("pattern %q: ErrorClass = %q, want %q (%v)", tt.pattern, got, tt.class, err)
			}
		})
	}
}

func TestLookaheadIsUnsupported(t *testing.T) {
	_, err := New(Config{}).AnalyzeString(`x(?=y)`)
	var uerr *automaton.UnsupportedConstructError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want UnsupportedConstructError", err)
	}
	if uerr.Construct != "LookAhead" || uerr.Pos != 1 {
		t.Errorf("construct = %s at %d, want LookAhead at 1", uerr.Construct, uerr.Pos)
	}
}

func TestAnalyzeRE2Syntax(t *testing.T) {
	a := New(Config{Syntax: SyntaxRE2})
	tests := []struct {
		pattern string
		verdict Verdict
	}{
		{`(a*)*`, Vulnerable},
		{`[a-z][0-9a-z]*`, Safe},
		{`(?i)k*`, Safe},
		// regexp/syntax factors a|a into a single literal
		{`(a|a)*`, Safe},
	}
	for _, tt := range tests {
		res, err := a.AnalyzeString(tt.pattern)
		if err != nil {
			t.Fatalf("pattern %q: unexpected error: %v", tt.pattern, err)
		}
		if res.Verdict != tt.verdict {
			t.Errorf("pattern %q: verdict = %v, want %v", tt.pattern, res.Verdict, tt.verdict)
		}
	}

	if _, err := New(Config{Syntax: "pcre"}).AnalyzeString("a"); err == nil {
		t.Error("unknown syntax should fail")
	}
}

func TestAnalyzeWithPruning(t *testing.T) {
	for _, pattern := range []string{`a`, `a*`, `(a*)*`, `(a|a)*`, `a*a*`, `[a-z][0-9a-z]*`} {
		t.Run(pattern, func(t *testing.T) {
			a := New(Config{Prune: true})
			p, err := a.Parse(pattern)
			if err != nil {
				t.Fatal(err)
			}
			stages, err := a.Build(p)
			if err != nil {
				t.Fatal(err)
			}
			if stages.Pruned == nil {
				t.Fatal("pruning enabled but no pruned automaton")
			}
			if stages.Analyzed() != stages.Pruned.NFA {
				t.Error("analysis should run on the pruned automaton")
			}

			res, err := a.Analyze(p)
			if err != nil {
				t.Fatal(err)
			}
			if res.Stats.PrunedStates == 0 {
				t.Error("pruned state count missing from stats")
			}
		})
	}

	res, err := New(Config{Prune: true}).AnalyzeString("a")
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Safe {
		t.Errorf("a with pruning: verdict = %v, want safe", res.Verdict)
	}
}

func TestPruningKeepsVerdict(t *testing.T) {
	tests := []struct {
		syntax  string
		pattern string
	}{
		{SyntaxECMAScript, `(a*)*`},
		{SyntaxECMAScript, `(?:a*)*`},
		{SyntaxECMAScript, `(a|a)*`},
		{SyntaxECMAScript, `(a|ab|b)*`},
		{SyntaxECMAScript, `a*a*`},
		{SyntaxECMAScript, `x*y*x*`},
		{SyntaxECMAScript, `(aa|a)*`},
		{SyntaxECMAScript, `(a|b)*a(a|b)*`},
		{SyntaxECMAScript, `((a*)*)*b`},
		{SyntaxECMAScript, `a*b*`},
		{SyntaxECMAScript, `[a-z][0-9a-z]*`},
		{SyntaxRE2, `(a*)*`},
	}

	for _, tt := range tests {
		t.Run(tt.syntax+" "+tt.pattern, func(t *testing.T) {
			plain, err := New(Config{Syntax: tt.syntax}).AnalyzeString(tt.pattern)
			if err != nil {
				t.Fatal(err)
			}
			pruned, err := New(Config{Syntax: tt.syntax, Prune: true}).AnalyzeString(tt.pattern)
			if err != nil {
				t.Fatal(err)
			}
			if pruned.Verdict != plain.Verdict || pruned.Ambiguity != plain.Ambiguity {
				t.Errorf("pattern %q: pruned %v/%v, unpruned %v/%v",
					tt.pattern, pruned.Verdict, pruned.Ambiguity, plain.Verdict, plain.Ambiguity)
			}
		})
	}
}

func TestAnalyzeLimit(t *testing.T) {
	_, err := New(Config{MaxProductStates: 1}).AnalyzeString(`(a|a)*`)
	if got := ErrorClass(err); got != ClassLimit {
		t.Fatalf("ErrorClass = %q, want limit (%v)", got, err)
	}
}

func TestErrorClass(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ast.ParseError{Pattern: "(", Msg: "x"}, ClassParse},
		{fmt.Errorf("wrapped: %w", &automaton.UnsupportedConstructError{Construct: "Some"}), ClassUnsupported},
		{&automaton.InternalInvariantError{Msg: "x"}, ClassInternal},
		{&ambiguity.LimitError{Stage: "pair product", Limit: 1}, ClassLimit},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), ClassTimeout},
		{errors.New("boom"), ClassUnknown},
	}
	for _, tt := range tests {
		if got := ErrorClass(tt.err); got != tt.want {
			t.Errorf("ErrorClass(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestAnalyzePattern(t *testing.T) {
	res, err := AnalyzePattern(`(a*)*`, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Vulnerable() || res.Ambiguity != "EDA" || res.Witness == "" {
		t.Errorf("AnalyzePattern((a*)*) = %+v", res)
	}
	wantLabels := []string{"Captures", "NestedQuantifiers", "Quantifiers", "RepeatingCaptures"}
	if fmt.Sprint(res.FeatureLabels) != fmt.Sprint(wantLabels) {
		t.Errorf("FeatureLabels = %v, want %v", res.FeatureLabels, wantLabels)
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"verdict":"vulnerable"`)) {
		t.Errorf("JSON missing verdict: %s", data)
	}

	res, err = AnalyzePattern(`(?=a)`, Config{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !res.Failed() || res.ErrorClass != ClassUnsupported {
		t.Errorf("AnalyzePattern((?=a)) = %+v", res)
	}
	if fmt.Sprint(res.FeatureLabels) != "[Lookaround]" {
		t.Errorf("FeatureLabels = %v, want [Lookaround]", res.FeatureLabels)
	}

	res, _ = AnalyzePattern(`abc`, Config{})
	if fmt.Sprint(res.FeatureLabels) != "[Simple]" {
		t.Errorf("FeatureLabels = %v, want [Simple]", res.FeatureLabels)
	}
}

func TestLogger(t *testing.T) {
	t.Run("disabled logger produces no output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(false)
		logger.SetOutput(&buf)

		logger.Log("test message")
		logger.Section("test section")

		if buf.Len() != 0 {
			t.Errorf("disabled logger produced output: %s", buf.String())
		}
	})

	t.Run("enabled logger produces output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(true)
		logger.SetOutput(&buf)

		logger.Log("test message")
		logger.Section("test section")

		output := buf.String()
		if !bytes.Contains([]byte(output), []byte("test message")) {
			t.Errorf("output missing 'test message': %s", output)
		}
		if !bytes.Contains([]byte(output), []byte("test section")) {
			t.Errorf("output missing 'test section': %s", output)
		}
	})

	t.Run("json formatter", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerWithOptions(LoggerOptions{Output: &buf, JSON: true})
		logger.With("pattern", "a*").Info("checked")

		if !bytes.Contains(buf.Bytes(), []byte(`"pattern":"a*"`)) {
			t.Errorf("JSON output missing key/value: %s", buf.String())
		}
	})
}

func TestAnalyzerVerboseLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(true)
	logger.SetOutput(&buf)

	if _, err := New(Config{Logger: logger}).AnalyzeString(`a*a*`); err != nil {
		t.Fatal(err)
	}
	for _, section := range []string{"Automaton Construction", "SCC Decomposition", "EDA Check", "IDA Check"} {
		if !bytes.Contains(buf.Bytes(), []byte(section)) {
			t.Errorf("missing %s section in verbose output", section)
		}
	}
}
