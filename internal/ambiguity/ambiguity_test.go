package ambiguity

import (
	"errors"
	"testing"

	"github.com/KromDaniel/redoscan/internal/ast"
	"github.com/KromDaniel/redoscan/internal/automaton"
)

func eliminated(t *testing.T, pattern string) (*automaton.NFA, *automaton.Decomposition) {
	t.Helper()
	enfa, err := automaton.Build(ast.MustParse(pattern))
	if err != nil {
		t.Fatalf("Build(%q) error: %v", pattern, err)
	}
	nfa, err := automaton.EliminateEpsilons(enfa)
	if err != nil {
		t.Fatalf("EliminateEpsilons(%q) error: %v", pattern, err)
	}
	return nfa, automaton.Decompose(nfa)
}

// firstWitness runs EDA over every component, then IDA.
func firstWitness(t *testing.T, pattern string, limit int) (*Witness, error) {
	t.Helper()
	nfa, d := eliminated(t, pattern)
	reachable := automaton.Reachable(nfa)
	for _, c := range d.Components {
		if !reachable[c.Members[0]] {
			continue
		}
		w, err := FindEDA(c, limit)
		if err != nil || w != nil {
			return w, err
		}
	}
	for _, c := range d.Components {
		if !reachable[c.Members[0]] {
			continue
		}
		w, err := FindIDA(nfa, d, c, limit)
		if err != nil || w != nil {
			return w, err
		}
	}
	return nil, nil
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		pattern string
		want    Kind // zero means unambiguous
	}{
		{"a", 0},
		{"a*", 0},
		{"ab*c", 0},
		{"[a-z][0-9a-z]*", 0},
		{"a*b*", 0},
		{"a*ba*", 0},
		{"(ab)*", 0},
		{"(aa)*", 0},
		{"(a*)*", EDA},
		{"(?:a*)*", EDA},
		{"(a|a)*", EDA},
		{`(\w|\d)*`, EDA},
		{"(a|ab|b)*", EDA},
		{"(?:a*b*)*", EDA},
		{"(a*b*)*c", EDA},
		{"((a*)*)*b", EDA},
		{"a*a*", IDA},
		{`\d*\w*`, IDA},
		{"a*[a-c]*", IDA},
		{".*.*=.*", IDA},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			w, err := firstWitness(t, tt.pattern, 0)
			if err != nil {
				t.Fatalf("pattern %q: unexpected error: %v", tt.pattern, err)
			}
			var got Kind
			if w != nil {
				got = w.Kind
			}
			if got != tt.want {
				t.Errorf("pattern %q: ambiguity = %v (witness %v), want %v", tt.pattern, got, w, tt.want)
			}
		})
	}
}

func TestPairGraphDivergentLoop(t *testing.T) {
	_, d := eliminated(t, "(a*)*")
	for _, c := range d.Components {
		if !c.Cyclic() {
			continue
		}
		g, err := BuildPairGraph(c, 0)
		if err != nil {
			t.Fatal(err)
		}
		divergent := 0
		for _, edges := range g.Edges {
			for _, e := range edges {
				if e.Divergent {
					divergent++
				}
			}
		}
		if divergent == 0 {
			t.Errorf("SCC %v: no divergent edge in pair product", c.Members)
		}
		for _, p := range g.States[:len(c.Members)] {
			if !p.Diagonal() {
				t.Errorf("pair product should start from the diagonal, got %v", p)
			}
		}
	}
}

func TestPairGraphStatesFromOneSCC(t *testing.T) {
	_, d := eliminated(t, "(a|b|ab)*c(d|e)*")
	for _, c := range d.Components {
		g, err := BuildPairGraph(c, 0)
		if err != nil {
			t.Fatal(err)
		}
		for _, p := range g.States {
			if !c.Contains(p[0]) || !c.Contains(p[1]) {
				t.Errorf("pair %v is not drawn from SCC %v", p, c.Members)
			}
		}
	}
}

func TestIDAWitness(t *testing.T) {
	w, err := firstWitness(t, "a*a*", 0)
	if err != nil {
		t.Fatal(err)
	}
	if w == nil || w.Kind != IDA {
		t.Fatalf("a*a*: witness = %v, want IDA", w)
	}
	if w.SCC == w.Target {
		t.Errorf("IDA witness should connect two components, got %d -> %d", w.SCC, w.Target)
	}
	if w.Triple[0] != w.Triple[1] || w.Triple[1] == w.Triple[2] {
		t.Errorf("IDA witness start should be (p, p, q), got %v", w.Triple)
	}
}

func TestLimit(t *testing.T) {
	_, err := firstWitness(t, "(a|a)*", 1)
	var lerr *LimitError
	if !errors.As(err, &lerr) {
		t.Fatalf("error = %v, want LimitError", err)
	}
	if lerr.Limit != 1 || lerr.Stage != "pair product" {
		t.Errorf("LimitError = %+v", lerr)
	}

	_, err = firstWitness(t, "a*ba*", 1)
	if !errors.As(err, &lerr) {
		t.Fatalf("error = %v, want LimitError", err)
	}
	if lerr.Stage != "triple product" {
		t.Errorf("LimitError stage = %q, want triple product", lerr.Stage)
	}
}

func TestWitnessString(t *testing.T) {
	tests := []struct {
		w    Witness
		want string
	}{
		{Witness{Kind: EDA, SCC: 1, Pair: [2]automaton.StateID{2, 4}}, "EDA in SCC 1: pair (q2, q4) lies on a cycle through the diagonal"},
		{Witness{Kind: IDA, SCC: 0, Target: 2, Triple: [3]automaton.StateID{1, 1, 5}}, "IDA from SCC 0 to SCC 2: (q1, q1, q5) reaches (q1, q5, q5)"},
	}
	for _, tt := range tests {
		if got := tt.w.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
