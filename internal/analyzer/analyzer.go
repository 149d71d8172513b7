// Package analyzer drives the detection pipeline for a single pattern:
// parse, build, eliminate epsilons, optionally prune, decompose, and check
// the components for EDA and then IDA.
package analyzer

import (
	"fmt"

	"github.com/KromDaniel/redoscan/internal/ambiguity"
	"github.com/KromDaniel/redoscan/internal/ast"
	"github.com/KromDaniel/redoscan/internal/automaton"
)

// Pattern syntaxes understood by Parse.
const (
	SyntaxECMAScript = "ecmascript"
	SyntaxRE2        = "re2"
)

// DefaultMaxProductStates bounds each product automaton.
const DefaultMaxProductStates = 200000

// Config holds the configuration for an analysis.
type Config struct {
	Syntax           string // SyntaxECMAScript (default) or SyntaxRE2
	Prune            bool   // Run the reverse-DFA pruning before decomposition
	MaxProductStates int    // Ceiling per product automaton (0 = unlimited)
	Verbose          bool   // Enable verbose logging of analysis decisions
	Logger           *Logger
}

// Verdict is the outcome of an analysis.
type Verdict uint8

const (
	Safe Verdict = iota
	Vulnerable
)

func (v Verdict) String() string {
	if v == Vulnerable {
		return "vulnerable"
	}
	return "safe"
}

// Stats describes the automata built during an analysis.
type Stats struct {
	EpsilonStates  int `json:"epsilon_states"`
	NFAStates      int `json:"nfa_states"`
	NFATransitions int `json:"nfa_transitions"`
	PrunedStates   int `json:"pruned_states,omitempty"`
	SCCs           int `json:"sccs"`
	CyclicSCCs     int `json:"cyclic_sccs"`
}

// Result is the verdict for one pattern. Ambiguity and Witness are set only
// when the pattern is vulnerable.
type Result struct {
	Pattern   string
	Verdict   Verdict
	Ambiguity ambiguity.Kind
	Witness   *ambiguity.Witness
	Stats     Stats
}

// Stages holds the automata of a pattern. Pruned is nil unless pruning is
// enabled.
type Stages struct {
	Epsilon *automaton.EpsilonNFA
	NFA     *automaton.NFA
	Pruned  *automaton.PrunedNFA
}

// Analyzed returns the automaton the ambiguity checks run on.
func (s *Stages) Analyzed() *automaton.NFA {
	if s.Pruned != nil {
		return s.Pruned.NFA
	}
	return s.NFA
}

// Analyzer runs the pipeline. It holds no per-pattern state, so one value
// can serve concurrent callers.
type Analyzer struct {
	config Config
	logger *Logger
}

// New creates a new analyzer instance.
func New(config Config) *Analyzer {
	if config.Syntax == "" {
		config.Syntax = SyntaxECMAScript
	}
	logger := config.Logger
	if logger == nil {
		logger = NewLogger(config.Verbose)
	}
	return &Analyzer{config: config, logger: logger}
}

// Config returns the analyzer's configuration with defaults applied.
func (a *Analyzer) Config() Config {
	return a.config
}

// Parse parses pattern with the configured front end.
func (a *Analyzer) Parse(pattern string) (*ast.Pattern, error) {
	switch a.config.Syntax {
	case SyntaxECMAScript:
		return ast.Parse(pattern)
	case SyntaxRE2:
		return ast.ParseRE2(pattern)
	}
	return nil, fmt.Errorf("unknown syntax %q", a.config.Syntax)
}

// AnalyzeString parses and analyzes pattern.
func (a *Analyzer) AnalyzeString(pattern string) (*Result, error) {
	p, err := a.Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pattern: %w", err)
	}
	return a.Analyze(p)
}

// Build runs the automaton stages of the pipeline.
func (a *Analyzer) Build(p *ast.Pattern) (*Stages, error) {
	a.logger.Section("Automaton Construction")
	a.logger.Log("Pattern: %s", p.Source)
	a.logger.Log("Syntax tree: %s", p.Root)

	enfa, err := automaton.Build(p)
	if err != nil {
		return nil, fmt.Errorf("failed to build automaton: %w", err)
	}
	a.logger.Log("Epsilon-NFA states: %d", enfa.NumStates())

	nfa, err := automaton.EliminateEpsilons(enfa)
	if err != nil {
		return nil, fmt.Errorf("failed to eliminate epsilon transitions: %w", err)
	}
	if err := nfa.Validate(); err != nil {
		return nil, err
	}
	a.logger.Log("NFA states: %d, transitions: %d, initial: %v", nfa.NumStates(), nfa.NumTransitions(), nfa.Initial)
	a.logger.Log("Alphabet: %s", nfa.Alphabet)

	stages := &Stages{Epsilon: enfa, NFA: nfa}
	if a.config.Prune {
		dfa := automaton.ReverseDFA(nfa)
		stages.Pruned = automaton.Prune(nfa, dfa)
		a.logger.Log("Reverse DFA states: %d", dfa.NumStates())
		a.logger.Log("Pruned states: %d (product bound %d)", stages.Pruned.NumStates(), nfa.NumStates()*dfa.NumStates())
	}
	return stages, nil
}

// Analyze runs the whole pipeline on p.
func (a *Analyzer) Analyze(p *ast.Pattern) (*Result, error) {
	stages, err := a.Build(p)
	if err != nil {
		return nil, err
	}
	nfa := stages.Analyzed()

	result := &Result{
		Pattern: p.Source,
		Stats: Stats{
			EpsilonStates:  stages.Epsilon.NumStates(),
			NFAStates:      stages.NFA.NumStates(),
			NFATransitions: stages.NFA.NumTransitions(),
		},
	}
	if stages.Pruned != nil {
		result.Stats.PrunedStates = stages.Pruned.NumStates()
	}

	a.logger.Section("SCC Decomposition")
	d := automaton.Decompose(nfa)
	reachable := automaton.Reachable(nfa)
	var candidates []*automaton.SCC
	for _, c := range d.Components {
		if c.Cyclic() && reachable[c.Members[0]] {
			candidates = append(candidates, c)
		}
	}
	result.Stats.SCCs = len(d.Components)
	result.Stats.CyclicSCCs = len(candidates)
	a.logger.Log("Components: %d, cyclic and reachable: %d", len(d.Components), len(candidates))

	limit := a.config.MaxProductStates

	a.logger.Section("EDA Check")
	for _, c := range candidates {
		w, err := ambiguity.FindEDA(c, limit)
		if err != nil {
			return nil, fmt.Errorf("EDA check on SCC %d: %w", c.ID, err)
		}
		if w != nil {
			a.logger.Log("Witness: %s", w)
			return result.vulnerable(w), nil
		}
		a.logger.Log("SCC %d %v: no EDA", c.ID, c.Members)
	}

	a.logger.Section("IDA Check")
	for _, c := range candidates {
		w, err := ambiguity.FindIDA(nfa, d, c, limit)
		if err != nil {
			return nil, fmt.Errorf("IDA check from SCC %d: %w", c.ID, err)
		}
		if w != nil {
			a.logger.Log("Witness: %s", w)
			return result.vulnerable(w), nil
		}
		a.logger.Log("SCC %d %v: no IDA", c.ID, c.Members)
	}

	a.logger.Log("Verdict: safe")
	return result, nil
}

func (r *Result) vulnerable(w *ambiguity.Witness) *Result {
	r.Verdict = Vulnerable
	r.Ambiguity = w.Kind
	r.Witness = w
	return r
}
