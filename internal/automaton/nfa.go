// Package automaton builds the epsilon-NFA of a pattern and transforms it
// into the epsilon-free, decomposed and optionally pruned automata that the
// ambiguity checks run on.
package automaton

import (
	"fmt"
	"slices"

	"github.com/KromDaniel/redoscan/internal/charset"
)

// StateID indexes a state in an automaton's arena. IDs are assigned in
// creation order and never reused.
type StateID int

// Transition is an outgoing edge. The source state is implicit: it is the
// index of the slice the transition is stored in.
type Transition struct {
	Label charset.Spec
	To    StateID

	// Via lists the states an epsilon-eliminated transition passed through
	// after consuming Label. Two transitions that only differ in Via are
	// distinct parallel edges.
	Via []StateID
}

// IsEpsilon reports whether the transition consumes nothing.
func (t Transition) IsEpsilon() bool {
	return t.Label.IsEpsilon()
}

// sameAs compares label key, destination and route.
func (t Transition) sameAs(o Transition) bool {
	return t.To == o.To && t.Label.Key() == o.Label.Key() && slices.Equal(t.Via, o.Via)
}

func (t Transition) String() string {
	return fmt.Sprintf("-%s-> q%d", t.Label, t.To)
}

// Graph is the read-only view shared by every automaton kind.
type Graph interface {
	NumStates() int
	InitialStates() []StateID
	IsAccepting(q StateID) bool
	Out(q StateID) []Transition
}

// EpsilonNFA is the Thompson automaton of a pattern: a single initial and a
// single accepting state, epsilon transitions allowed.
type EpsilonNFA struct {
	Initial     StateID
	Accepting   StateID
	Transitions [][]Transition
	Alphabet    *charset.Alphabet
}

func (n *EpsilonNFA) NumStates() int           { return len(n.Transitions) }
func (n *EpsilonNFA) InitialStates() []StateID { return []StateID{n.Initial} }
func (n *EpsilonNFA) IsAccepting(q StateID) bool {
	return q == n.Accepting
}

// Out returns the outgoing transitions of q, or nil if q is not a state.
func (n *EpsilonNFA) Out(q StateID) []Transition {
	if int(q) < 0 || int(q) >= len(n.Transitions) {
		return nil
	}
	return n.Transitions[q]
}

// NFA is an epsilon-free automaton with any number of initial states.
type NFA struct {
	Initial     []StateID
	Accepting   []bool
	Transitions [][]Transition
	Alphabet    *charset.Alphabet
}

func (n *NFA) NumStates() int           { return len(n.Transitions) }
func (n *NFA) InitialStates() []StateID { return n.Initial }
func (n *NFA) IsAccepting(q StateID) bool {
	return int(q) >= 0 && int(q) < len(n.Accepting) && n.Accepting[q]
}

// Out returns the outgoing transitions of q, or nil if q is not a state.
func (n *NFA) Out(q StateID) []Transition {
	if int(q) < 0 || int(q) >= len(n.Transitions) {
		return nil
	}
	return n.Transitions[q]
}

// AcceptingStates lists the accepting states in ascending order.
func (n *NFA) AcceptingStates() []StateID {
	var out []StateID
	for q, ok := range n.Accepting {
		if ok {
			out = append(out, StateID(q))
		}
	}
	return out
}

// NumTransitions counts all edges.
func (n *NFA) NumTransitions() int {
	total := 0
	for _, ts := range n.Transitions {
		total += len(ts)
	}
	return total
}

// Validate checks that every state referenced by the automaton exists and
// that no epsilon edge is left.
func (n *NFA) Validate() error {
	if len(n.Accepting) != len(n.Transitions) {
		return &InternalInvariantError{Msg: fmt.Sprintf("accepting table has %d entries for %d states", len(n.Accepting), len(n.Transitions))}
	}
	for _, q := range n.Initial {
		if int(q) < 0 || int(q) >= len(n.Transitions) {
			return &InternalInvariantError{Msg: fmt.Sprintf("initial state q%d has no transition entry", q)}
		}
	}
	for q, ts := range n.Transitions {
		for _, t := range ts {
			if t.IsEpsilon() {
				return &InternalInvariantError{Msg: fmt.Sprintf("epsilon edge left on q%d", q)}
			}
			if int(t.To) < 0 || int(t.To) >= len(n.Transitions) {
				return &InternalInvariantError{Msg: fmt.Sprintf("transition q%d %s leaves the automaton", q, t)}
			}
		}
	}
	return nil
}

// Reachable marks the states reachable from an initial state.
func Reachable(g Graph) []bool {
	seen := make([]bool, g.NumStates())
	queue := make([]StateID, 0, len(g.InitialStates()))
	for _, q := range g.InitialStates() {
		if !seen[q] {
			seen[q] = true
			queue = append(queue, q)
		}
	}
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		for _, t := range g.Out(q) {
			if !seen[t.To] {
				seen[t.To] = true
				queue = append(queue, t.To)
			}
		}
	}
	return seen
}

// Accepts simulates g on input, following epsilon edges where present.
// It exists to cross-check transformations, not to match text.
func Accepts(g Graph, input string) bool {
	current := closure(g, g.InitialStates())
	for _, r := range input {
		var next []StateID
		for _, q := range current {
			for _, t := range g.Out(q) {
				if !t.IsEpsilon() && t.Label.Set.Contains(r) {
					next = append(next, t.To)
				}
			}
		}
		current = closure(g, next)
		if len(current) == 0 {
			return false
		}
	}
	for _, q := range current {
		if g.IsAccepting(q) {
			return true
		}
	}
	return false
}

func closure(g Graph, seeds []StateID) []StateID {
	seen := make([]bool, g.NumStates())
	var out []StateID
	stack := slices.Clone(seeds)
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
		for _, t := range g.Out(q) {
			if t.IsEpsilon() && !seen[t.To] {
				stack = append(stack, t.To)
			}
		}
	}
	return out
}
