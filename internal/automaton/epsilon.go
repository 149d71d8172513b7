package automaton

import (
	"fmt"
	"slices"

	"github.com/KromDaniel/redoscan/internal/charset"
)

// maxParallel caps the parallel transitions kept per (source, label key,
// destination). Two are enough to witness ambiguity.
const maxParallel = 2

// EliminateEpsilons converts an epsilon-NFA into an equivalent NFA without
// epsilon transitions.
//
// Every consuming transition q -c-> p is followed by each simple epsilon
// route p -ε*-> r that ends where the input continues: r == p or r has a
// consuming transition of its own. The result gets q -c-> r with the route's
// states recorded in Via, so distinct routes stay distinct parallel edges.
// A state accepts when an accepting state is epsilon-reachable from it, and
// the epsilon closure of the initial states becomes the initial set.
func EliminateEpsilons(enfa *EpsilonNFA) (*NFA, error) {
	if enfa == nil {
		return nil, &InternalInvariantError{Msg: "nil epsilon-NFA"}
	}
	n := enfa.NumStates()
	if int(enfa.Initial) >= n || int(enfa.Accepting) >= n {
		return nil, &InternalInvariantError{Msg: fmt.Sprintf("initial q%d or accepting q%d has no transition entry", enfa.Initial, enfa.Accepting)}
	}
	accepting := make([]bool, n)
	accepting[enfa.Accepting] = true
	return eliminate(enfa.Transitions, []StateID{enfa.Initial}, accepting)
}

// EliminateEpsilons runs the eliminator on an NFA. On an epsilon-free
// automaton this returns an identical copy.
func (n *NFA) EliminateEpsilons() (*NFA, error) {
	if err := validateShape(n); err != nil {
		return nil, err
	}
	return eliminate(n.Transitions, n.Initial, slices.Clone(n.Accepting))
}

func validateShape(n *NFA) error {
	if len(n.Accepting) != len(n.Transitions) {
		return &InternalInvariantError{Msg: fmt.Sprintf("accepting table has %d entries for %d states", len(n.Accepting), len(n.Transitions))}
	}
	return nil
}

func eliminate(src [][]Transition, initial []StateID, accepting []bool) (*NFA, error) {
	n := len(src)
	for q := range src {
		for _, t := range src[q] {
			if int(t.To) < 0 || int(t.To) >= n {
				return nil, &InternalInvariantError{Msg: fmt.Sprintf("transition q%d %s leaves the automaton", q, t)}
			}
		}
	}
	for _, q := range initial {
		if int(q) < 0 || int(q) >= n {
			return nil, &InternalInvariantError{Msg: fmt.Sprintf("initial state q%d has no transition entry", q)}
		}
	}

	consumes := make([]bool, n)
	for q, ts := range src {
		consumes[q] = slices.ContainsFunc(ts, func(t Transition) bool { return !t.IsEpsilon() })
	}

	trans := make([][]Transition, n)
	for q, ts := range src {
		for _, d0 := range ts {
			if d0.IsEpsilon() {
				continue
			}
			for _, r := range epsilonRoutes(src, d0.To) {
				if r.to != d0.To && !consumes[r.to] {
					continue
				}
				via := make([]StateID, 0, len(d0.Via)+len(r.via))
				via = append(via, d0.Via...)
				via = append(via, r.via...)
				t := Transition{Label: d0.Label, To: r.to, Via: via}
				if admit(trans[q], t) {
					trans[q] = append(trans[q], t)
				}
			}
		}
	}

	acc := make([]bool, n)
	for q := range acc {
		acc[q] = slices.ContainsFunc(epsilonClosure(src, StateID(q)), func(r StateID) bool { return accepting[r] })
	}

	initials := slices.Clone(initial)
	isInitial := make([]bool, n)
	for _, q := range initials {
		isInitial[q] = true
	}
	for _, q := range initial {
		for _, r := range epsilonClosure(src, q) {
			if !isInitial[r] && consumes[r] {
				isInitial[r] = true
				initials = append(initials, r)
			}
		}
	}

	return &NFA{
		Initial:     initials,
		Accepting:   acc,
		Transitions: trans,
		Alphabet:    alphabetOf(trans),
	}, nil
}

// route is a simple epsilon path ending at to. via lists the states it
// passes before to, starting with the state it left.
type route struct {
	to  StateID
	via []StateID
}

// epsilonRoutes enumerates the simple epsilon paths leaving p in matcher
// priority order, starting with the empty path. A state is expanded at most
// maxParallel times, which bounds the walk and still yields every state
// reachable from p with up to maxParallel distinct routes.
func epsilonRoutes(trans [][]Transition, p StateID) []route {
	var out []route
	expanded := make(map[StateID]int)
	onPath := make(map[StateID]bool)
	var path []StateID
	var walk func(q StateID)
	walk = func(q StateID) {
		out = append(out, route{to: q, via: slices.Clone(path)})
		if expanded[q] >= maxParallel {
			return
		}
		expanded[q]++
		onPath[q] = true
		path = append(path, q)
		for _, t := range trans[q] {
			if t.IsEpsilon() && !onPath[t.To] {
				walk(t.To)
			}
		}
		path = path[:len(path)-1]
		onPath[q] = false
	}
	walk(p)
	return out
}

// epsilonClosure returns q and every state epsilon-reachable from it, in
// discovery order.
func epsilonClosure(trans [][]Transition, q StateID) []StateID {
	seen := map[StateID]bool{q: true}
	out := []StateID{q}
	for i := 0; i < len(out); i++ {
		for _, t := range trans[out[i]] {
			if t.IsEpsilon() && !seen[t.To] {
				seen[t.To] = true
				out = append(out, t.To)
			}
		}
	}
	return out
}

// admit reports whether t is new and still under the parallel-edge cap.
func admit(ts []Transition, t Transition) bool {
	key := t.Label.Key()
	parallel := 0
	for _, o := range ts {
		if o.sameAs(t) {
			return false
		}
		if o.To == t.To && o.Label.Key() == key {
			parallel++
		}
	}
	return parallel < maxParallel
}

// alphabetOf collects the labels still in use.
func alphabetOf(trans [][]Transition) *charset.Alphabet {
	alphabet := charset.NewAlphabet()
	for _, ts := range trans {
		for _, t := range ts {
			alphabet.Add(t.Label)
		}
	}
	return alphabet
}
