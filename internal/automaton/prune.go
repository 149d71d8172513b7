package automaton

import (
	"fmt"
	"slices"
)

// PairState is a state of the pruned automaton: an NFA state combined with
// the reverse-DFA macro-state that the rest of the input must lead to.
type PairState struct {
	State StateID
	Macro int
}

// PrunedNFA is an NFA over pair states. Pairs maps each state back to the
// NFA state and macro-state it was built from.
type PrunedNFA struct {
	*NFA
	Pairs []PairState
}

// StateLabel names q after its pair in graph output.
func (p *PrunedNFA) StateLabel(q StateID) string {
	pair := p.Pairs[q]
	return fmt.Sprintf("(q%d, Q%d)", pair.State, pair.Macro)
}

// Prune builds the product of nfa with its reverse-reachability DFA and
// keeps only what is reachable from the initial pairs.
//
// For a transition group q1 -σ-> qs (in the NFA's order) and a DFA edge
// Q2 -σ-> Q1, the pair (q1, Q1) moves to (qs[i], Q2) for every i up to and
// including the first qs[i] that belongs to Q2, plus the later edges that are
// parallel to that one: a backtracking matcher never tries other
// alternatives once an earlier one can still succeed. Under the empty
// macro-state nothing belongs to Q2, so failing inputs keep every
// alternative and the pruned automaton keeps every ambiguity of nfa.
func Prune(nfa *NFA, dfa *DFA) *PrunedNFA {
	// into[Q1][σ] lists the macro-states Q2 with Q2 -σ-> Q1.
	into := make([]map[string][]int, dfa.NumStates())
	for m := range into {
		into[m] = make(map[string][]int)
	}
	for from, edges := range dfa.Transitions {
		for key, to := range edges {
			into[to][key] = append(into[to][key], from)
		}
	}
	for m := range into {
		for key := range into[m] {
			slices.Sort(into[m][key])
		}
	}

	// groups[q] keeps q's transitions bucketed by label key, buckets in
	// first-seen order.
	type group struct {
		key string
		ts  []Transition
	}
	groups := make([][]group, nfa.NumStates())
	for q, ts := range nfa.Transitions {
		pos := make(map[string]int)
		for _, t := range ts {
			key := t.Label.Key()
			i, ok := pos[key]
			if !ok {
				i = len(groups[q])
				pos[key] = i
				groups[q] = append(groups[q], group{key: key})
			}
			groups[q][i].ts = append(groups[q][i].ts, t)
		}
	}

	p := &PrunedNFA{NFA: &NFA{}}
	ids := make(map[PairState]StateID)
	var queue []StateID
	state := func(pair PairState) StateID {
		if id, ok := ids[pair]; ok {
			return id
		}
		id := StateID(len(p.Pairs))
		ids[pair] = id
		p.Pairs = append(p.Pairs, pair)
		p.Transitions = append(p.Transitions, nil)
		p.Accepting = append(p.Accepting, pair.Macro == dfa.Initial && nfa.IsAccepting(pair.State))
		queue = append(queue, id)
		return id
	}

	for _, q0 := range nfa.Initial {
		for m := range dfa.States {
			p.Initial = append(p.Initial, state(PairState{State: q0, Macro: m}))
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		pair := p.Pairs[id]
		for _, g := range groups[pair.State] {
			for _, q2 := range into[pair.Macro][g.key] {
				hit := StateID(-1)
				for _, t := range g.ts {
					if hit >= 0 && t.To != hit {
						continue
					}
					to := state(PairState{State: t.To, Macro: q2})
					p.Transitions[id] = append(p.Transitions[id], Transition{Label: t.Label, To: to, Via: t.Via})
					if hit < 0 && dfa.Has(q2, t.To) {
						hit = t.To
					}
				}
			}
		}
	}

	p.Alphabet = alphabetOf(p.Transitions)
	return p
}
