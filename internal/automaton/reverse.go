package automaton

import (
	"slices"
	"strconv"
	"strings"

	"github.com/KromDaniel/redoscan/internal/charset"
)

// DFA is the subset automaton of reverse reachability: macro-state Q moves
// on σ to the set of NFA states with a σ-transition into Q. Reading a word
// backwards from the initial macro-state therefore yields the states from
// which the word is accepted.
type DFA struct {
	// States holds the member NFA states of each macro-state, sorted.
	States  [][]StateID
	Initial int

	// Transitions maps macro-state and symbol key to the next macro-state.
	Transitions []map[string]int
	Symbols     []charset.Spec

	member []map[StateID]bool
}

// Has reports whether NFA state q belongs to macro-state m.
func (d *DFA) Has(m int, q StateID) bool {
	return d.member[m][q]
}

// NumStates returns the number of macro-states.
func (d *DFA) NumStates() int {
	return len(d.States)
}

// ReverseDFA builds the reverse-reachability DFA of nfa. Symbols are the
// NFA's labels keyed by character set. The empty macro-state is always
// present: it stands for a remaining input that no state accepts, and every
// symbol leads from it back to itself.
func ReverseDFA(nfa *NFA) *DFA {
	symbols := nfa.Alphabet.Specs()

	// pre[key][q] lists the sources of key-labelled transitions into q.
	pre := make(map[string][][]StateID, len(symbols))
	for _, s := range symbols {
		pre[s.Key()] = make([][]StateID, nfa.NumStates())
	}
	for q, ts := range nfa.Transitions {
		for _, t := range ts {
			into := pre[t.Label.Key()]
			if into == nil {
				continue
			}
			into[t.To] = append(into[t.To], StateID(q))
		}
	}

	d := &DFA{Symbols: symbols}
	index := make(map[string]int)
	add := func(members []StateID) int {
		key := macroKey(members)
		if id, ok := index[key]; ok {
			return id
		}
		id := len(d.States)
		index[key] = id
		set := make(map[StateID]bool, len(members))
		for _, q := range members {
			set[q] = true
		}
		d.States = append(d.States, members)
		d.Transitions = append(d.Transitions, make(map[string]int))
		d.member = append(d.member, set)
		return id
	}

	d.Initial = add(nfa.AcceptingStates())
	add(nil)
	for m := 0; m < len(d.States); m++ {
		for _, s := range symbols {
			key := s.Key()
			seen := make(map[StateID]bool)
			var next []StateID
			for _, q := range d.States[m] {
				for _, p := range pre[key][q] {
					if !seen[p] {
						seen[p] = true
						next = append(next, p)
					}
				}
			}
			slices.Sort(next)
			d.Transitions[m][key] = add(next)
		}
	}
	return d
}

func macroKey(members []StateID) string {
	var b strings.Builder
	for i, q := range members {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(q)))
	}
	return b.String()
}
