package ambiguity

import (
	"github.com/KromDaniel/redoscan/internal/automaton"
)

// Triple is a state of the triple product.
type Triple [3]automaton.StateID

// FindIDA looks for polynomial ambiguity pumped from the component c.
//
// For every other cyclic component d reachable from c and every p in c,
// q in d, it searches the triple product from (p, p, q) for (p, q, q). The
// first copy stays inside c and the third inside d, while the second may
// use any transition in the region between them. Reaching the target means
// a word loops on p, moves from p to q and loops on q, so the split point
// between the two loops can be chosen in polynomially many ways.
//
// A limit of zero or less disables the state ceiling. It applies to each
// search separately.
func FindIDA(nfa *automaton.NFA, d *automaton.Decomposition, c *automaton.SCC, limit int) (*Witness, error) {
	if !c.Cyclic() {
		return nil, nil
	}

	forward := reach(nfa.NumStates(), c.Members, func(q automaton.StateID) []automaton.StateID {
		return targets(nfa.Out(q))
	})
	reverse := make([][]automaton.StateID, nfa.NumStates())
	for q, ts := range nfa.Transitions {
		for _, t := range ts {
			reverse[t.To] = append(reverse[t.To], automaton.StateID(q))
		}
	}

	for _, target := range d.Components {
		if target.ID == c.ID || !target.Cyclic() || !forward[target.Members[0]] {
			continue
		}
		backward := reach(nfa.NumStates(), target.Members, func(q automaton.StateID) []automaton.StateID {
			return reverse[q]
		})
		region := make([]bool, nfa.NumStates())
		for q := range region {
			region[q] = forward[q] && backward[q]
		}

		for _, p := range c.Members {
			for _, q := range target.Members {
				found, err := searchTriple(nfa, c, target, region, Triple{p, p, q}, Triple{p, q, q}, limit)
				if err != nil {
					return nil, err
				}
				if found {
					return &Witness{Kind: IDA, SCC: c.ID, Target: target.ID, Triple: Triple{p, p, q}}, nil
				}
			}
		}
	}
	return nil, nil
}

// searchTriple runs a breadth-first search over the triple product from
// start and reports whether goal is reached by a non-empty path.
func searchTriple(nfa *automaton.NFA, c, d *automaton.SCC, region []bool, start, goal Triple, limit int) (bool, error) {
	seen := map[Triple]bool{start: true}
	queue := []Triple{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, a := range c.Out(cur[0]) {
			for _, b := range nfa.Out(cur[1]) {
				if !region[b.To] {
					continue
				}
				common := a.Label.Set.Intersect(b.Label.Set)
				if common.IsEmpty() {
					continue
				}
				for _, e := range d.Out(cur[2]) {
					if !common.Intersects(e.Label.Set) {
						continue
					}
					next := Triple{a.To, b.To, e.To}
					if next == goal {
						return true, nil
					}
					if seen[next] {
						continue
					}
					if limit > 0 && len(seen) >= limit {
						return false, &LimitError{Stage: "triple product", Limit: limit}
					}
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
	}
	return false, nil
}

func reach(n int, from []automaton.StateID, next func(automaton.StateID) []automaton.StateID) []bool {
	seen := make([]bool, n)
	stack := append([]automaton.StateID(nil), from...)
	for _, q := range from {
		seen[q] = true
	}
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, r := range next(q) {
			if !seen[r] {
				seen[r] = true
				stack = append(stack, r)
			}
		}
	}
	return seen
}

func targets(ts []automaton.Transition) []automaton.StateID {
	out := make([]automaton.StateID, len(ts))
	for i, t := range ts {
		out[i] = t.To
	}
	return out
}
