package automaton

import (
	"cmp"
	"slices"
)

// SCC is a strongly connected component together with the transitions
// whose endpoints both lie inside it.
type SCC struct {
	ID      int
	Members []StateID

	// Transitions holds the induced edges per member, in the order they
	// appear on the source state.
	Transitions map[StateID][]Transition

	member map[StateID]bool
}

// Contains reports whether q belongs to the component.
func (c *SCC) Contains(q StateID) bool {
	return c.member[q]
}

// Out returns the induced transitions leaving q.
func (c *SCC) Out(q StateID) []Transition {
	return c.Transitions[q]
}

// Cyclic reports whether the component contains a cycle. Singletons are
// cyclic only with a self-loop.
func (c *SCC) Cyclic() bool {
	if len(c.Members) > 1 {
		return true
	}
	for _, ts := range c.Transitions {
		if len(ts) > 0 {
			return true
		}
	}
	return false
}

// Decomposition partitions an NFA's states into SCCs.
type Decomposition struct {
	// Components are ordered by their smallest member.
	Components []*SCC
	// Of maps each state to the index of its component.
	Of []int
}

// Component returns the component q belongs to.
func (d *Decomposition) Component(q StateID) *SCC {
	return d.Components[d.Of[q]]
}

// Decompose computes the SCCs of the graph of consuming transitions.
func Decompose(nfa *NFA) *Decomposition {
	n := nfa.NumStates()
	adj := make([][]int, n)
	for q, ts := range nfa.Transitions {
		for _, t := range ts {
			adj[q] = append(adj[q], int(t.To))
		}
	}

	groups := StronglyConnected(adj)
	d := &Decomposition{
		Components: make([]*SCC, len(groups)),
		Of:         make([]int, n),
	}
	for i, group := range groups {
		c := &SCC{
			ID:          i,
			Members:     make([]StateID, len(group)),
			Transitions: make(map[StateID][]Transition, len(group)),
			member:      make(map[StateID]bool, len(group)),
		}
		for j, v := range group {
			c.Members[j] = StateID(v)
			c.member[StateID(v)] = true
			d.Of[v] = i
		}
		d.Components[i] = c
	}

	for _, c := range d.Components {
		for _, q := range c.Members {
			for _, t := range nfa.Transitions[q] {
				if c.member[t.To] {
					c.Transitions[q] = append(c.Transitions[q], t)
				}
			}
		}
	}
	return d
}

// StronglyConnected returns the strongly connected components of the graph
// given as adjacency lists, using an iterative Tarjan walk. Each component
// is sorted and components are ordered by their smallest vertex.
func StronglyConnected(adj [][]int) [][]int {
	n := len(adj)
	index := make([]int, n) // 0 means unvisited
	low := make([]int, n)
	onStack := make([]bool, n)
	var stack []int
	var comps [][]int
	counter := 0

	type frame struct {
		v    int
		edge int
	}

	visit := func(v int) {
		counter++
		index[v], low[v] = counter, counter
		stack = append(stack, v)
		onStack[v] = true
	}

	for root := 0; root < n; root++ {
		if index[root] != 0 {
			continue
		}
		visit(root)
		call := []frame{{v: root}}

		for len(call) > 0 {
			top := &call[len(call)-1]
			v := top.v
			if top.edge < len(adj[v]) {
				w := adj[v][top.edge]
				top.edge++
				if index[w] == 0 {
					visit(w)
					call = append(call, frame{v: w})
				} else if onStack[w] {
					low[v] = min(low[v], index[w])
				}
				continue
			}

			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := call[len(call)-1].v
				low[parent] = min(low[parent], low[v])
			}
			if low[v] != index[v] {
				continue
			}
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			slices.Sort(comp)
			comps = append(comps, comp)
		}
	}

	slices.SortFunc(comps, func(a, b []int) int {
		return cmp.Compare(a[0], b[0])
	})
	return comps
}
