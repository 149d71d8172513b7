package ambiguity

import (
	"github.com/KromDaniel/redoscan/internal/automaton"
)

// Pair is a state of the pair product.
type Pair [2]automaton.StateID

// Diagonal reports whether both components are the same state.
func (p Pair) Diagonal() bool {
	return p[0] == p[1]
}

// PairEdge is a product transition. It is divergent when it leaves a
// diagonal state through two different transitions of the component.
type PairEdge struct {
	To        int
	Divergent bool
}

// PairGraph is the self-product of one SCC, restricted to what is
// reachable from the diagonal.
type PairGraph struct {
	SCC    *automaton.SCC
	States []Pair
	Edges  [][]PairEdge

	index map[Pair]int
}

// BuildPairGraph builds the pair product of scc. A product edge exists when
// the two component transitions have intersecting labels. A limit of zero
// or less disables the state ceiling.
func BuildPairGraph(scc *automaton.SCC, limit int) (*PairGraph, error) {
	g := &PairGraph{SCC: scc, index: make(map[Pair]int)}
	var queue []int
	add := func(p Pair) (int, error) {
		if id, ok := g.index[p]; ok {
			return id, nil
		}
		if limit > 0 && len(g.States) >= limit {
			return 0, &LimitError{Stage: "pair product", Limit: limit}
		}
		id := len(g.States)
		g.index[p] = id
		g.States = append(g.States, p)
		g.Edges = append(g.Edges, nil)
		queue = append(queue, id)
		return id, nil
	}

	for _, q := range scc.Members {
		if _, err := add(Pair{q, q}); err != nil {
			return nil, err
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		p := g.States[id]
		left, right := scc.Out(p[0]), scc.Out(p[1])
		for i, a := range left {
			for j, b := range right {
				if !a.Label.Compatible(b.Label) {
					continue
				}
				to, err := add(Pair{a.To, b.To})
				if err != nil {
					return nil, err
				}
				g.Edges[id] = append(g.Edges[id], PairEdge{
					To:        to,
					Divergent: p.Diagonal() && i != j,
				})
			}
		}
	}
	return g, nil
}

// FindWitness looks for a product SCC that contains a diagonal state and
// either a non-diagonal state or a divergent edge. Either means two
// distinct paths through the component read the same word and return to
// the same state.
func (g *PairGraph) FindWitness() (*Witness, bool) {
	adj := make([][]int, len(g.States))
	for id, edges := range g.Edges {
		for _, e := range edges {
			adj[id] = append(adj[id], e.To)
		}
	}

	comp := make([]int, len(g.States))
	groups := automaton.StronglyConnected(adj)
	for i, group := range groups {
		for _, id := range group {
			comp[id] = i
		}
	}

	for i, group := range groups {
		hasDiagonal := false
		for _, id := range group {
			if g.States[id].Diagonal() {
				hasDiagonal = true
				break
			}
		}
		if !hasDiagonal {
			continue
		}

		for _, id := range group {
			if !g.States[id].Diagonal() {
				return g.witness(g.States[id]), true
			}
		}
		for _, id := range group {
			for _, e := range g.Edges[id] {
				if e.Divergent && comp[e.To] == i {
					return g.witness(g.States[id]), true
				}
			}
		}
	}
	return nil, false
}

func (g *PairGraph) witness(p Pair) *Witness {
	return &Witness{Kind: EDA, SCC: g.SCC.ID, Target: g.SCC.ID, Pair: p}
}

// FindEDA builds the pair product of scc and checks it for an EDA witness.
// It returns nil when the component is unambiguous.
func FindEDA(scc *automaton.SCC, limit int) (*Witness, error) {
	if !scc.Cyclic() {
		return nil, nil
	}
	g, err := BuildPairGraph(scc, limit)
	if err != nil {
		return nil, err
	}
	w, _ := g.FindWitness()
	return w, nil
}
