package automaton

import (
	"bufio"
	"fmt"
	"io"
)

// WriteDOT dumps g to w as dot(1)-compatible text. Accepting states are
// double circles, and every initial state gets a point-shaped entry node.
// Graphs that implement StateLabel(StateID) string get labelled nodes.
func WriteDOT(w io.Writer, g Graph) error {
	labeler, _ := g.(interface{ StateLabel(StateID) string })

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph G {\n")
	for q := StateID(0); int(q) < g.NumStates(); q++ {
		shape := "circle"
		if g.IsAccepting(q) {
			shape = "doublecircle"
		}
		if labeler != nil {
			fmt.Fprintf(bw, "    q%d [shape = %s, label = %q];\n", q, shape, labeler.StateLabel(q))
		} else {
			fmt.Fprintf(bw, "    q%d [shape = %s];\n", q, shape)
		}
	}
	for _, q := range g.InitialStates() {
		fmt.Fprintf(bw, "    q%d_init [shape = point];\n", q)
		fmt.Fprintf(bw, "    q%d_init -> q%d;\n", q, q)
	}
	for q := StateID(0); int(q) < g.NumStates(); q++ {
		for _, t := range g.Out(q) {
			fmt.Fprintf(bw, "    q%d -> q%d [label = %q];\n", q, t.To, t.Label.String())
		}
	}
	fmt.Fprintf(bw, "}\n")
	return bw.Flush()
}
