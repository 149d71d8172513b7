// Package ambiguity searches self-product automata for the structures that
// make a backtracking matcher blow up: exponential (EDA) and polynomial
// (IDA) degrees of ambiguity.
package ambiguity

import (
	"fmt"

	"github.com/KromDaniel/redoscan/internal/automaton"
)

// Kind is the degree of ambiguity a witness proves.
type Kind uint8

const (
	// EDA is exponential degree of ambiguity.
	EDA Kind = iota + 1
	// IDA is polynomial (infinite) degree of ambiguity.
	IDA
)

func (k Kind) String() string {
	switch k {
	case EDA:
		return "EDA"
	case IDA:
		return "IDA"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Witness points at the automaton structure that proves ambiguity.
type Witness struct {
	Kind Kind

	// SCC is the component the witness lives in. For IDA it is the
	// component the loop is pumped from and Target the one it reaches.
	SCC    int
	Target int

	// Pair is the product state found on a cycle through the diagonal
	// (EDA). When both components are equal the cycle leaves the
	// diagonal through parallel transitions.
	Pair [2]automaton.StateID

	// Triple is the start (p, p, q) of a path to (p, q, q) (IDA).
	Triple [3]automaton.StateID
}

func (w *Witness) String() string {
	switch w.Kind {
	case EDA:
		return fmt.Sprintf("EDA in SCC %d: pair (q%d, q%d) lies on a cycle through the diagonal",
			w.SCC, w.Pair[0], w.Pair[1])
	case IDA:
		return fmt.Sprintf("IDA from SCC %d to SCC %d: (q%d, q%d, q%d) reaches (q%d, q%d, q%d)",
			w.SCC, w.Target,
			w.Triple[0], w.Triple[1], w.Triple[2],
			w.Triple[0], w.Triple[2], w.Triple[2])
	}
	return "no ambiguity"
}

// LimitError is returned when a product automaton grows past the
// configured ceiling.
type LimitError struct {
	Stage string
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s exceeded %d states", e.Stage, e.Limit)
}
