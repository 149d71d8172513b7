package automaton

import "fmt"

// UnsupportedConstructError is returned when the pattern contains a node
// the automaton model cannot represent.
type UnsupportedConstructError struct {
	Construct string
	Pos       int
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("unsupported construct %s at offset %d", e.Construct, e.Pos)
}

// InternalInvariantError reports a broken automaton invariant. It always
// indicates a bug.
type InternalInvariantError struct {
	Msg string
}

func (e *InternalInvariantError) Error() string {
	return "internal invariant violated: " + e.Msg
}
