// Package ast defines the regex syntax tree consumed by the automaton
// builder, and the front ends that produce it.
package ast

import (
	"fmt"
	"strings"

	"github.com/KromDaniel/redoscan/internal/charset"
)

// Op is the kind of a syntax tree node.
type Op uint8

const (
	OpDisjunction Op = iota + 1 // Sub[0] | Sub[1] | ...
	OpSequence                  // Sub[0] Sub[1] ...
	OpCapture                   // (Sub[0])
	OpNamedCapture              // (?<Name>Sub[0])
	OpGroup                     // (?:Sub[0])
	OpMany                      // Sub[0]*
	OpChar                      // Rune
	OpEscapeClass               // \d \w \s and their negations
	OpClass                     // [...] with Set already negated if needed
	OpDot                       // .
	OpSome                      // Sub[0]+
	OpOptional                  // Sub[0]?
	OpRepeat                    // Sub[0]{Min,Max}
	OpWordBoundary              // \b, or \B when Negate
	OpLineBegin                 // ^
	OpLineEnd                   // $
	OpLookAhead                 // (?=Sub[0]) or (?!Sub[0])
	OpLookBehind                // (?<=Sub[0]) or (?<!Sub[0])
	OpBackRef                   // \Index
	OpNamedBackRef              // \k<Name>
)

var opNames = map[Op]string{
	OpDisjunction:  "Disjunction",
	OpSequence:     "Sequence",
	OpCapture:      "Capture",
	OpNamedCapture: "NamedCapture",
	OpGroup:        "Group",
	OpMany:         "Many",
	OpChar:         "Char",
	OpEscapeClass:  "EscapeClass",
	OpClass:        "Class",
	OpDot:          "Dot",
	OpSome:         "Some",
	OpOptional:     "Optional",
	OpRepeat:       "Repeat",
	OpWordBoundary: "WordBoundary",
	OpLineBegin:    "LineBegin",
	OpLineEnd:      "LineEnd",
	OpLookAhead:    "LookAhead",
	OpLookBehind:   "LookBehind",
	OpBackRef:      "BackRef",
	OpNamedBackRef: "NamedBackRef",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", op)
}

// Node is a syntax tree node. Which fields are meaningful depends on Op.
type Node struct {
	Op        Op
	Sub       []*Node
	NonGreedy bool        // Many, Some, Optional, Repeat
	Negate    bool        // WordBoundary (\B), LookAhead/LookBehind (negative)
	Name      string      // NamedCapture, NamedBackRef
	Index     int         // Capture group number, BackRef target
	Min, Max  int         // Repeat; Max is -1 when unbounded
	Rune      rune        // Char
	Escape    byte        // EscapeClass letter
	Set       charset.Set // Class
	Raw       string      // source spelling of leaves
	Pos       int         // byte offset in the pattern
}

// Pattern is a parsed regular expression.
type Pattern struct {
	Source string
	Root   *Node
}

// Spec returns the transition label for a leaf node.
func (n *Node) Spec() (charset.Spec, error) {
	switch n.Op {
	case OpChar:
		return charset.Lit(n.Rune), nil
	case OpEscapeClass:
		return charset.NewEscape(n.Escape)
	case OpClass:
		return charset.NewClass(n.Raw, n.Set), nil
	case OpDot:
		return charset.AnyChar(), nil
	}
	return charset.Spec{}, fmt.Errorf("%s is not a leaf", n.Op)
}

// String renders the tree in a compact prefix form used by tests and
// verbose logging.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	switch n.Op {
	case OpChar:
		fmt.Fprintf(b, "Char(%q)", n.Rune)
		return
	case OpEscapeClass:
		fmt.Fprintf(b, `EscapeClass(\%c)`, n.Escape)
		return
	case OpClass:
		fmt.Fprintf(b, "Class(%s)", n.Set)
		return
	case OpDot, OpLineBegin, OpLineEnd, OpWordBoundary:
		b.WriteString(n.Op.String())
		return
	case OpBackRef:
		fmt.Fprintf(b, "BackRef(%d)", n.Index)
		return
	case OpNamedBackRef:
		fmt.Fprintf(b, "NamedBackRef(%s)", n.Name)
		return
	}
	b.WriteString(n.Op.String())
	if n.NonGreedy {
		b.WriteString("?")
	}
	if n.Op == OpRepeat {
		fmt.Fprintf(b, "{%d,%d}", n.Min, n.Max)
	}
	b.WriteByte('(')
	for i, sub := range n.Sub {
		if i > 0 {
			b.WriteString(", ")
		}
		sub.write(b)
	}
	b.WriteByte(')')
}
