package automaton

import (
	"github.com/KromDaniel/redoscan/internal/ast"
	"github.com/KromDaniel/redoscan/internal/charset"
)

// Builder performs Thompson's construction over a syntax tree.
// Every fragment has exactly one entry and one exit state, which keeps the
// resulting epsilon-NFA at a single initial and a single accepting state.
type Builder struct {
	transitions [][]Transition
	alphabet    *charset.Alphabet
}

// fragment is a partially built automaton.
type fragment struct {
	initial   StateID
	accepting StateID
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build constructs the epsilon-NFA of p using a fresh Builder.
func Build(p *ast.Pattern) (*EpsilonNFA, error) {
	return NewBuilder().Build(p)
}

// Build constructs the epsilon-NFA of p. On error no automaton is returned.
func (b *Builder) Build(p *ast.Pattern) (*EpsilonNFA, error) {
	b.transitions = nil
	b.alphabet = charset.NewAlphabet()

	if p == nil || p.Root == nil {
		return nil, &InternalInvariantError{Msg: "pattern has no syntax tree"}
	}
	frag, err := b.build(p.Root)
	if err != nil {
		return nil, err
	}
	return &EpsilonNFA{
		Initial:     frag.initial,
		Accepting:   frag.accepting,
		Transitions: b.transitions,
		Alphabet:    b.alphabet,
	}, nil
}

func (b *Builder) build(n *ast.Node) (fragment, error) {
	switch n.Op {
	case ast.OpChar, ast.OpEscapeClass, ast.OpClass, ast.OpDot:
		spec, err := n.Spec()
		if err != nil {
			return fragment{}, err
		}
		q0 := b.newState()
		f0 := b.newState()
		b.addTransition(q0, spec, f0)
		return fragment{q0, f0}, nil

	case ast.OpDisjunction:
		q0 := b.newState()
		children := make([]fragment, 0, len(n.Sub))
		for _, sub := range n.Sub {
			child, err := b.build(sub)
			if err != nil {
				return fragment{}, err
			}
			children = append(children, child)
		}
		f0 := b.newState()
		for _, child := range children {
			b.addTransition(q0, charset.Eps(), child.initial)
			b.addTransition(child.accepting, charset.Eps(), f0)
		}
		return fragment{q0, f0}, nil

	case ast.OpSequence:
		if len(n.Sub) == 0 {
			q0 := b.newState()
			f0 := b.newState()
			b.addTransition(q0, charset.Eps(), f0)
			return fragment{q0, f0}, nil
		}
		children := make([]fragment, 0, len(n.Sub))
		for _, sub := range n.Sub {
			child, err := b.build(sub)
			if err != nil {
				return fragment{}, err
			}
			children = append(children, child)
		}
		for i := 0; i < len(children)-1; i++ {
			b.addTransition(children[i].accepting, charset.Eps(), children[i+1].initial)
		}
		return fragment{children[0].initial, children[len(children)-1].accepting}, nil

	case ast.OpCapture, ast.OpNamedCapture, ast.OpGroup:
		if len(n.Sub) != 1 {
			return fragment{}, &InternalInvariantError{Msg: n.Op.String() + " without a body"}
		}
		return b.build(n.Sub[0])

	case ast.OpMany:
		if len(n.Sub) != 1 {
			return fragment{}, &InternalInvariantError{Msg: "Many without a body"}
		}
		q0 := b.newState()
		child, err := b.build(n.Sub[0])
		if err != nil {
			return fragment{}, err
		}
		f0 := b.newState()
		// Edge order encodes match priority: the loop comes first unless
		// the quantifier is lazy.
		if n.NonGreedy {
			b.addTransition(q0, charset.Eps(), f0)
			b.addTransition(q0, charset.Eps(), child.initial)
			b.addTransition(child.accepting, charset.Eps(), f0)
			b.addTransition(child.accepting, charset.Eps(), child.initial)
		} else {
			b.addTransition(q0, charset.Eps(), child.initial)
			b.addTransition(q0, charset.Eps(), f0)
			b.addTransition(child.accepting, charset.Eps(), child.initial)
			b.addTransition(child.accepting, charset.Eps(), f0)
		}
		return fragment{q0, f0}, nil
	}

	return fragment{}, &UnsupportedConstructError{Construct: n.Op.String(), Pos: n.Pos}
}

func (b *Builder) newState() StateID {
	b.transitions = append(b.transitions, nil)
	return StateID(len(b.transitions) - 1)
}

func (b *Builder) addTransition(from StateID, label charset.Spec, to StateID) {
	b.transitions[from] = append(b.transitions[from], Transition{Label: label, To: to})
	b.alphabet.Add(label)
}
