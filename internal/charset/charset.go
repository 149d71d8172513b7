package charset

import (
	"fmt"
	"strings"
)

// Kind identifies the syntactic form a Spec was built from.
type Kind uint8

const (
	Epsilon Kind = iota // consumes nothing
	Literal             // a single character
	Escape              // \d \D \w \W \s \S
	Class               // [...] or [^...]
	Dot                 // .
)

var kindNames = [...]string{
	Epsilon: "Epsilon",
	Literal: "Literal",
	Escape:  "Escape",
	Class:   "Class",
	Dot:     "Dot",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Spec is a transition label: the set of characters a transition consumes
// together with the spelling it had in the pattern.
type Spec struct {
	Kind Kind
	Text string
	Set  Set
}

// Eps returns the epsilon label.
func Eps() Spec {
	return Spec{Kind: Epsilon}
}

// Lit returns the label for a single literal character.
func Lit(r rune) Spec {
	return Spec{Kind: Literal, Text: string(r), Set: Single(r)}
}

// AnyChar returns the label for '.', which matches everything except line
// terminators.
func AnyChar() Spec {
	return Spec{Kind: Dot, Text: ".", Set: dotSet}
}

// NewClass returns a bracket-class label. The set must already reflect
// negation.
func NewClass(text string, set Set) Spec {
	return Spec{Kind: Class, Text: text, Set: set}
}

// NewEscape returns the label for an escape class such as \d or \S.
func NewEscape(name byte) (Spec, error) {
	set, ok := EscapeSet(name)
	if !ok {
		return Spec{}, fmt.Errorf("unknown escape class \\%c", name)
	}
	return Spec{Kind: Escape, Text: `\` + string(name), Set: set}, nil
}

// IsEpsilon reports whether the label consumes nothing.
func (s Spec) IsEpsilon() bool {
	return s.Kind == Epsilon
}

// Compatible reports whether some character is matched by both labels.
// Epsilon is compatible with nothing.
func (s Spec) Compatible(o Spec) bool {
	if s.IsEpsilon() || o.IsEpsilon() {
		return false
	}
	return s.Set.Intersects(o.Set)
}

// Key identifies the label by the characters it matches, so differently
// spelled but equivalent labels share a key.
func (s Spec) Key() string {
	if s.IsEpsilon() {
		return "ε"
	}
	return s.Set.String()
}

// String returns the label as shown in graph output.
func (s Spec) String() string {
	switch s.Kind {
	case Epsilon:
		return "ε"
	case Dot:
		return "Σ"
	}
	return s.Text
}

var (
	digitSet = NewSet('0', '9')
	wordSet  = NewSet('0', '9', 'A', 'Z', '_', '_', 'a', 'z')
	spaceSet = NewSet(
		'\t', '\r', // \t \n \v \f \r
		' ', ' ',
		0x00A0, 0x00A0,
		0x1680, 0x1680,
		0x2000, 0x200A,
		0x2028, 0x2029,
		0x202F, 0x202F,
		0x205F, 0x205F,
		0x3000, 0x3000,
		0xFEFF, 0xFEFF,
	)
	lineTerminators = NewSet('\n', '\n', '\r', '\r', 0x2028, 0x2029)
	dotSet          = lineTerminators.Negate()
)

// EscapeSet returns the character set of an escape class letter.
func EscapeSet(name byte) (Set, bool) {
	switch name {
	case 'd':
		return digitSet, true
	case 'D':
		return digitSet.Negate(), true
	case 'w':
		return wordSet, true
	case 'W':
		return wordSet.Negate(), true
	case 's':
		return spaceSet, true
	case 'S':
		return spaceSet.Negate(), true
	}
	return nil, false
}

// Alphabet is the ordered set of distinct labels observed while building an
// automaton. Labels are deduplicated by Key.
type Alphabet struct {
	index map[string]int
	specs []Spec
}

// NewAlphabet returns an empty alphabet.
func NewAlphabet() *Alphabet {
	return &Alphabet{index: make(map[string]int)}
}

// Add records a label. Epsilon is never part of the alphabet.
func (a *Alphabet) Add(s Spec) {
	if s.IsEpsilon() {
		return
	}
	key := s.Key()
	if _, ok := a.index[key]; ok {
		return
	}
	a.index[key] = len(a.specs)
	a.specs = append(a.specs, s)
}

// Has reports whether a label with the given key was recorded.
func (a *Alphabet) Has(key string) bool {
	_, ok := a.index[key]
	return ok
}

// Len returns the number of distinct labels.
func (a *Alphabet) Len() int {
	return len(a.specs)
}

// Specs returns the labels in insertion order.
func (a *Alphabet) Specs() []Spec {
	return append([]Spec(nil), a.specs...)
}

func (a *Alphabet) String() string {
	parts := make([]string, len(a.specs))
	for i, s := range a.specs {
		parts[i] = s.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
