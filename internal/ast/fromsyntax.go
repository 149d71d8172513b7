package ast

import (
	"fmt"
	"regexp/syntax"
	"unicode"

	"github.com/KromDaniel/redoscan/internal/charset"
)

// ParseRE2 parses a pattern with Go's regexp/syntax (Perl flags, no
// simplification) and converts the result. Note that regexp/syntax already
// factors alternations while parsing, so a|a arrives as a single literal.
func ParseRE2(pattern string) (*Pattern, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, &ParseError{Pattern: pattern, Msg: err.Error()}
	}
	root, err := FromSyntax(re)
	if err != nil {
		return nil, err
	}
	return &Pattern{Source: pattern, Root: root}, nil
}

// FromSyntax converts a regexp/syntax tree into a Node tree.
func FromSyntax(re *syntax.Regexp) (*Node, error) {
	n := &Node{Raw: re.String()}
	switch re.Op {
	case syntax.OpNoMatch:
		n.Op = OpClass
	case syntax.OpEmptyMatch:
		n.Op = OpSequence
	case syntax.OpLiteral:
		return literalSequence(re), nil
	case syntax.OpCharClass:
		n.Op, n.Set = OpClass, charset.NewSet(re.Rune...)
	case syntax.OpAnyCharNotNL:
		n.Op = OpDot
	case syntax.OpAnyChar:
		n.Op, n.Set = OpClass, charset.All()
	case syntax.OpBeginLine, syntax.OpBeginText:
		n.Op = OpLineBegin
	case syntax.OpEndLine, syntax.OpEndText:
		n.Op = OpLineEnd
	case syntax.OpWordBoundary:
		n.Op = OpWordBoundary
	case syntax.OpNoWordBoundary:
		n.Op, n.Negate = OpWordBoundary, true
	case syntax.OpCapture:
		n.Op, n.Index = OpCapture, re.Cap
		if re.Name != "" {
			n.Op, n.Name = OpNamedCapture, re.Name
		}
	case syntax.OpStar:
		n.Op = OpMany
	case syntax.OpPlus:
		n.Op = OpSome
	case syntax.OpQuest:
		n.Op = OpOptional
	case syntax.OpRepeat:
		n.Op, n.Min, n.Max = OpRepeat, re.Min, re.Max
	case syntax.OpConcat:
		n.Op = OpSequence
	case syntax.OpAlternate:
		n.Op = OpDisjunction
	default:
		return nil, fmt.Errorf("unknown regexp/syntax op %v", re.Op)
	}
	n.NonGreedy = re.Flags&syntax.NonGreedy != 0

	for _, sub := range re.Sub {
		child, err := FromSyntax(sub)
		if err != nil {
			return nil, err
		}
		n.Sub = append(n.Sub, child)
	}
	return n, nil
}

// literalSequence expands an OpLiteral into one leaf per rune. Case-folded
// runes become classes over their fold orbit.
func literalSequence(re *syntax.Regexp) *Node {
	leaves := make([]*Node, 0, len(re.Rune))
	for _, r := range re.Rune {
		if re.Flags&syntax.FoldCase == 0 {
			leaves = append(leaves, &Node{Op: OpChar, Rune: r, Raw: string(r)})
			continue
		}
		pairs := []rune{r, r}
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			pairs = append(pairs, f, f)
		}
		leaves = append(leaves, &Node{Op: OpClass, Set: charset.NewSet(pairs...), Raw: "(?i:" + string(r) + ")"})
	}
	if len(leaves) == 1 {
		return leaves[0]
	}
	return &Node{Op: OpSequence, Sub: leaves, Raw: re.String()}
}
