package ast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ParseError reports a pattern that could not be parsed.
type ParseError struct {
	Pattern string
	Offset  int
	Msg     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d in %q: %s", e.Offset, e.Pattern, e.Msg)
}

var regexLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "LookBehind", Pattern: `\(\?<[=!]`},
	{Name: "LookAhead", Pattern: `\(\?[=!]`},
	{Name: "NamedOpen", Pattern: `\(\?<[A-Za-z_$][A-Za-z0-9_$]*>`},
	{Name: "GroupOpen", Pattern: `\(\?:`},
	{Name: "Class", Pattern: `\[(?:\\[\s\S]|[^\]\\])*\]`},
	{Name: "Repeat", Pattern: `\{[0-9]+(?:,[0-9]*)?\}`},
	{Name: "Escape", Pattern: `\\(?:u\{[0-9A-Fa-f]+\}|u[0-9A-Fa-f]{4}|x[0-9A-Fa-f]{2}|c[A-Za-z]|k<[A-Za-z_$][A-Za-z0-9_$]*>|[1-9][0-9]*|[\s\S])`},
	{Name: "Punct", Pattern: `[()|*+?.^$]`},
	{Name: "Char", Pattern: `[\s\S]`},
})

// An empty alternative is represented by a nil *alternativeNode.
type disjunctionNode struct {
	Pos   lexer.Position
	First *alternativeNode `parser:"@@?"`
	Rest  []*orNode        `parser:"@@*"`
}

type orNode struct {
	Bar string           `parser:"@'|'"`
	Alt *alternativeNode `parser:"@@?"`
}

type alternativeNode struct {
	Pos   lexer.Position
	Terms []*termNode `parser:"@@+"`
}

type termNode struct {
	Pos        lexer.Position
	Atom       *atomNode       `parser:"@@"`
	Quantifier *quantifierNode `parser:"@@?"`
}

type atomNode struct {
	Pos    lexer.Position
	Group  *groupNode `parser:"  @@"`
	Class  *string    `parser:"| @Class"`
	Escape *string    `parser:"| @Escape"`
	Dot    bool       `parser:"| @'.'"`
	Caret  bool       `parser:"| @'^'"`
	Dollar bool       `parser:"| @'$'"`
	Char   *string    `parser:"| @Char"`
}

type groupNode struct {
	Pos  lexer.Position
	Open string           `parser:"@( LookAhead | LookBehind | NamedOpen | GroupOpen | '(' )"`
	Body *disjunctionNode `parser:"@@? ')'"`
}

type quantifierNode struct {
	Pos  lexer.Position
	Op   string `parser:"@( '*' | '+' | '?' | Repeat )"`
	Lazy bool   `parser:"@'?'?"`
}

var regexParser = participle.MustBuild[disjunctionNode](
	participle.Lexer(regexLexer),
	participle.UseLookahead(2),
)

// Parse parses an ECMAScript-style pattern (without delimiters or flags).
func Parse(pattern string) (*Pattern, error) {
	if !utf8.ValidString(pattern) {
		offset := 0
		for offset < len(pattern) {
			r, size := utf8.DecodeRuneInString(pattern[offset:])
			if r == utf8.RuneError && size <= 1 {
				break
			}
			offset += size
		}
		return nil, &ParseError{Pattern: pattern, Offset: offset, Msg: "invalid UTF-8"}
	}

	tree, err := regexParser.ParseString("", pattern)
	if err != nil {
		perr := &ParseError{Pattern: pattern, Msg: err.Error()}
		var pe participle.Error
		if errors.As(err, &pe) {
			perr.Offset = pe.Position().Offset
			perr.Msg = pe.Message()
		}
		return nil, perr
	}

	l := &lowering{pattern: pattern}
	root, err := l.disjunction(tree)
	if err != nil {
		return nil, err
	}
	return &Pattern{Source: pattern, Root: root}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level pattern tables.
func MustParse(pattern string) *Pattern {
	p, err := Parse(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// lowering turns the participle grammar tree into Nodes.
type lowering struct {
	pattern  string
	captures int
}

func (l *lowering) errorf(pos int, format string, args ...any) error {
	return &ParseError{Pattern: l.pattern, Offset: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *lowering) disjunction(d *disjunctionNode) (*Node, error) {
	if d == nil {
		return &Node{Op: OpSequence}, nil
	}
	branches := []*alternativeNode{d.First}
	for _, or := range d.Rest {
		branches = append(branches, or.Alt)
	}
	alts := make([]*Node, 0, len(branches))
	for _, a := range branches {
		n, err := l.alternative(a)
		if err != nil {
			return nil, err
		}
		alts = append(alts, n)
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return &Node{Op: OpDisjunction, Sub: alts, Pos: d.Pos.Offset}, nil
}

func (l *lowering) alternative(a *alternativeNode) (*Node, error) {
	if a == nil {
		return &Node{Op: OpSequence}, nil
	}
	terms := make([]*Node, 0, len(a.Terms))
	for _, t := range a.Terms {
		n, err := l.term(t)
		if err != nil {
			return nil, err
		}
		terms = append(terms, n)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return &Node{Op: OpSequence, Sub: terms, Pos: a.Pos.Offset}, nil
}

func (l *lowering) term(t *termNode) (*Node, error) {
	atom, err := l.atom(t.Atom)
	if err != nil {
		return nil, err
	}
	q := t.Quantifier
	if q == nil {
		return atom, nil
	}

	n := &Node{Sub: []*Node{atom}, NonGreedy: q.Lazy, Pos: q.Pos.Offset, Raw: q.Op}
	switch q.Op {
	case "*":
		n.Op = OpMany
	case "+":
		n.Op = OpSome
	case "?":
		n.Op = OpOptional
	default:
		n.Op = OpRepeat
		n.Min, n.Max, err = parseBounds(q.Op)
		if err != nil {
			return nil, l.errorf(q.Pos.Offset, "%v", err)
		}
	}
	return n, nil
}

// parseBounds reads {m}, {m,} or {m,n}.
func parseBounds(s string) (lo, hi int, err error) {
	body := strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	minStr, maxStr, hasComma := strings.Cut(body, ",")
	if lo, err = strconv.Atoi(minStr); err != nil {
		return 0, 0, fmt.Errorf("invalid repeat %s", s)
	}
	switch {
	case !hasComma:
		hi = lo
	case maxStr == "":
		hi = -1
	default:
		if hi, err = strconv.Atoi(maxStr); err != nil {
			return 0, 0, fmt.Errorf("invalid repeat %s", s)
		}
		if hi < lo {
			return 0, 0, fmt.Errorf("numbers out of order in %s", s)
		}
	}
	return lo, hi, nil
}

func (l *lowering) atom(a *atomNode) (*Node, error) {
	pos := a.Pos.Offset
	switch {
	case a.Group != nil:
		return l.group(a.Group)
	case a.Class != nil:
		set, err := parseClass(*a.Class)
		if err != nil {
			return nil, l.errorf(pos, "%v", err)
		}
		return &Node{Op: OpClass, Set: set, Raw: *a.Class, Pos: pos}, nil
	case a.Escape != nil:
		return l.escape(*a.Escape, pos)
	case a.Dot:
		return &Node{Op: OpDot, Raw: ".", Pos: pos}, nil
	case a.Caret:
		return &Node{Op: OpLineBegin, Raw: "^", Pos: pos}, nil
	case a.Dollar:
		return &Node{Op: OpLineEnd, Raw: "$", Pos: pos}, nil
	case a.Char != nil:
		r, _ := utf8.DecodeRuneInString(*a.Char)
		if r == '\\' {
			return nil, l.errorf(pos, `\ at end of pattern`)
		}
		return &Node{Op: OpChar, Rune: r, Raw: *a.Char, Pos: pos}, nil
	}
	return nil, l.errorf(pos, "empty atom")
}

func (l *lowering) group(g *groupNode) (*Node, error) {
	n := &Node{Pos: g.Pos.Offset, Raw: g.Open}
	switch {
	case g.Open == "(":
		l.captures++
		n.Op, n.Index = OpCapture, l.captures
	case g.Open == "(?:":
		n.Op = OpGroup
	case g.Open == "(?=" || g.Open == "(?!":
		n.Op, n.Negate = OpLookAhead, g.Open == "(?!"
	case g.Open == "(?<=" || g.Open == "(?<!":
		n.Op, n.Negate = OpLookBehind, g.Open == "(?<!"
	default:
		l.captures++
		n.Op, n.Index = OpNamedCapture, l.captures
		n.Name = strings.TrimSuffix(strings.TrimPrefix(g.Open, "(?<"), ">")
	}
	body, err := l.disjunction(g.Body)
	if err != nil {
		return nil, err
	}
	n.Sub = []*Node{body}
	return n, nil
}

func (l *lowering) escape(raw string, pos int) (*Node, error) {
	body := raw[1:]
	n := &Node{Raw: raw, Pos: pos}
	switch {
	case len(body) == 1 && strings.ContainsRune("dDwWsS", rune(body[0])):
		n.Op, n.Escape = OpEscapeClass, body[0]
	case body == "b" || body == "B":
		n.Op, n.Negate = OpWordBoundary, body == "B"
	case strings.HasPrefix(body, "k<"):
		n.Op, n.Name = OpNamedBackRef, strings.TrimSuffix(body[2:], ">")
	case body[0] >= '1' && body[0] <= '9':
		idx, err := strconv.Atoi(body)
		if err != nil {
			return nil, l.errorf(pos, "invalid back reference %s", raw)
		}
		n.Op, n.Index = OpBackRef, idx
	default:
		r, err := escapedRune(body)
		if err != nil {
			return nil, l.errorf(pos, "%v", err)
		}
		n.Op, n.Rune = OpChar, r
	}
	return n, nil
}

// escapedRune decodes a character escape body (the part after the
// backslash) that denotes exactly one character.
func escapedRune(body string) (rune, error) {
	switch {
	case strings.HasPrefix(body, "u{"):
		v, err := strconv.ParseUint(body[2:len(body)-1], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, fmt.Errorf("invalid unicode escape \\%s", body)
		}
		return rune(v), nil
	case len(body) == 5 && body[0] == 'u', len(body) == 3 && body[0] == 'x':
		v, err := strconv.ParseUint(body[1:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid escape \\%s", body)
		}
		return rune(v), nil
	case len(body) == 2 && body[0] == 'c':
		return rune(body[1] % 32), nil
	}

	r, size := utf8.DecodeRuneInString(body)
	if size != len(body) {
		return 0, fmt.Errorf("invalid escape \\%s", body)
	}
	switch r {
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'v':
		return '\v', nil
	case 'f':
		return '\f', nil
	case '0':
		return 0, nil
	}
	return r, nil
}
