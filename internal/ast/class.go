package ast

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KromDaniel/redoscan/internal/charset"
)

// classItem is one element of a bracket class: either a single character
// or a whole set contributed by an escape class.
type classItem struct {
	r     rune
	set   charset.Set
	isSet bool
}

// parseClass converts a bracket expression such as "[^a-z\d_]" into its
// (already negated) character set.
func parseClass(raw string) (charset.Set, error) {
	body := raw[1 : len(raw)-1]
	negate := strings.HasPrefix(body, "^")
	if negate {
		body = body[1:]
	}

	var pairs []rune
	for body != "" {
		lo, rest, err := nextClassItem(body)
		if err != nil {
			return nil, err
		}
		body = rest

		// range a-b, unless '-' is last or either bound is a set
		if strings.HasPrefix(body, "-") && len(body) > 1 && !lo.isSet {
			hi, after, err := nextClassItem(body[1:])
			if err != nil {
				return nil, err
			}
			if !hi.isSet {
				if hi.r < lo.r {
					return nil, fmt.Errorf("range out of order in character class %s", raw)
				}
				pairs = append(pairs, lo.r, hi.r)
				body = after
				continue
			}
		}
		if lo.isSet {
			pairs = append(pairs, lo.set...)
		} else {
			pairs = append(pairs, lo.r, lo.r)
		}
	}

	set := charset.NewSet(pairs...)
	if negate {
		set = set.Negate()
	}
	return set, nil
}

func nextClassItem(s string) (classItem, string, error) {
	if s[0] != '\\' {
		r, size := utf8.DecodeRuneInString(s)
		return classItem{r: r}, s[size:], nil
	}
	if len(s) < 2 {
		return classItem{}, "", fmt.Errorf(`\ at end of character class`)
	}

	c := s[1]
	if set, ok := charset.EscapeSet(c); ok {
		return classItem{set: set, isSet: true}, s[2:], nil
	}
	if c == 'b' {
		return classItem{r: '\b'}, s[2:], nil
	}

	n := escapeLen(s)
	r, err := escapedRune(s[1:n])
	if err != nil {
		return classItem{}, "", err
	}
	return classItem{r: r}, s[n:], nil
}

// escapeLen returns the byte length of the character escape at the start
// of s, backslash included.
func escapeLen(s string) int {
	isHex := func(b byte) bool {
		return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
	}
	hexRun := func(from, n int) bool {
		if len(s) < from+n {
			return false
		}
		for i := from; i < from+n; i++ {
			if !isHex(s[i]) {
				return false
			}
		}
		return true
	}

	switch s[1] {
	case 'u':
		if len(s) > 2 && s[2] == '{' {
			if end := strings.IndexByte(s, '}'); end > 3 && hexRun(3, end-3) {
				return end + 1
			}
		}
		if hexRun(2, 4) {
			return 6
		}
	case 'x':
		if hexRun(2, 2) {
			return 4
		}
	case 'c':
		if len(s) > 2 && ((s[2] >= 'a' && s[2] <= 'z') || (s[2] >= 'A' && s[2] <= 'Z')) {
			return 3
		}
	}
	_, size := utf8.DecodeRuneInString(s[1:])
	return 1 + size
}
