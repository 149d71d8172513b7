// Package charset models the character predicates that label automaton
// transitions and decides when two of them can match the same character.
package charset

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Set is a normalized list of inclusive rune ranges stored as lo,hi pairs,
// the same layout regexp/syntax uses for OpCharClass. Ranges are sorted,
// non-overlapping and non-adjacent.
type Set []rune

// NewSet builds a normalized set from lo,hi pairs in any order.
// A trailing unpaired rune is treated as a single-rune range.
func NewSet(pairs ...rune) Set {
	if len(pairs)%2 == 1 {
		pairs = append(pairs, pairs[len(pairs)-1])
	}
	type span struct{ lo, hi rune }
	spans := make([]span, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		lo, hi := pairs[i], pairs[i+1]
		if lo > hi {
			lo, hi = hi, lo
		}
		spans = append(spans, span{lo, hi})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })

	out := make(Set, 0, len(pairs))
	for _, sp := range spans {
		n := len(out)
		if n > 0 && sp.lo <= out[n-1]+1 {
			if sp.hi > out[n-1] {
				out[n-1] = sp.hi
			}
			continue
		}
		out = append(out, sp.lo, sp.hi)
	}
	return out
}

// Single returns the set containing only r.
func Single(r rune) Set {
	return Set{r, r}
}

// All returns the set of every rune.
func All() Set {
	return Set{0, unicode.MaxRune}
}

// IsEmpty reports whether the set matches no rune.
func (s Set) IsEmpty() bool {
	return len(s) == 0
}

// Contains reports whether r is a member of the set.
func (s Set) Contains(r rune) bool {
	// binary search over ranges
	lo, hi := 0, len(s)/2
	for lo < hi {
		m := lo + (hi-lo)/2
		switch {
		case r < s[2*m]:
			hi = m
		case r > s[2*m+1]:
			lo = m + 1
		default:
			return true
		}
	}
	return false
}

// Negate returns the complement of the set over [0, unicode.MaxRune].
func (s Set) Negate() Set {
	out := make(Set, 0, len(s)+2)
	next := rune(0)
	for i := 0; i < len(s); i += 2 {
		if s[i] > next {
			out = append(out, next, s[i]-1)
		}
		next = s[i+1] + 1
	}
	if next <= unicode.MaxRune {
		out = append(out, next, unicode.MaxRune)
	}
	return out
}

// Union returns the runes present in either set.
func (s Set) Union(o Set) Set {
	pairs := make([]rune, 0, len(s)+len(o))
	pairs = append(pairs, s...)
	pairs = append(pairs, o...)
	return NewSet(pairs...)
}

// Intersect returns the runes present in both sets.
func (s Set) Intersect(o Set) Set {
	var out Set
	i, j := 0, 0
	for i < len(s) && j < len(o) {
		lo := max(s[i], o[j])
		hi := min(s[i+1], o[j+1])
		if lo <= hi {
			out = append(out, lo, hi)
		}
		if s[i+1] < o[j+1] {
			i += 2
		} else {
			j += 2
		}
	}
	return out
}

// Intersects reports whether the sets share at least one rune.
func (s Set) Intersects(o Set) bool {
	i, j := 0, 0
	for i < len(s) && j < len(o) {
		if s[i] <= o[j+1] && o[j] <= s[i+1] {
			return true
		}
		if s[i+1] < o[j+1] {
			i += 2
		} else {
			j += 2
		}
	}
	return false
}

// Equal reports whether both sets contain the same runes.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders the set in bracket notation, e.g. [0-9a-z].
func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < len(s); i += 2 {
		writeRune(&b, s[i])
		if s[i+1] != s[i] {
			b.WriteByte('-')
			writeRune(&b, s[i+1])
		}
	}
	b.WriteByte(']')
	return b.String()
}

func writeRune(b *strings.Builder, r rune) {
	switch {
	case r == '-' || r == ']' || r == '[' || r == '\\' || r == '^':
		b.WriteByte('\\')
		b.WriteRune(r)
	case r < 0x80 && unicode.IsPrint(r):
		b.WriteRune(r)
	case r <= 0xFFFF:
		fmt.Fprintf(b, `\u%04X`, r)
	default:
		fmt.Fprintf(b, `\u{%X}`, r)
	}
}
