// Package codegen emits Go source for patterns that passed the ReDoS check.
package codegen

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"
)

// Identifiers used in generated code
const (
	DefaultPrefix = "Pattern"
	AllName       = "All"
	RegexpPkg     = "regexp"
)

// PatternName returns the variable name for the i-th emitted pattern.
func PatternName(prefix string, i int) string {
	return fmt.Sprintf("%s%d", prefix, i)
}

// ExportedIdent turns s into an exported Go identifier, dropping characters
// that cannot appear in one. It returns "" when nothing usable is left.
func ExportedIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	id := strings.TrimLeftFunc(b.String(), func(r rune) bool { return unicode.IsDigit(r) || r == '_' })
	id = UpperFirst(id)
	if id == "" || token.IsKeyword(id) || !token.IsExported(id) {
		return ""
	}
	return id
}

// LowerFirst converts the first character of a string to lowercase.
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// UpperFirst converts the first character of a string to uppercase.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
