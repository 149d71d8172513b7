package ast

import "testing"

func TestParseRE2(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"a*", "Many(Char('a'))"},
		{"(a*)*", "Many(Capture(Many(Char('a'))))"},
		{"ab", "Sequence(Char('a'), Char('b'))"},
		{"a|b", "Class([a-b])"},
		{"a|a", "Char('a')"},
		{"[0-9]+?", "Some?(Class([0-9]))"},
		{"(?P<word>x)", "NamedCapture(Char('x'))"},
		{"x{2,5}", "Repeat{2,5}(Char('x'))"},
		{"(?i)k", "Class([Kk\\u212A])"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := ParseRE2(tt.pattern)
			if err != nil {
				t.Fatalf("ParseRE2(%q) error: %v", tt.pattern, err)
			}
			if got := p.Root.String(); got != tt.want {
				t.Errorf("pattern %q: tree = %s, want %s", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestParseRE2Error(t *testing.T) {
	if _, err := ParseRE2("(a"); err == nil {
		t.Fatal("expected error for unbalanced group")
	}
	if _, err := ParseRE2(`(a)\1`); err == nil {
		t.Fatal("expected error for back reference")
	}
}
