package analyzer

import (
	"strings"
	"testing"
)

func BenchmarkAnalyze(b *testing.B) {
	benchmarks := []struct {
		name    string
		pattern string
		prune   bool
	}{
		{"Identifier", `[a-z][0-9a-z]*`, false},
		{"NestedStar", `(a*)*`, false},
		{"AdjacentClasses", `\d*\w*`, false},
		{"LongSafe", strings.Repeat(`a*b`, 20), false},
		{"LongSafePruned", strings.Repeat(`a*b`, 20), true},
		{"Alternation", `(?:get|post|put|delete|patch)[a-z]*`, false},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			a := New(Config{Prune: bm.prune})
			p, err := a.Parse(bm.pattern)
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := a.Analyze(p); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
