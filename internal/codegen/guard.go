package codegen

import (
	"fmt"
	"go/token"
	"io"
	"regexp"

	"github.com/dave/jennifer/jen"

	"github.com/KromDaniel/redoscan/internal/analyzer"
)

// GuardOptions configures GenerateGuard.
type GuardOptions struct {
	Package         string // package clause of the generated file
	Prefix          string // variable name prefix, DefaultPrefix when empty
	AllowVulnerable bool   // emit vulnerable patterns instead of rejecting them
}

// Guard is a generated file plus the bookkeeping of what went into it.
type Guard struct {
	File     *jen.File
	Emitted  []string
	Rejected []string
}

// Render writes the generated source to w.
func (g *Guard) Render(w io.Writer) error {
	return g.File.Render(w)
}

// Save writes the generated source to path.
func (g *Guard) Save(path string) error {
	if err := g.File.Save(path); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

// GenerateGuard builds a Go file declaring one regexp.MustCompile variable
// per accepted pattern. Safe patterns are accepted; vulnerable ones only
// with AllowVulnerable. Failed analyses and patterns Go's regexp package
// rejects are listed in a comment instead.
func GenerateGuard(opts GuardOptions, results []*analyzer.AnalysisResult) (*Guard, error) {
	if !token.IsIdentifier(opts.Package) {
		return nil, fmt.Errorf("invalid package name %q", opts.Package)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ExportedIdent(prefix) != prefix {
		return nil, fmt.Errorf("prefix %q is not an exported identifier", prefix)
	}

	f := jen.NewFile(opts.Package)
	f.HeaderComment("Code generated by redoscan; DO NOT EDIT.")

	g := &Guard{File: f}
	var (
		defs     []jen.Code
		names    []jen.Code
		rejected []jen.Code
	)
	for _, res := range results {
		reason := rejectReason(res, opts.AllowVulnerable)
		if reason != "" {
			g.Rejected = append(g.Rejected, res.Pattern)
			rejected = append(rejected, jen.Comment(fmt.Sprintf("  %q: %s", res.Pattern, reason)))
			continue
		}

		name := PatternName(prefix, len(g.Emitted))
		g.Emitted = append(g.Emitted, res.Pattern)
		note := fmt.Sprintf("%s matches %q (%s).", name, res.Pattern, res.Verdict)
		if res.Vulnerable() {
			note = fmt.Sprintf("%s matches %q.\nWARNING: %s", name, res.Pattern, res.Witness)
		}
		defs = append(defs,
			jen.Comment(note),
			jen.Id(name).Op("=").Qual(RegexpPkg, "MustCompile").Call(jen.Lit(res.Pattern)),
		)
		names = append(names, jen.Id(name))
	}

	if len(defs) > 0 {
		f.Var().Defs(defs...)
		f.Line()
	}
	f.Commentf("%s lists every generated pattern.", AllName)
	f.Var().Id(AllName).Op("=").Index().Op("*").Qual(RegexpPkg, "Regexp").Values(names...)

	if len(rejected) > 0 {
		f.Line()
		f.Comment("Rejected patterns:")
		for _, c := range rejected {
			f.Add(c)
		}
	}
	return g, nil
}

func rejectReason(res *analyzer.AnalysisResult, allowVulnerable bool) string {
	switch {
	case res.Failed():
		return fmt.Sprintf("%s error: %s", res.ErrorClass, res.Error)
	case res.Vulnerable() && !allowVulnerable:
		return "vulnerable: " + res.Witness
	}
	if _, err := regexp.Compile(res.Pattern); err != nil {
		return "not accepted by regexp: " + err.Error()
	}
	return ""
}
