package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"

	"github.com/dave/jennifer/jen"

	"github.com/KromDaniel/regscan/patternset"
	"github.com/KromDaniel/regscan/pkg/regscan"
)

// Config describes one generated file.
type Config struct {
	Package string          // Package name of the generated file
	Name    string          // Identifier prefix, e.g. "Web" gives WebPatterns
	Set     *patternset.Set // Pattern set to embed
}

var flagIdents = map[regscan.Flag]string{
	regscan.Caseless:    "Caseless",
	regscan.DotAll:      "DotAll",
	regscan.MultiLine:   "MultiLine",
	regscan.SingleMatch: "SingleMatch",
	regscan.AllowEmpty:  "AllowEmpty",
	regscan.UTF8:        "UTF8",
	regscan.UCP:         "UCP",
	regscan.Prefilter:   "Prefilter",
	regscan.SomLeftmost: "SomLeftmost",
	regscan.Combination: "Combination",
	regscan.Quiet:       "Quiet",
}

var modeIdents = map[regscan.Mode]string{
	regscan.Block:    "Block",
	regscan.Vectored: "Vectored",
	regscan.Stream:   "Stream",
}

// Generate renders a gofmt-ed Go file declaring <Name>Patterns, <Name>Mode and
// <Name>Database for cfg.Set. The set is validated but not compiled.
func Generate(cfg Config) ([]byte, error) {
	if !token.IsIdentifier(cfg.Package) {
		return nil, fmt.Errorf("codegen: invalid package name %q", cfg.Package)
	}
	name := UpperFirst(cfg.Name)
	if !token.IsIdentifier(name) || !token.IsExported(name) {
		return nil, fmt.Errorf("codegen: invalid name %q", cfg.Name)
	}
	if cfg.Set == nil {
		return nil, fmt.Errorf("codegen: no pattern set")
	}
	mode, _, err := cfg.Set.Resolve()
	if err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}

	file := jen.NewFile(cfg.Package)
	file.HeaderComment(GeneratedHeader)

	patternsName := name + PatternsSuffix
	modeName := name + ModeSuffix
	dbName := name + DatabaseSuffix
	private := LowerFirst(name)
	onceName, dbVar, errVar := private+onceSuffix, private+dbSuffix, private+errSuffix

	items := make([]jen.Code, 0, len(cfg.Set.Patterns))
	for _, e := range cfg.Set.Patterns {
		item, err := patternExpr(e)
		if err != nil {
			return nil, fmt.Errorf("codegen: %w", err)
		}
		items = append(items, item)
	}

	file.Commentf("%s holds the patterns of the %q set.", patternsName, cfg.Set.Name)
	file.Var().Id(patternsName).Op("=").Index().Qual(RegscanPath, "Pattern").
		Custom(jen.Options{Open: "{", Close: "}", Separator: ",", Multi: true}, items...)

	file.Commentf("%s is the scan mode of the %q set.", modeName, cfg.Set.Name)
	file.Const().Id(modeName).Op("=").Qual(RegscanPath, modeIdents[mode])

	file.Var().Defs(
		jen.Id(onceName).Qual(SyncPath, "Once"),
		jen.Id(dbVar).Op("*").Qual(RegscanPath, "Database"),
		jen.Id(errVar).Error(),
	)

	file.Commentf("%s compiles %s on first use and returns the shared Database.", dbName, patternsName)
	file.Func().Id(dbName).Params().Params(jen.Op("*").Qual(RegscanPath, "Database"), jen.Error()).Block(
		jen.Id(onceName).Dot("Do").Call(jen.Func().Params().Block(
			jen.List(jen.Id(dbVar), jen.Id(errVar)).Op("=").
				Qual(RegscanPath, "Compile").Call(jen.Id(modeName), jen.Id(patternsName)),
		)),
		jen.Return(jen.Id(dbVar), jen.Id(errVar)),
	)

	var buf bytes.Buffer
	if err := file.Render(&buf); err != nil {
		return nil, fmt.Errorf("codegen: render: %w", err)
	}
	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("codegen: format: %w", err)
	}
	return formatted, nil
}

// patternExpr renders regscan.MustPattern(expr, flags...)[.WithTag(tag)].
func patternExpr(e patternset.Entry) (jen.Code, error) {
	args := []jen.Code{jen.Lit(e.Expression)}
	for _, name := range e.Flags {
		f, err := regscan.ParseFlag(name)
		if err != nil {
			return nil, err
		}
		args = append(args, jen.Qual(RegscanPath, flagIdents[f]))
	}
	stmt := jen.Qual(RegscanPath, "MustPattern").Call(args...)
	if e.Tag != "" {
		stmt = stmt.Dot("WithTag").Call(jen.Lit(e.Tag))
	}
	return stmt, nil
}
