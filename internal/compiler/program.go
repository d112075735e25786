package compiler

import (
	"bytes"
	"cmp"
	"fmt"
	"regexp/syntax"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/KromDaniel/regscan/internal/engine"
)

// program is one compiled expression ready for NFA simulation.
type program struct {
	index    int
	expr     string
	prog     *syntax.Prog
	utf8     bool
	single   bool
	quiet    bool
	anchored bool
	info     ExpressionInfo
}

// ExpressionInfo describes the static properties of one expression.
type ExpressionInfo struct {
	// MinWidth is the minimum match length in bytes.
	MinWidth int
	// MaxWidth is the maximum match length in bytes, -1 when unbounded.
	MaxWidth int
	// MatchesAtEOL is set when some matches are only decided at end of data.
	MatchesAtEOL bool
	// MatchesOnlyAtEOL is set when every match requires end of data.
	MatchesOnlyAtEOL bool
}

// syntaxFlags maps engine flags onto regexp/syntax parse flags.
// PCRE semantics: negated classes match newline, ^ and $ refer to the whole
// input unless multi-line mode is requested. Caseless byte-mode patterns are
// parsed exact and folded by foldASCII afterwards.
func syntaxFlags(flags uint32) syntax.Flags {
	f := syntax.Perl
	if flags&engine.FlagMultiLine != 0 {
		f &^= syntax.OneLine
	}
	if flags&engine.FlagDotAll != 0 {
		f |= syntax.DotNL
	}
	if flags&engine.FlagCaseless != 0 && flags&engine.FlagUTF8 != 0 {
		f |= syntax.FoldCase
	}
	return f
}

// foldASCII rewrites re so that ASCII letters match in either case while
// every other byte value still matches exactly.
func foldASCII(re *syntax.Regexp) *syntax.Regexp {
	for i, sub := range re.Sub {
		re.Sub[i] = foldASCII(sub)
	}
	switch re.Op {
	case syntax.OpLiteral:
		if re.Flags&syntax.FoldCase != 0 {
			return re
		}
		subs := make([]*syntax.Regexp, 0, len(re.Rune))
		folded := false
		for _, r := range re.Rune {
			if o, ok := otherCase(r); ok {
				subs = append(subs, &syntax.Regexp{Op: syntax.OpCharClass, Flags: re.Flags, Rune: mergeRanges([]rune{r, r, o, o})})
				folded = true
				continue
			}
			subs = append(subs, &syntax.Regexp{Op: syntax.OpLiteral, Flags: re.Flags, Rune: []rune{r}})
		}
		switch {
		case !folded:
			return re
		case len(subs) == 1:
			return subs[0]
		}
		return &syntax.Regexp{Op: syntax.OpConcat, Flags: re.Flags, Sub: subs}
	case syntax.OpCharClass:
		// Negated classes reach up to MaxRune; fold their complement.
		if n := len(re.Rune); n > 0 && re.Rune[n-1] == unicode.MaxRune {
			re.Rune = negateRanges(foldRanges(negateRanges(re.Rune)))
		} else {
			re.Rune = foldRanges(re.Rune)
		}
	}
	return re
}

// foldRanges adds the other-case ASCII letters of every lo/hi pair in r.
func foldRanges(r []rune) []rune {
	ranges := slices.Clone(r)
	for i := 0; i+1 < len(r); i += 2 {
		lo, hi := r[i], r[i+1]
		if l, h := max(lo, 'a'), min(hi, 'z'); l <= h {
			ranges = append(ranges, l-'a'+'A', h-'a'+'A')
		}
		if l, h := max(lo, 'A'), min(hi, 'Z'); l <= h {
			ranges = append(ranges, l-'A'+'a', h-'A'+'a')
		}
	}
	return mergeRanges(ranges)
}

// negateRanges returns the complement of sorted, merged ranges.
func negateRanges(r []rune) []rune {
	out := make([]rune, 0, len(r)+2)
	next := rune(0)
	for i := 0; i+1 < len(r); i += 2 {
		if r[i] > next {
			out = append(out, next, r[i]-1)
		}
		next = r[i+1] + 1
	}
	if next <= unicode.MaxRune {
		out = append(out, next, unicode.MaxRune)
	}
	return out
}

func otherCase(r rune) (rune, bool) {
	switch {
	case 'a' <= r && r <= 'z':
		return r - 'a' + 'A', true
	case 'A' <= r && r <= 'Z':
		return r - 'A' + 'a', true
	}
	return 0, false
}

// mergeRanges sorts lo/hi rune pairs and joins overlapping or adjacent ones.
func mergeRanges(r []rune) []rune {
	pairs := make([][2]rune, 0, len(r)/2)
	for i := 0; i+1 < len(r); i += 2 {
		pairs = append(pairs, [2]rune{r[i], r[i+1]})
	}
	slices.SortFunc(pairs, func(a, b [2]rune) int { return cmp.Compare(a[0], b[0]) })
	out := make([]rune, 0, len(r))
	for _, p := range pairs {
		if n := len(out); n > 0 && p[0] <= out[n-1]+1 {
			out[n-1] = max(out[n-1], p[1])
			continue
		}
		out = append(out, p[0], p[1])
	}
	return out
}

// latin1 reinterprets every byte of expr as one rune so that byte-mode
// patterns can name any byte value, including invalid UTF-8.
func latin1(expr []byte) string {
	var b strings.Builder
	b.Grow(len(expr))
	for _, c := range expr {
		b.WriteRune(rune(c))
	}
	return b.String()
}

// checkFlags rejects flag combinations the NFA engine cannot honor.
func checkFlags(flags uint32) string {
	switch {
	case flags&^engine.FlagMask != 0:
		return fmt.Sprintf("unrecognized flags 0x%x", flags&^engine.FlagMask)
	case flags&engine.FlagUCP != 0 && flags&engine.FlagUTF8 == 0:
		return "UCP requires UTF8"
	case flags&engine.FlagCombination != 0:
		return "logical combinations are not supported by this engine"
	}
	return ""
}

// parseExpression compiles one expression into a program.
func parseExpression(index int, e engine.Expression) (*program, error) {
	reject := func(msg string) error {
		return &engine.CompileError{Index: index, Message: msg}
	}

	if len(e.Expr) == 0 {
		return nil, reject("empty expression")
	}
	if msg := checkFlags(e.Flags); msg != "" {
		return nil, reject(msg)
	}
	if bytes.IndexByte(e.Expr, 0) >= 0 {
		return nil, reject("expression contains a NUL byte")
	}

	utf8Mode := e.Flags&engine.FlagUTF8 != 0
	src := latin1(e.Expr)
	if utf8Mode {
		if !utf8.Valid(e.Expr) {
			return nil, reject("expression is not valid UTF-8")
		}
		src = string(e.Expr)
	}

	re, err := syntax.Parse(src, syntaxFlags(e.Flags))
	if err != nil {
		return nil, reject(err.Error())
	}
	if e.Flags&engine.FlagCaseless != 0 && !utf8Mode {
		re = foldASCII(re)
	}
	length := AnalyzeMatchLength(re, utf8Mode)
	re = re.Simplify()
	prog, err := syntax.Compile(re)
	if err != nil {
		return nil, reject(err.Error())
	}

	if e.Flags&engine.FlagAllowEmpty == 0 && matchesEmpty(prog) {
		return nil, reject("pattern matches empty buffer; use AllowEmpty to enable support")
	}

	return &program{
		index:    index,
		expr:     string(e.Expr),
		prog:     prog,
		utf8:     utf8Mode,
		single:   e.Flags&engine.FlagSingleMatch != 0,
		quiet:    e.Flags&engine.FlagQuiet != 0,
		anchored: isAnchored(prog),
		info: ExpressionInfo{
			MinWidth:         length.MinMatchLen,
			MaxWidth:         length.MaxMatchLen,
			MatchesAtEOL:     hasEndAssertion(prog),
			MatchesOnlyAtEOL: matchesOnlyAtEnd(prog),
		},
	}, nil
}
