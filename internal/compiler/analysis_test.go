package compiler

import (
	"bytes"
	"log/slog"
	"regexp/syntax"
	"testing"

	"github.com/KromDaniel/regscan/internal/engine"
)

func compileProg(t *testing.T, pattern string, flags syntax.Flags) *syntax.Prog {
	t.Helper()
	re, err := syntax.Parse(pattern, flags)
	if err != nil {
		t.Fatalf("failed to parse pattern %q: %v", pattern, err)
	}
	prog, err := syntax.Compile(re.Simplify())
	if err != nil {
		t.Fatalf("failed to compile pattern %q: %v", pattern, err)
	}
	return prog
}

func TestProgramProperties(t *testing.T) {
	tests := []struct {
		pattern       string
		anchored      bool
		empty         bool
		endAssertion  bool
		onlyAtEnd     bool
		needLookahead bool
	}{
		{pattern: "foo"},
		{pattern: "^foo", anchored: true},
		{pattern: "foo$", endAssertion: true, onlyAtEnd: true, needLookahead: true},
		{pattern: "^$", anchored: true, empty: true, endAssertion: true, onlyAtEnd: true, needLookahead: true},
		{pattern: "a*", empty: true},
		{pattern: "a|b*", empty: true},
		{pattern: "foo|bar$", endAssertion: true, needLookahead: true},
		{pattern: `\bfoo`, needLookahead: true},
		{pattern: `\Bx`, needLookahead: true},
		{pattern: "(?m)^foo"},
		{pattern: "(?m)foo$", endAssertion: true, needLookahead: true},
		{pattern: `x\z`, endAssertion: true, onlyAtEnd: true, needLookahead: true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			prog := compileProg(t, tt.pattern, syntax.Perl)
			if got := isAnchored(prog); got != tt.anchored {
				t.Errorf("isAnchored = %v, want %v", got, tt.anchored)
			}
			if got := matchesEmpty(prog); got != tt.empty {
				t.Errorf("matchesEmpty = %v, want %v", got, tt.empty)
			}
			if got := hasEndAssertion(prog); got != tt.endAssertion {
				t.Errorf("hasEndAssertion = %v, want %v", got, tt.endAssertion)
			}
			if got := matchesOnlyAtEnd(prog); got != tt.onlyAtEnd {
				t.Errorf("matchesOnlyAtEnd = %v, want %v", got, tt.onlyAtEnd)
			}
			if got := needsLookahead(prog); got != tt.needLookahead {
				t.Errorf("needsLookahead = %v, want %v", got, tt.needLookahead)
			}
		})
	}
}

func TestSyntaxFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags uint32
		check func(syntax.Flags) bool
	}{
		{"default is one line", 0, func(f syntax.Flags) bool { return f&syntax.OneLine != 0 && f&syntax.DotNL == 0 }},
		{"multiline", engine.FlagMultiLine, func(f syntax.Flags) bool { return f&syntax.OneLine == 0 }},
		{"dotall", engine.FlagDotAll, func(f syntax.Flags) bool { return f&syntax.DotNL != 0 }},
		{"caseless", engine.FlagCaseless, func(f syntax.Flags) bool { return f&syntax.FoldCase != 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(syntaxFlags(tt.flags)) {
				t.Errorf("syntaxFlags(%d) = %v", tt.flags, syntaxFlags(tt.flags))
			}
		})
	}
}

func TestParseExpressionRejects(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		flags uint32
	}{
		{"empty", "", 0},
		{"unknown flag", "foo", 1 << 12},
		{"ucp without utf8", "foo", engine.FlagUCP},
		{"combination", "1|2", engine.FlagCombination},
		{"nul byte", "a\x00", 0},
		{"invalid utf8", "\xff", engine.FlagUTF8},
		{"syntax", "a(", 0},
		{"empty match", "x?", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseExpression(3, engine.Expression{Expr: []byte(tt.expr), Flags: tt.flags})
			ce, ok := err.(*engine.CompileError)
			if !ok {
				t.Fatalf("parseExpression error = %v, want *engine.CompileError", err)
			}
			if ce.Index != 3 {
				t.Errorf("Index = %d, want 3", ce.Index)
			}
		})
	}

	if _, err := parseExpression(0, engine.Expression{Expr: []byte("x?"), Flags: engine.FlagAllowEmpty}); err != nil {
		t.Errorf("AllowEmpty: unexpected error %v", err)
	}
	if _, err := parseExpression(0, engine.Expression{Expr: []byte(`\w`), Flags: engine.FlagUCP | engine.FlagUTF8}); err != nil {
		t.Errorf("UCP|UTF8: unexpected error %v", err)
	}
}

func TestLatin1(t *testing.T) {
	got := latin1([]byte{'a', 0xe9, 0xff})
	want := "aéÿ"
	if got != want {
		t.Errorf("latin1 = %q, want %q", got, want)
	}
}

func TestLogger(t *testing.T) {
	t.Run("nil logger produces no output", func(t *testing.T) {
		logger := NewLogger(nil)
		if logger.Enabled() {
			t.Error("nil logger reports enabled")
		}
		logger.Log("test message")
		logger.Section("test section")
	})

	t.Run("info level suppresses debug output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(slog.New(slog.NewTextHandler(&buf, nil)))

		logger.Log("test message")
		if buf.Len() != 0 {
			t.Errorf("logger produced output at info level: %s", buf.String())
		}
	})

	t.Run("debug logger produces output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

		logger.Log("test %s", "message")
		logger.Section("test section")

		output := buf.String()
		if !bytes.Contains([]byte(output), []byte("test message")) {
			t.Errorf("output missing 'test message': %s", output)
		}
		if !bytes.Contains([]byte(output), []byte("=== test section ===")) {
			t.Errorf("output missing 'test section': %s", output)
		}
		if !bytes.Contains([]byte(output), []byte("component=regscan")) {
			t.Errorf("output missing component attribute: %s", output)
		}
	})
}

func TestCompilerVerboseLogging(t *testing.T) {
	var buf bytes.Buffer
	c := New(Config{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))})

	if _, err := c.Compile(engine.Stream, []engine.Expression{{Expr: []byte(`(a+)+b$`)}}); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"Pattern Analysis", "NFA states", "Needs lookahead: true"} {
		if !bytes.Contains([]byte(output), []byte(want)) {
			t.Errorf("missing %q in verbose output: %s", want, output)
		}
	}
}
