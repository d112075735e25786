package regscan

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/KromDaniel/regscan/internal/compiler"
	"github.com/KromDaniel/regscan/internal/engine"
)

// Info describes the static properties of one pattern.
type Info struct {
	// MinWidth is the minimum match length in bytes.
	MinWidth int
	// MaxWidth is the maximum match length in bytes, -1 when unbounded.
	MaxWidth int
	// MatchesAtEOL is set when some matches are only decided at end of data.
	MatchesAtEOL bool
	// MatchesOnlyAtEOL is set when every match requires end of data.
	MatchesOnlyAtEOL bool
}

// Database is a compiled, immutable pattern set for one Mode.
// It is safe for concurrent use and may back any number of Scanners.
type Database struct {
	mode        Mode
	patterns    []Pattern
	tags        tagTable
	automaton   engine.Automaton
	fingerprint string
	info        []Info
	inst        *instruments
}

// Compile compiles patterns for mode with default Options.
func Compile(mode Mode, patterns []Pattern) (*Database, error) {
	return CompileWithOptions(mode, patterns, Options{})
}

// CompileWithOptions compiles patterns for mode. Compilation is the only
// expensive step; the returned Database is reused by every Scanner built from it.
func CompileWithOptions(mode Mode, patterns []Pattern, opts Options) (db *Database, err error) {
	span := startCompileSpan(opts.Tracer, mode, len(patterns))
	defer func() { endCompileSpan(span, err) }()

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !mode.valid() {
		return nil, &ArgumentError{Arg: "mode", Msg: fmt.Sprintf("invalid mode %d", int(mode))}
	}
	if len(patterns) == 0 {
		return nil, &CompileError{Expression: -1, Message: ErrNoPatterns.Error(), err: ErrNoPatterns}
	}

	exprs := make([]engine.Expression, len(patterns))
	for i, p := range patterns {
		if err := p.validate(i); err != nil {
			return nil, err
		}
		exprs[i] = engine.Expression{Expr: p.expr, Flags: uint32(p.flags)}
	}

	inst := newInstruments(opts.Meter, mode)
	log := opts.logger()

	started := time.Now()
	automaton, err := newEngine(opts).Compile(mode.engine(), exprs)
	if err != nil {
		log.Debug("compile failed", "mode", mode.String(), "patterns", len(patterns), "error", err)
		return nil, compileError(err)
	}
	elapsed := time.Since(started)
	inst.recordCompile(elapsed)

	owned := make([]Pattern, len(patterns))
	copy(owned, patterns)

	db = &Database{
		mode:      mode,
		patterns:  owned,
		tags:      newTagTable(owned),
		automaton: automaton,
		inst:      inst,
	}
	db.fingerprint = Fingerprint(mode, owned)
	db.info = expressionInfo(automaton, exprs)

	log.Debug("compiled database",
		"mode", mode.String(),
		"patterns", len(patterns),
		"engine", EngineName,
		"fingerprint", db.fingerprint,
		"duration", elapsed)
	return db, nil
}

func compileError(err error) error {
	var ce *engine.CompileError
	if errors.As(err, &ce) {
		if ce.Index < 0 && ce.Message == "no patterns" {
			return &CompileError{Expression: -1, Message: ErrNoPatterns.Error(), err: ErrNoPatterns}
		}
		return &CompileError{Expression: ce.Index, Message: ce.Message}
	}
	return &CompileError{Expression: -1, Message: err.Error(), err: err}
}

// expressionInfo takes the analysis from the default engine when it compiled
// the set and analyzes each expression otherwise. Expressions the analyzer
// cannot parse report an unbounded width.
func expressionInfo(a engine.Automaton, exprs []engine.Expression) []Info {
	out := make([]Info, len(exprs))
	if ca, ok := a.(*compiler.Automaton); ok {
		for i, ei := range ca.Info() {
			out[i] = Info(ei)
		}
		return out
	}
	for i, e := range exprs {
		ei, err := compiler.Analyze(e)
		if err != nil {
			out[i] = Info{MaxWidth: -1}
			continue
		}
		out[i] = Info(ei)
	}
	return out
}

// ExpressionInfo analyzes a single pattern without building a Database.
func ExpressionInfo(p Pattern) (Info, error) {
	if err := p.validate(0); err != nil {
		return Info{}, err
	}
	ei, err := compiler.Analyze(engine.Expression{Expr: p.expr, Flags: uint32(p.flags)})
	if err != nil {
		return Info{}, compileError(err)
	}
	return Info(ei), nil
}

// Fingerprint hashes the mode and the ordered patterns with 128-bit murmur3.
// It equals the Fingerprint of a Database compiled from the same input.
func Fingerprint(mode Mode, patterns []Pattern) string {
	h := murmur3.New128()
	var buf [8]byte
	writeUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeUint(uint64(mode))
	for _, p := range patterns {
		writeUint(uint64(len(p.expr)))
		h.Write(p.expr)
		writeUint(uint64(p.flags))
		if p.tagged {
			tag := fmt.Sprintf("%T:%v", p.tag, p.tag)
			writeUint(uint64(len(tag)))
			h.Write([]byte(tag))
		} else {
			writeUint(0)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Mode returns the scan mode the Database was compiled for.
func (db *Database) Mode() Mode {
	return db.mode
}

// Len returns the number of patterns.
func (db *Database) Len() int {
	return len(db.patterns)
}

// Patterns returns a copy of the compiled patterns in order.
func (db *Database) Patterns() []Pattern {
	out := make([]Pattern, len(db.patterns))
	copy(out, db.patterns)
	return out
}

// Fingerprint identifies the mode and pattern list. Equal fingerprints mean
// equal pattern sets.
func (db *Database) Fingerprint() string {
	return db.fingerprint
}

// Info returns the static properties of every pattern, in order.
func (db *Database) Info() []Info {
	out := make([]Info, len(db.info))
	copy(out, db.info)
	return out
}

// Build binds the Database to ctx and h. See the generic Build function.
func (db *Database) Build(ctx any, h MatchHandler[any]) (*Scanner[any], error) {
	return Build(db, ctx, h)
}
