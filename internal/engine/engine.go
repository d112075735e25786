// Package engine defines the contract between the scanning front end and the
// automaton that finds pattern occurrences in bytes.
//
// A Compiler turns an ordered list of expressions into an Automaton for one
// scan mode. An Automaton is immutable; per-scan (or per-stream) progress
// lives in a State obtained from NewState.
package engine

import "errors"

// ErrStopped is returned by State.Feed and State.Finish when emit asked to stop.
var ErrStopped = errors.New("engine: scan stopped by callback")

// Mode selects how input is presented to an automaton.
type Mode int

const (
	Block Mode = iota
	Vectored
	Stream
)

// Flag bits understood by engines. Values match Hyperscan's HS_FLAG_* constants.
const (
	FlagCaseless    uint32 = 1
	FlagDotAll      uint32 = 2
	FlagMultiLine   uint32 = 4
	FlagSingleMatch uint32 = 8
	FlagAllowEmpty  uint32 = 16
	FlagUTF8        uint32 = 32
	FlagUCP         uint32 = 64
	FlagPrefilter   uint32 = 128
	FlagSomLeftmost uint32 = 256
	FlagCombination uint32 = 512
	FlagQuiet       uint32 = 1024

	FlagMask uint32 = 2047
)

// Expression is one pattern as seen by an engine.
type Expression struct {
	Expr  []byte
	Flags uint32
}

// EmitFunc receives one match: the ordinal index of the expression and the
// match bounds as absolute offsets. Returning false stops reporting.
type EmitFunc func(index int, start, end uint64) bool

// Compiler builds automata.
type Compiler interface {
	Compile(mode Mode, exprs []Expression) (Automaton, error)
}

// Automaton is a compiled, immutable pattern set.
type Automaton interface {
	Mode() Mode
	NewState() (State, error)
}

// State carries matching progress between Feed calls.
//
// Feed returns ErrStopped when emit asked to stop. In that case the state has
// still advanced past all of data: partial matches in flight are discarded so
// that the next Feed continues at the right offset.
//
// Finish signals end of data and reports matches that needed to see it.
// Reset discards all progress; offsets start again at zero.
type State interface {
	Feed(data []byte, emit EmitFunc) error
	Finish(emit EmitFunc) error
	Reset()
	Offset() uint64
	Close() error
}

// CompileError is returned by engines when an expression is rejected.
// Index is -1 when the error is not tied to one expression.
type CompileError struct {
	Index   int
	Message string
}

func (e *CompileError) Error() string {
	return e.Message
}
