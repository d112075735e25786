//go:build hyperscan && cgo

// Package hs binds the native Hyperscan library as a matching engine.
//
// Build with: go build -tags hyperscan
//
// Start of match is always requested (SOM_LEFTMOST) so offsets agree with the
// pure-Go engine; stream databases use the large SOM horizon.
package hs

import (
	"errors"
	"fmt"

	"github.com/flier/gohs/hyperscan"

	"github.com/KromDaniel/regscan/internal/engine"
)

// Compiler builds Hyperscan databases.
type Compiler struct{}

var _ engine.Compiler = Compiler{}

// New creates a Hyperscan compiler.
func New() Compiler {
	return Compiler{}
}

var modes = map[engine.Mode]hyperscan.ModeFlag{
	engine.Block:    hyperscan.BlockMode,
	engine.Vectored: hyperscan.VectoredMode,
	engine.Stream:   hyperscan.StreamMode | hyperscan.SomHorizonLargeMode,
}

// Compile implements engine.Compiler.
func (Compiler) Compile(mode engine.Mode, exprs []engine.Expression) (engine.Automaton, error) {
	if len(exprs) == 0 {
		return nil, &engine.CompileError{Index: -1, Message: "no patterns"}
	}
	hsMode, ok := modes[mode]
	if !ok {
		return nil, &engine.CompileError{Index: -1, Message: fmt.Sprintf("unknown mode %d", mode)}
	}

	patterns := make([]*hyperscan.Pattern, len(exprs))
	for i, e := range exprs {
		flags := hyperscan.CompileFlag(e.Flags | engine.FlagSomLeftmost)
		p := hyperscan.NewPattern(string(e.Expr), flags)
		p.Id = i
		patterns[i] = p
	}

	builder := &hyperscan.DatabaseBuilder{
		Patterns: patterns,
		Mode:     hsMode,
		Platform: hyperscan.PopulatePlatform(),
	}
	db, err := builder.Build()
	if err != nil {
		return nil, compileError(err)
	}
	return &automaton{mode: mode, db: db}, nil
}

func compileError(err error) error {
	var indexed interface{ Expression() int }
	if errors.As(err, &indexed) {
		return &engine.CompileError{Index: indexed.Expression(), Message: err.Error()}
	}
	return &engine.CompileError{Index: -1, Message: err.Error()}
}

type automaton struct {
	mode engine.Mode
	db   hyperscan.Database
}

func (a *automaton) Mode() engine.Mode {
	return a.mode
}

func (a *automaton) NewState() (engine.State, error) {
	scratch, err := hyperscan.NewScratch(a.db)
	if err != nil {
		return nil, fmt.Errorf("allocate scratch: %w", err)
	}
	switch a.mode {
	case engine.Block:
		return &blockState{db: a.db.(hyperscan.BlockDatabase), scratch: scratch}, nil
	case engine.Vectored:
		return &vectorState{db: a.db.(hyperscan.VectoredDatabase), scratch: scratch}, nil
	default:
		s := &streamState{db: a.db.(hyperscan.StreamDatabase), scratch: scratch}
		if err := s.open(); err != nil {
			scratch.Free()
			return nil, err
		}
		return s, nil
	}
}

// errStop is returned from match handlers to make Hyperscan terminate the scan.
var errStop = errors.New("stop")

// emitter adapts engine.EmitFunc to a Hyperscan match handler, shifting
// offsets by base.
type emitter struct {
	emit engine.EmitFunc
	base uint64
}

func (e *emitter) handle(id uint, from, to uint64, _ uint, _ interface{}) error {
	if e.emit == nil {
		return nil
	}
	if !e.emit(int(id), e.base+from, e.base+to) {
		return errStop
	}
	return nil
}

func scanResult(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hyperscan.ErrScanTerminated):
		return engine.ErrStopped
	default:
		return err
	}
}

// blockState scans each Feed as one complete block.
type blockState struct {
	db      hyperscan.BlockDatabase
	scratch *hyperscan.Scratch
	offset  uint64
}

func (s *blockState) Feed(data []byte, emit engine.EmitFunc) error {
	e := &emitter{emit: emit}
	s.offset += uint64(len(data))
	return scanResult(s.db.Scan(data, s.scratch, e.handle, nil))
}

func (s *blockState) Finish(engine.EmitFunc) error { return nil }
func (s *blockState) Reset()                       { s.offset = 0 }
func (s *blockState) Offset() uint64               { return s.offset }
func (s *blockState) Close() error                 { return s.scratch.Free() }

// vectorState collects the buffers of one call and scans them on Finish.
type vectorState struct {
	db      hyperscan.VectoredDatabase
	scratch *hyperscan.Scratch
	buffers [][]byte
	offset  uint64
}

func (s *vectorState) Feed(data []byte, _ engine.EmitFunc) error {
	s.buffers = append(s.buffers, data)
	s.offset += uint64(len(data))
	return nil
}

func (s *vectorState) Finish(emit engine.EmitFunc) error {
	buffers := s.buffers
	s.buffers = nil
	if len(buffers) == 0 {
		buffers = [][]byte{{}}
	}
	e := &emitter{emit: emit}
	return scanResult(s.db.Scan(buffers, s.scratch, e.handle, nil))
}

func (s *vectorState) Reset() {
	s.buffers = nil
	s.offset = 0
}

func (s *vectorState) Offset() uint64 { return s.offset }
func (s *vectorState) Close() error   { return s.scratch.Free() }

// streamState owns one open Hyperscan stream.
type streamState struct {
	db      hyperscan.StreamDatabase
	scratch *hyperscan.Scratch
	stream  hyperscan.Stream
	e       emitter
	offset  uint64
}

func (s *streamState) open() error {
	stream, err := s.db.Open(0, s.scratch, s.e.handle, nil)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	s.stream = stream
	return nil
}

func (s *streamState) Feed(data []byte, emit engine.EmitFunc) error {
	s.e.emit = emit
	defer func() { s.e.emit = nil }()

	err := scanResult(s.stream.Scan(data))
	s.offset += uint64(len(data))
	if errors.Is(err, engine.ErrStopped) {
		// A terminated stream stays dead; restart it at the current offset.
		s.e.emit = nil
		if rerr := s.stream.Reset(); rerr != nil {
			return rerr
		}
		s.e.base = s.offset
	}
	return err
}

func (s *streamState) Finish(emit engine.EmitFunc) error {
	s.e.emit = emit
	defer func() { s.e.emit = nil }()
	err := scanResult(s.stream.Reset())
	s.e.base = s.offset
	return err
}

func (s *streamState) Reset() {
	s.e.emit = nil
	_ = s.stream.Reset()
	s.e.base = 0
	s.offset = 0
}

func (s *streamState) Offset() uint64 { return s.offset }

func (s *streamState) Close() error {
	s.e.emit = nil
	err := s.stream.Close()
	if ferr := s.scratch.Free(); err == nil {
		err = ferr
	}
	return err
}
