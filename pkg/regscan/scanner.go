package regscan

import (
	"fmt"

	"github.com/KromDaniel/regscan/internal/engine"
)

const (
	stateOpen   = "open"
	stateClosed = "closed"
)

// Scanner binds a Database to a context and a match handler.
//
// A Scanner is a sequential session and must not be used from more than one
// goroutine at a time. In Stream mode it carries matching state from one Scan
// call to the next until Reset or Close.
type Scanner[C any] struct {
	db      *Database
	ctx     C
	handler MatchHandler[C]

	// stream holds carried state in Stream mode; scratch is reused per call
	// in Block and Vectored mode.
	stream  engine.State
	scratch engine.State
	closed  bool
}

// Build binds db to ctx and h. Stream state is allocated only for Stream databases.
func Build[C any](db *Database, ctx C, h MatchHandler[C]) (*Scanner[C], error) {
	if db == nil {
		return nil, &ArgumentError{Arg: "database", Msg: "database cannot be nil"}
	}
	if h == nil {
		return nil, &ArgumentError{Arg: "handler", Msg: "match handler cannot be nil"}
	}
	s := &Scanner[C]{db: db, ctx: ctx, handler: h}
	if db.mode == Stream {
		state, err := db.automaton.NewState()
		if err != nil {
			return nil, fmt.Errorf("regscan: open stream: %w", err)
		}
		s.stream = state
	}
	return s, nil
}

// Database returns the Database the Scanner was built from.
func (s *Scanner[C]) Database() *Database {
	return s.db
}

// Context returns the context passed to Build.
func (s *Scanner[C]) Context() C {
	return s.ctx
}

// Offset returns the number of bytes consumed by the stream since Build or
// the last Reset. It is zero for other modes.
func (s *Scanner[C]) Offset() uint64 {
	if s.stream == nil {
		return 0
	}
	return s.stream.Offset()
}

// Scan scans one buffer in Block mode or one chunk in Stream mode.
func (s *Scanner[C]) Scan(data []byte) (Scan, error) {
	switch s.db.mode {
	case Block:
		return s.scanBlock([][]byte{data})
	case Stream:
		return s.scanStream(data)
	}
	return Terminate, &ArgumentError{Arg: "data", Msg: fmt.Sprintf("%s database requires ScanVector", s.db.mode)}
}

// ScanVector scans buffers as one logical input in Vectored mode. Offsets are
// cumulative across the buffers.
func (s *Scanner[C]) ScanVector(data [][]byte) (Scan, error) {
	if s.db.mode != Vectored {
		return Terminate, &ArgumentError{Arg: "data", Msg: fmt.Sprintf("%s database requires Scan", s.db.mode)}
	}
	return s.scanBlock(data)
}

func (s *Scanner[C]) scanBlock(buffers [][]byte) (Scan, error) {
	if s.scratch == nil {
		state, err := s.db.automaton.NewState()
		if err != nil {
			return Terminate, fmt.Errorf("regscan: allocate scratch: %w", err)
		}
		s.scratch = state
	}
	s.scratch.Reset()

	d := &driver[C]{s: s}
	n, err := feed(s.scratch, buffers, d.emit)
	if err == nil {
		err = s.scratch.Finish(d.emit)
	}
	result, err := d.settle(err)
	s.db.inst.recordScan(n, d.matches, result, err)
	return result, err
}

func (s *Scanner[C]) scanStream(data []byte) (Scan, error) {
	if s.closed {
		return Terminate, &StateError{Op: "scan", State: stateClosed}
	}
	d := &driver[C]{s: s}
	result, err := d.settle(s.stream.Feed(data, d.emit))
	s.db.inst.recordScan(len(data), d.matches, result, err)
	return result, err
}

// Reset ends the current stream: matches that need the end of data are
// delivered to the handler, then the carried state is discarded and offsets
// restart at zero. A closed stream is reopened without reporting. For Block
// and Vectored scanners Reset does nothing.
func (s *Scanner[C]) Reset() (Scan, error) {
	if s.db.mode != Stream {
		return Continue, nil
	}
	if s.closed {
		state, err := s.db.automaton.NewState()
		if err != nil {
			return Terminate, fmt.Errorf("regscan: reopen stream: %w", err)
		}
		s.stream = state
		s.closed = false
		return Continue, nil
	}

	d := &driver[C]{s: s}
	result, err := d.settle(s.stream.Finish(d.emit))
	s.stream.Reset()
	s.db.inst.recordScan(0, d.matches, result, err)
	return result, err
}

// Close discards all state. A closed stream rejects Scan until Reset.
// Closing twice is a no-op; Block and Vectored scanners stay usable.
func (s *Scanner[C]) Close() error {
	var err error
	if s.scratch != nil {
		err = s.scratch.Close()
		s.scratch = nil
	}
	if s.db.mode != Stream || s.closed {
		return err
	}
	s.closed = true
	if cerr := s.stream.Close(); err == nil {
		err = cerr
	}
	s.stream = nil
	return err
}
