package compiler

import "github.com/KromDaniel/regscan/internal/engine"

// state runs every machine of an automaton in lockstep over the same bytes.
type state struct {
	machines []*machine
	offset   uint64
}

var _ engine.State = (*state)(nil)

func newState(a *Automaton) *state {
	s := &state{machines: make([]*machine, 0, len(a.programs))}
	for _, p := range a.programs {
		if p.quiet {
			continue
		}
		s.machines = append(s.machines, newMachine(p))
	}
	return s
}

// Feed implements engine.State. Each byte is processed in two phases:
// first every machine settles the position before it, then every machine
// consumes it. Reports therefore come out in ascending end offset, ties in
// pattern order.
func (s *state) Feed(data []byte, emit engine.EmitFunc) error {
	for _, m := range s.machines {
		if !m.ensure(emit) {
			s.abandon(data)
			return engine.ErrStopped
		}
	}
	for _, b := range data {
		for _, m := range s.machines {
			if !m.lookahead(b, emit) {
				s.abandon(data)
				return engine.ErrStopped
			}
		}
		for _, m := range s.machines {
			if !m.advance(b, emit) {
				s.abandon(data)
				return engine.ErrStopped
			}
		}
	}
	s.offset += uint64(len(data))
	return nil
}

// abandon skips the rest of data after a stop so the next Feed starts at the
// end of this chunk. Without data every machine is already consistent.
func (s *state) abandon(data []byte) {
	if len(data) == 0 {
		return
	}
	s.offset += uint64(len(data))
	last := data[len(data)-1]
	for _, m := range s.machines {
		m.resync(s.offset, m.symbolOf(last))
	}
}

// Finish implements engine.State.
func (s *state) Finish(emit engine.EmitFunc) error {
	for _, m := range s.machines {
		if !m.finish(emit) {
			return engine.ErrStopped
		}
	}
	return nil
}

// Reset implements engine.State.
func (s *state) Reset() {
	s.offset = 0
	for _, m := range s.machines {
		m.reset()
	}
}

// Offset implements engine.State.
func (s *state) Offset() uint64 {
	return s.offset
}

// Close implements engine.State.
func (s *state) Close() error {
	s.machines = nil
	return nil
}
