package compiler

import (
	"regexp/syntax"
	"unicode/utf8"

	"github.com/KromDaniel/regscan/internal/engine"
)

// thread is a pending NFA state: an instruction and the leftmost offset at
// which a match through it could have started.
type thread struct {
	pc    uint32
	start uint64
}

// machine simulates one program with Thompson's algorithm, all NFA states at
// once, one input symbol at a time. Because the whole simulation state lives
// in the machine, it can stop after any byte and resume with the next chunk.
//
// Threads reaching the same instruction at the same position are merged and
// keep the smallest start, so every reported match carries its leftmost start.
//
// Assertions that depend on the following symbol ($, \z, \b, \B) cannot be
// decided at the end of a chunk. Threads blocked on them are parked and
// resumed once the next byte (or the end of data) is seen; a match at a
// position with parked threads is held back until then.
type machine struct {
	p *program

	pos  uint64
	prev rune

	gen   uint32
	mark  []uint32
	start []uint64

	runq   []uint32
	parked []uint32
	carry  []thread

	matched    bool
	matchStart uint64

	haveNext bool
	next     rune

	ready    bool
	awaiting bool
	done     bool

	pend  [utf8.UTFMax]byte
	npend int
}

func newMachine(p *program) *machine {
	m := &machine{
		p:     p,
		mark:  make([]uint32, len(p.prog.Inst)),
		start: make([]uint64, len(p.prog.Inst)),
	}
	m.reset()
	return m
}

// reset returns the machine to the beginning of data.
func (m *machine) reset() {
	m.resync(0, -1)
	m.done = false
}

// resync drops all in-flight threads and continues at pos, with prev as the
// symbol before it.
func (m *machine) resync(pos uint64, prev rune) {
	m.pos = pos
	m.prev = prev
	m.runq = m.runq[:0]
	m.parked = m.parked[:0]
	m.matched = false
	m.ready = false
	m.awaiting = false
	m.haveNext = false
	m.next = -1
	m.npend = 0
}

func (m *machine) nextGen() {
	m.gen++
	if m.gen == 0 {
		for i := range m.mark {
			m.mark[i] = 0
		}
		m.gen = 1
	}
}

// add follows epsilon transitions from pc at the current position.
func (m *machine) add(pc uint32, st uint64) {
	first := m.mark[pc] != m.gen
	if !first && m.start[pc] <= st {
		return
	}
	m.mark[pc] = m.gen
	m.start[pc] = st

	inst := &m.p.prog.Inst[pc]
	switch inst.Op {
	case syntax.InstAlt, syntax.InstAltMatch:
		m.add(inst.Out, st)
		m.add(inst.Arg, st)
	case syntax.InstCapture, syntax.InstNop:
		m.add(inst.Out, st)
	case syntax.InstEmptyWidth:
		op := syntax.EmptyOp(inst.Arg)
		if op&lookaheadOps != 0 && !m.haveNext {
			if first {
				m.parked = append(m.parked, pc)
			}
			return
		}
		if op&^syntax.EmptyOpContext(m.prev, m.next) == 0 {
			m.add(inst.Out, st)
		}
	case syntax.InstMatch:
		if !m.matched || st < m.matchStart {
			m.matched = true
			m.matchStart = st
		}
	case syntax.InstRune, syntax.InstRune1, syntax.InstRuneAny, syntax.InstRuneAnyNotNL:
		if first {
			m.runq = append(m.runq, pc)
		}
	}
}

// closure computes the thread set at the current position from the threads
// carried over the last symbol plus a fresh search start.
func (m *machine) closure(carry []thread, emit engine.EmitFunc) bool {
	m.nextGen()
	m.runq = m.runq[:0]
	m.parked = m.parked[:0]
	m.matched = false

	for _, t := range carry {
		m.add(t.pc, t.start)
	}
	if !m.p.anchored || m.prev < 0 {
		m.add(uint32(m.p.prog.Start), m.pos)
	}
	m.ready = true

	if len(m.parked) > 0 {
		m.awaiting = true
		return true
	}
	return m.report(emit)
}

// ensure computes the closure at the current position if it is still pending.
func (m *machine) ensure(emit engine.EmitFunc) bool {
	if m.ready {
		return true
	}
	return m.closure(nil, emit)
}

// resolve resumes parked threads now that the next symbol is known.
// next is -1 at end of data.
func (m *machine) resolve(next rune, emit engine.EmitFunc) bool {
	if !m.awaiting {
		return true
	}
	m.awaiting = false
	m.haveNext, m.next = true, next
	for _, pc := range m.parked {
		inst := &m.p.prog.Inst[pc]
		if syntax.EmptyOp(inst.Arg)&^syntax.EmptyOpContext(m.prev, next) == 0 {
			m.add(inst.Out, m.start[pc])
		}
	}
	m.parked = m.parked[:0]
	m.haveNext, m.next = false, -1
	return m.report(emit)
}

func (m *machine) report(emit engine.EmitFunc) bool {
	if !m.matched {
		return true
	}
	m.matched = false
	if m.p.single {
		m.done = true
		m.runq = m.runq[:0]
	}
	return emit(m.p.index, m.matchStart, m.pos)
}

// consume advances over one symbol c that is w bytes wide.
func (m *machine) consume(c rune, w int, emit engine.EmitFunc) bool {
	if !m.ensure(emit) || !m.resolve(c, emit) {
		return false
	}
	if m.done {
		return true
	}

	carry := m.carry[:0]
	for _, pc := range m.runq {
		inst := &m.p.prog.Inst[pc]
		var ok bool
		switch inst.Op {
		case syntax.InstRune:
			ok = inst.MatchRune(c)
		case syntax.InstRune1:
			ok = c == inst.Rune[0]
		case syntax.InstRuneAny:
			ok = true
		case syntax.InstRuneAnyNotNL:
			ok = c != '\n'
		}
		if ok {
			carry = append(carry, thread{pc: inst.Out, start: m.start[pc]})
		}
	}
	m.carry = carry

	m.pos += uint64(w)
	m.prev = c
	return m.closure(carry, emit)
}

// lookahead settles the current position using the first byte of the next
// symbol, before any machine consumes it. This keeps reports ordered by end
// offset across machines.
func (m *machine) lookahead(b byte, emit engine.EmitFunc) bool {
	if m.done || (m.p.utf8 && m.npend > 0) {
		return true
	}
	if !m.ensure(emit) {
		return false
	}
	return m.resolve(m.symbolOf(b), emit)
}

// advance feeds one byte, consuming a symbol when one is complete.
func (m *machine) advance(b byte, emit engine.EmitFunc) bool {
	if m.done {
		return true
	}
	if !m.p.utf8 {
		return m.consume(rune(b), 1, emit)
	}
	m.pend[m.npend] = b
	m.npend++
	for m.npend > 0 && utf8.FullRune(m.pend[:m.npend]) {
		if !m.consumePending(emit) {
			return false
		}
	}
	return true
}

func (m *machine) consumePending(emit engine.EmitFunc) bool {
	r, w := utf8.DecodeRune(m.pend[:m.npend])
	copy(m.pend[:], m.pend[w:m.npend])
	m.npend -= w
	return m.consume(r, w, emit)
}

// finish flushes an incomplete trailing rune and settles the end of data.
func (m *machine) finish(emit engine.EmitFunc) bool {
	if m.done {
		return true
	}
	for m.npend > 0 {
		if !m.consumePending(emit) {
			return false
		}
	}
	if !m.ensure(emit) {
		return false
	}
	return m.resolve(-1, emit)
}

// symbolOf returns what assertions need to know about the symbol starting
// with b: bytes above ASCII are neither word characters nor newlines.
func (m *machine) symbolOf(b byte) rune {
	if m.p.utf8 && b >= utf8.RuneSelf {
		return utf8.RuneError
	}
	return rune(b)
}
