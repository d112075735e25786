package compiler

import "regexp/syntax"

// lookaheadOps are the assertions that can only be decided once the symbol
// after the current position (or the end of data) is known.
const lookaheadOps = syntax.EmptyEndLine | syntax.EmptyEndText |
	syntax.EmptyWordBoundary | syntax.EmptyNoWordBoundary

// isAnchored checks if the regex is anchored to the start of text.
func isAnchored(prog *syntax.Prog) bool {
	if prog == nil || len(prog.Inst) == 0 {
		return false
	}
	return prog.StartCond()&syntax.EmptyBeginText != 0
}

// matchesEmpty reports whether the program can reach its match instruction
// without consuming input, assuming every assertion may hold.
func matchesEmpty(prog *syntax.Prog) bool {
	return reachesMatch(prog, func(syntax.EmptyOp) bool { return true })
}

// matchesOnlyAtEnd reports whether every match requires the end of data.
func matchesOnlyAtEnd(prog *syntax.Prog) bool {
	notAtEnd := func(op syntax.EmptyOp) bool { return op&syntax.EmptyEndText == 0 }
	return !reachesMatchConsuming(prog, notAtEnd)
}

// hasEndAssertion reports whether any instruction asserts end of line or text.
func hasEndAssertion(prog *syntax.Prog) bool {
	for i := range prog.Inst {
		inst := &prog.Inst[i]
		if inst.Op == syntax.InstEmptyWidth && syntax.EmptyOp(inst.Arg)&(syntax.EmptyEndLine|syntax.EmptyEndText) != 0 {
			return true
		}
	}
	return false
}

// needsLookahead reports whether any assertion depends on the next symbol.
func needsLookahead(prog *syntax.Prog) bool {
	for i := range prog.Inst {
		inst := &prog.Inst[i]
		if inst.Op == syntax.InstEmptyWidth && syntax.EmptyOp(inst.Arg)&lookaheadOps != 0 {
			return true
		}
	}
	return false
}

// reachesMatch walks epsilon transitions from the start instruction.
func reachesMatch(prog *syntax.Prog, pass func(syntax.EmptyOp) bool) bool {
	seen := make([]bool, len(prog.Inst))
	var walk func(pc uint32) bool
	walk = func(pc uint32) bool {
		if seen[pc] {
			return false
		}
		seen[pc] = true
		inst := &prog.Inst[pc]
		switch inst.Op {
		case syntax.InstMatch:
			return true
		case syntax.InstAlt, syntax.InstAltMatch:
			return walk(inst.Out) || walk(inst.Arg)
		case syntax.InstCapture, syntax.InstNop:
			return walk(inst.Out)
		case syntax.InstEmptyWidth:
			if pass(syntax.EmptyOp(inst.Arg)) {
				return walk(inst.Out)
			}
		}
		return false
	}
	return walk(uint32(prog.Start))
}

// reachesMatchConsuming is reachesMatch over the whole instruction graph,
// following rune transitions as well.
func reachesMatchConsuming(prog *syntax.Prog, pass func(syntax.EmptyOp) bool) bool {
	seen := make([]bool, len(prog.Inst))
	stack := []uint32{uint32(prog.Start)}
	for len(stack) > 0 {
		pc := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[pc] {
			continue
		}
		seen[pc] = true
		inst := &prog.Inst[pc]
		switch inst.Op {
		case syntax.InstMatch:
			return true
		case syntax.InstAlt, syntax.InstAltMatch:
			stack = append(stack, inst.Out, inst.Arg)
		case syntax.InstEmptyWidth:
			if pass(syntax.EmptyOp(inst.Arg)) {
				stack = append(stack, inst.Out)
			}
		case syntax.InstFail:
		default:
			stack = append(stack, inst.Out)
		}
	}
	return false
}
