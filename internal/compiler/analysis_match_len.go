package compiler

import (
	"regexp/syntax"
	"unicode/utf8"
)

// MatchLengthAnalysis holds the computed match length bounds for a pattern.
type MatchLengthAnalysis struct {
	// MinMatchLen is the minimum number of bytes any match can have.
	// Always >= 0.
	MinMatchLen int

	// MaxMatchLen is the maximum number of bytes any match can have.
	// -1 means unbounded (e.g., patterns with * or + quantifiers).
	MaxMatchLen int
}

// AnalyzeMatchLength computes the minimum and maximum match lengths for a pattern.
// In byte mode (utf8 false) every symbol is one byte wide.
func AnalyzeMatchLength(re *syntax.Regexp, utf8Mode bool) MatchLengthAnalysis {
	if re == nil {
		return MatchLengthAnalysis{MinMatchLen: 0, MaxMatchLen: 0}
	}
	w := widths{utf8: utf8Mode}
	return MatchLengthAnalysis{
		MinMatchLen: w.minMatchLen(re),
		MaxMatchLen: w.maxMatchLen(re),
	}
}

// widths measures symbols in bytes for one input encoding.
type widths struct {
	utf8 bool
}

func (w widths) runeLen(r rune) int {
	if !w.utf8 {
		return 1
	}
	if n := utf8.RuneLen(r); n > 0 {
		return n
	}
	return 3
}

func (w widths) anyLen() int {
	if !w.utf8 {
		return 1
	}
	return utf8.UTFMax
}

// minMatchLen computes the minimum number of bytes required for a match.
// This is a lower bound - the actual match will be at least this many bytes.
func (w widths) minMatchLen(re *syntax.Regexp) int {
	if re == nil {
		return 0
	}

	switch re.Op {
	case syntax.OpNoMatch:
		// Can never match
		return 0

	case syntax.OpEmptyMatch:
		// Empty string matches
		return 0

	case syntax.OpLiteral:
		// Sum of encoded lengths of all runes
		total := 0
		for _, r := range re.Rune {
			total += w.runeLen(r)
		}
		return total

	case syntax.OpCharClass:
		// At least one rune from the class
		if len(re.Rune) == 0 {
			return 0
		}
		// Find minimum rune length in the class
		// Runes are stored as pairs [lo, hi]
		minLen := utf8.UTFMax
		for i := 0; i < len(re.Rune); i += 2 {
			lo := re.Rune[i]
			// The smallest rune in this range determines min bytes
			runeLen := w.runeLen(lo)
			if runeLen < minLen {
				minLen = runeLen
			}
		}
		return minLen

	case syntax.OpAnyCharNotNL, syntax.OpAnyChar:
		// At least 1 byte (could be multi-byte for Unicode)
		return 1

	case syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		// Zero-width assertions
		return 0

	case syntax.OpCapture:
		// Capture group has same length as its content
		if len(re.Sub) > 0 {
			return w.minMatchLen(re.Sub[0])
		}
		return 0

	case syntax.OpStar:
		// Zero or more - minimum is 0
		return 0

	case syntax.OpPlus:
		// One or more - minimum is one occurrence
		if len(re.Sub) > 0 {
			return w.minMatchLen(re.Sub[0])
		}
		return 0

	case syntax.OpQuest:
		// Zero or one - minimum is 0
		return 0

	case syntax.OpRepeat:
		// {n,m} - minimum is n occurrences
		if len(re.Sub) > 0 {
			return re.Min * w.minMatchLen(re.Sub[0])
		}
		return 0

	case syntax.OpConcat:
		// Sum of all parts
		total := 0
		for _, sub := range re.Sub {
			total += w.minMatchLen(sub)
		}
		return total

	case syntax.OpAlternate:
		// Minimum of all alternatives
		if len(re.Sub) == 0 {
			return 0
		}
		min := w.minMatchLen(re.Sub[0])
		for _, sub := range re.Sub[1:] {
			subMin := w.minMatchLen(sub)
			if subMin < min {
				min = subMin
			}
		}
		return min

	default:
		return 0
	}
}

// maxMatchLen computes the maximum number of bytes a match can have.
// Returns -1 if the match length is unbounded (e.g., patterns with * or +).
func (w widths) maxMatchLen(re *syntax.Regexp) int {
	if re == nil {
		return 0
	}

	switch re.Op {
	case syntax.OpNoMatch:
		return 0

	case syntax.OpEmptyMatch:
		return 0

	case syntax.OpLiteral:
		// Sum of encoded lengths of all runes
		total := 0
		for _, r := range re.Rune {
			total += w.runeLen(r)
		}
		return total

	case syntax.OpCharClass:
		// Maximum byte length of any rune in the class
		if len(re.Rune) == 0 {
			return 0
		}
		maxLen := 1
		for i := 0; i < len(re.Rune); i += 2 {
			hi := re.Rune[i+1]
			// The largest rune in this range determines max bytes
			runeLen := w.runeLen(hi)
			if runeLen > maxLen {
				maxLen = runeLen
			}
		}
		return maxLen

	case syntax.OpAnyCharNotNL, syntax.OpAnyChar:
		// Could be up to 4 bytes for Unicode
		return w.anyLen()

	case syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		// Zero-width assertions
		return 0

	case syntax.OpCapture:
		if len(re.Sub) > 0 {
			return w.maxMatchLen(re.Sub[0])
		}
		return 0

	case syntax.OpStar, syntax.OpPlus:
		// Unbounded
		return -1

	case syntax.OpQuest:
		// Zero or one - maximum is one occurrence
		if len(re.Sub) > 0 {
			return w.maxMatchLen(re.Sub[0])
		}
		return 0

	case syntax.OpRepeat:
		// {n,m} - if m is -1 (unbounded), return -1
		if re.Max == -1 {
			return -1
		}
		if len(re.Sub) > 0 {
			subMax := w.maxMatchLen(re.Sub[0])
			if subMax == -1 {
				return -1
			}
			return re.Max * subMax
		}
		return 0

	case syntax.OpConcat:
		// Sum of all parts - if any is unbounded, result is unbounded
		total := 0
		for _, sub := range re.Sub {
			subMax := w.maxMatchLen(sub)
			if subMax == -1 {
				return -1
			}
			total += subMax
		}
		return total

	case syntax.OpAlternate:
		// Maximum of all alternatives - if any is unbounded, result is unbounded
		if len(re.Sub) == 0 {
			return 0
		}
		max := 0
		for _, sub := range re.Sub {
			subMax := w.maxMatchLen(sub)
			if subMax == -1 {
				return -1
			}
			if subMax > max {
				max = subMax
			}
		}
		return max

	default:
		return 0
	}
}
