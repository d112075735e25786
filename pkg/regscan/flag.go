package regscan

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/KromDaniel/regscan/internal/engine"
)

// Flag modifies how a pattern is compiled and matched. Flags combine with |.
type Flag uint32

const (
	// Caseless matches letters regardless of case.
	Caseless Flag = Flag(engine.FlagCaseless)
	// DotAll makes . match a newline.
	DotAll Flag = Flag(engine.FlagDotAll)
	// MultiLine makes ^ and $ match at line boundaries.
	MultiLine Flag = Flag(engine.FlagMultiLine)
	// SingleMatch reports a pattern at most once per scan (or per stream).
	SingleMatch Flag = Flag(engine.FlagSingleMatch)
	// AllowEmpty permits patterns that can match the empty buffer.
	AllowEmpty Flag = Flag(engine.FlagAllowEmpty)
	// UTF8 treats both the expression and the input as UTF-8.
	UTF8 Flag = Flag(engine.FlagUTF8)
	// UCP uses Unicode properties for character classes. Requires UTF8.
	UCP Flag = Flag(engine.FlagUCP)
	// Prefilter allows the engine to report a superset of the matches.
	Prefilter Flag = Flag(engine.FlagPrefilter)
	// SomLeftmost requests the leftmost start of match. Always in effect.
	SomLeftmost Flag = Flag(engine.FlagSomLeftmost)
	// Combination marks a logical combination of other patterns.
	Combination Flag = Flag(engine.FlagCombination)
	// Quiet suppresses reports for the pattern.
	Quiet Flag = Flag(engine.FlagQuiet)
)

const allFlags = Flag(engine.FlagMask)

var flagNames = []struct {
	flag Flag
	name string
}{
	{Caseless, "CASELESS"},
	{DotAll, "DOTALL"},
	{MultiLine, "MULTILINE"},
	{SingleMatch, "SINGLEMATCH"},
	{AllowEmpty, "ALLOWEMPTY"},
	{UTF8, "UTF8"},
	{UCP, "UCP"},
	{Prefilter, "PREFILTER"},
	{SomLeftmost, "SOM_LEFTMOST"},
	{Combination, "COMBINATION"},
	{Quiet, "QUIET"},
}

// Valid reports whether f is a non-empty combination of known flags.
func (f Flag) Valid() bool {
	return f != 0 && f&^allFlags == 0
}

// String renders the flag set as NAME|NAME.
func (f Flag) String() string {
	if f == 0 {
		return "0"
	}
	names := make([]string, 0, bits.OnesCount32(uint32(f)))
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	if rest := f &^ allFlags; rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(names, "|")
}

// ParseFlag parses one flag name as written by String. Case is ignored.
func ParseFlag(name string) (Flag, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, fn := range flagNames {
		if fn.name == upper {
			return fn.flag, nil
		}
	}
	return 0, &ArgumentError{Arg: "flag", Msg: fmt.Sprintf("unknown flag %q", name)}
}

// Names returns the names of the flags set in f, in bit order.
func (f Flag) Names() []string {
	var out []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			out = append(out, fn.name)
		}
	}
	return out
}
