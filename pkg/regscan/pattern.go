package regscan

import (
	"bytes"
	"fmt"
	"reflect"
)

// Pattern is one match target: an expression, its flags and an optional tag.
// Patterns are values; the expression is copied in and out.
type Pattern struct {
	expr   []byte
	flags  Flag
	tag    any
	tagged bool
}

// NewPattern creates a pattern from a non-empty expression and any number of
// flags. Every flag must be a combination of the known flags.
func NewPattern(expression []byte, flags ...Flag) (Pattern, error) {
	if len(expression) == 0 {
		return Pattern{}, &ArgumentError{Arg: "expression", Msg: "expression cannot be empty"}
	}
	var combined Flag
	for _, f := range flags {
		if !f.Valid() {
			return Pattern{}, &ArgumentError{Arg: "flags", Msg: fmt.Sprintf("unrecognized flag value 0x%x", uint32(f))}
		}
		combined |= f
	}
	return Pattern{expr: bytes.Clone(expression), flags: combined}, nil
}

// MustPattern is like NewPattern but panics on error.
func MustPattern(expression string, flags ...Flag) Pattern {
	p, err := NewPattern([]byte(expression), flags...)
	if err != nil {
		panic(fmt.Sprintf("regscan: NewPattern(%q): %v", expression, err))
	}
	return p
}

// WithTag returns a copy of p that reports tag instead of its index.
// A nil tag is rejected by Compile.
func (p Pattern) WithTag(tag any) Pattern {
	p.tag = tag
	p.tagged = true
	return p
}

// Expression returns a copy of the expression bytes.
func (p Pattern) Expression() []byte {
	return bytes.Clone(p.expr)
}

// Flags returns the combined flags.
func (p Pattern) Flags() Flag {
	return p.flags
}

// Tag returns the explicit tag and true, or nil and false.
func (p Pattern) Tag() (any, bool) {
	return p.tag, p.tagged
}

// Equal reports whether two patterns have the same expression, flags and tag.
func (p Pattern) Equal(o Pattern) bool {
	return bytes.Equal(p.expr, o.expr) &&
		p.flags == o.flags &&
		p.tagged == o.tagged &&
		reflect.DeepEqual(p.tag, o.tag)
}

func (p Pattern) String() string {
	s := fmt.Sprintf("/%s/", p.expr)
	if p.flags != 0 {
		s += " " + p.flags.String()
	}
	if p.tagged {
		s += fmt.Sprintf(" tag=%v", p.tag)
	}
	return s
}

func (p Pattern) validate(index int) error {
	if len(p.expr) == 0 {
		return &ArgumentError{Arg: fmt.Sprintf("patterns[%d]", index), Msg: "pattern has no expression; use NewPattern"}
	}
	if p.tagged && p.tag == nil {
		return &ArgumentError{Arg: fmt.Sprintf("patterns[%d]", index), Msg: "tag cannot be nil"}
	}
	return nil
}
