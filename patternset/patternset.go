// Package patternset reads and writes pattern sets as YAML documents.
//
// A set file looks like:
//
//	name: web
//	mode: stream
//	patterns:
//	  - expression: 'foo.*bar'
//	    flags: [CASELESS, DOTALL]
//	    tag: foobar
//
// Patterns without a tag report their index.
package patternset

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/KromDaniel/regscan/pkg/regscan"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("patternset: invalid set")

// Set is a named list of patterns compiled for one mode.
type Set struct {
	Name     string  `yaml:"name"`
	Mode     string  `yaml:"mode"`
	Patterns []Entry `yaml:"patterns"`
}

// Entry is one pattern of a Set.
type Entry struct {
	Expression string   `yaml:"expression"`
	Flags      []string `yaml:"flags,omitempty"`
	Tag        string   `yaml:"tag,omitempty"`
}

// Load reads and validates the set stored at path.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("patternset: read %s: %w", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse decodes and validates a YAML document. Unknown fields are rejected.
func Parse(data []byte) (*Set, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var set Set
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("patternset: decode: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Marshal encodes the set as YAML.
func (s *Set) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("patternset: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("patternset: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Validate checks the name, the mode, and every pattern's expression and flags.
// Expressions are not compiled.
func (s *Set) Validate() error {
	_, _, err := s.Resolve()
	return err
}

// Resolve validates the set and returns its mode and patterns, ready for
// regscan.Compile.
func (s *Set) Resolve() (regscan.Mode, []regscan.Pattern, error) {
	if s.Name == "" {
		return 0, nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	mode, err := s.ScanMode()
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(s.Patterns) == 0 {
		return 0, nil, fmt.Errorf("%w: set %q has no patterns", ErrInvalid, s.Name)
	}
	patterns, err := s.ToPatterns()
	if err != nil {
		return 0, nil, err
	}
	return mode, patterns, nil
}

// ScanMode returns the parsed mode. Empty means Block.
func (s *Set) ScanMode() (regscan.Mode, error) {
	if s.Mode == "" {
		return regscan.Block, nil
	}
	return regscan.ParseMode(s.Mode)
}

// ToPatterns converts the entries to regscan patterns, in order.
func (s *Set) ToPatterns() ([]regscan.Pattern, error) {
	out := make([]regscan.Pattern, 0, len(s.Patterns))
	for i, e := range s.Patterns {
		p, err := e.Pattern()
		if err != nil {
			return nil, fmt.Errorf("%w: patterns[%d]: %w", ErrInvalid, i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Pattern converts the entry.
func (e Entry) Pattern() (regscan.Pattern, error) {
	flags := make([]regscan.Flag, 0, len(e.Flags))
	for _, name := range e.Flags {
		f, err := regscan.ParseFlag(name)
		if err != nil {
			return regscan.Pattern{}, err
		}
		flags = append(flags, f)
	}
	p, err := regscan.NewPattern([]byte(e.Expression), flags...)
	if err != nil {
		return regscan.Pattern{}, err
	}
	if e.Tag != "" {
		p = p.WithTag(e.Tag)
	}
	return p, nil
}

// Compile validates the set and compiles it with opts.
func (s *Set) Compile(opts regscan.Options) (*regscan.Database, error) {
	mode, patterns, err := s.Resolve()
	if err != nil {
		return nil, err
	}
	db, err := regscan.CompileWithOptions(mode, patterns, opts)
	if err != nil {
		return nil, fmt.Errorf("patternset: compile %q: %w", s.Name, err)
	}
	return db, nil
}

// FromDatabase describes a compiled database as a Set. Tags are written with
// fmt.Sprint, so non-string tags come back as strings.
func FromDatabase(name string, db *regscan.Database) *Set {
	set := &Set{Name: name, Mode: db.Mode().String()}
	for _, p := range db.Patterns() {
		e := Entry{Expression: string(p.Expression()), Flags: p.Flags().Names()}
		if tag, ok := p.Tag(); ok {
			e.Tag = fmt.Sprint(tag)
		}
		set.Patterns = append(set.Patterns, e)
	}
	return set
}
