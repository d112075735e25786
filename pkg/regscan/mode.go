package regscan

import (
	"fmt"
	"strings"

	"github.com/KromDaniel/regscan/internal/engine"
)

// Mode selects the input shape a Database accepts.
type Mode int

const (
	// Block scans one contiguous buffer per call.
	Block Mode = iota
	// Vectored scans a sequence of buffers as one logical input per call.
	Vectored
	// Stream scans chunks across calls, carrying state between them.
	Stream
)

func (m Mode) String() string {
	switch m {
	case Block:
		return "block"
	case Vectored:
		return "vectored"
	case Stream:
		return "stream"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) valid() bool {
	return m >= Block && m <= Stream
}

func (m Mode) engine() engine.Mode {
	switch m {
	case Vectored:
		return engine.Vectored
	case Stream:
		return engine.Stream
	}
	return engine.Block
}

// ParseMode parses a mode name as written by String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block":
		return Block, nil
	case "vectored", "vector":
		return Vectored, nil
	case "stream":
		return Stream, nil
	}
	return 0, &ArgumentError{Arg: "mode", Msg: fmt.Sprintf("unknown mode %q", s)}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, &ArgumentError{Arg: "mode", Msg: fmt.Sprintf("invalid mode %d", int(m))}
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
