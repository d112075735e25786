package regscan

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPatterns is wrapped by the CompileError returned for an empty pattern list.
	ErrNoPatterns = errors.New("no patterns to compile")
	// ErrClosed is matched by the StateError returned when scanning a closed stream.
	ErrClosed = errors.New("scanner is closed")
)

// ArgumentError reports malformed input to a constructor or method.
type ArgumentError struct {
	Arg string
	Msg string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("regscan: invalid %s: %s", e.Arg, e.Msg)
}

// CompileError reports a pattern set the engine rejected.
// Expression is the index of the offending pattern, or -1.
type CompileError struct {
	Expression int
	Message    string

	err error
}

func (e *CompileError) Error() string {
	if e.Expression < 0 {
		return fmt.Sprintf("regscan: compile: %s", e.Message)
	}
	return fmt.Sprintf("regscan: compile pattern %d: %s", e.Expression, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.err
}

// CallbackContractError reports a match handler result other than Continue or Terminate.
type CallbackContractError struct {
	Result Scan
	Tag    Tag
}

func (e *CallbackContractError) Error() string {
	return fmt.Sprintf("regscan: match handler for %s returned %d, want Continue or Terminate", e.Tag, int(e.Result))
}

// StateError reports an operation that is illegal in the scanner's current state.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("regscan: cannot %s: scanner is %s", e.Op, e.State)
}

func (e *StateError) Is(target error) bool {
	return target == ErrClosed && e.State == stateClosed
}
