package regscan

import (
	"errors"
	"fmt"

	"github.com/KromDaniel/regscan/internal/engine"
)

// Scan is the result of a match handler and of a scan call.
type Scan int

const (
	// Continue asks for further matches.
	Continue Scan = iota
	// Terminate stops the current scan call immediately.
	Terminate
)

func (s Scan) String() string {
	switch s {
	case Continue:
		return "Continue"
	case Terminate:
		return "Terminate"
	}
	return fmt.Sprintf("Scan(%d)", int(s))
}

// MatchHandler receives every match with the scanner's context, the tag of the
// matching pattern and the match bounds. Offsets are absolute for the mode:
// within the buffer, across the vector, or across the stream.
type MatchHandler[C any] func(ctx C, tag Tag, from, to uint64) Scan

// driver turns raw engine reports into handler calls for one scan call and
// aggregates the handler results.
type driver[C any] struct {
	s       *Scanner[C]
	result  Scan
	err     error
	matches int
}

func (d *driver[C]) emit(index int, start, end uint64) bool {
	tag := d.s.db.tags.lookup(index)
	d.matches++
	switch r := d.s.handler(d.s.ctx, tag, start, end); r {
	case Continue:
		return true
	case Terminate:
		d.result = Terminate
		return false
	default:
		d.err = &CallbackContractError{Result: r, Tag: tag}
		return false
	}
}

// settle combines the engine outcome with the handler results.
func (d *driver[C]) settle(err error) (Scan, error) {
	switch {
	case d.err != nil:
		return Terminate, d.err
	case err == nil, errors.Is(err, engine.ErrStopped):
		return d.result, nil
	default:
		return Terminate, fmt.Errorf("regscan: scan: %w", err)
	}
}

// feed runs the engine over every buffer, stopping at the first stop or error.
func feed(state engine.State, buffers [][]byte, emit engine.EmitFunc) (int, error) {
	n := 0
	for _, b := range buffers {
		n += len(b)
		if err := state.Feed(b, emit); err != nil {
			return n, err
		}
	}
	return n, nil
}
