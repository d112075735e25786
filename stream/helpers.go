package stream

import (
	"bufio"
	"errors"
	"io"

	"github.com/KromDaniel/regscan/pkg/regscan"
)

// LineFilter returns an io.Reader that only outputs lines matching the predicate.
// Lines are delimited by '\n'. The newline character is included in the line
// passed to the predicate and in the output.
//
// Example - keep only lines containing "ERROR":
//
//	r := stream.LineFilter(input, func(line []byte) bool {
//	    return bytes.Contains(line, []byte("ERROR"))
//	})
//	io.Copy(os.Stdout, r)
func LineFilter(r io.Reader, pred func(line []byte) bool) io.Reader {
	return newLineReader(r, func(line []byte) []byte {
		if pred(line) {
			return line
		}
		return nil
	})
}

// LineTransform returns an io.Reader that transforms each line using the given function.
// Lines are delimited by '\n'. The newline character is included in the line
// passed to the function. The function should return the transformed line
// (including newline if desired).
func LineTransform(r io.Reader, fn func(line []byte) []byte) io.Reader {
	return newLineReader(r, fn)
}

// PatternFilter returns an io.Reader that keeps the lines in which any pattern
// of db matches. db must be a Block database.
func PatternFilter(r io.Reader, db *regscan.Database) (io.Reader, error) {
	if db.Mode() != regscan.Block {
		return nil, &regscan.ArgumentError{Arg: "database", Msg: "line filtering needs a block database"}
	}
	var found bool
	s, err := regscan.Build(db, &found, func(found *bool, _ regscan.Tag, _, _ uint64) regscan.Scan {
		*found = true
		return regscan.Terminate
	})
	if err != nil {
		return nil, err
	}
	var scanErr error
	filter := newLineReader(r, func(line []byte) []byte {
		found = false
		if _, err := s.Scan(line); err != nil {
			scanErr = err
			return nil
		}
		if found {
			return line
		}
		return nil
	})
	filter.fail = func() error { return scanErr }
	filter.done = s.Close
	return filter, nil
}

// lineReader applies fn to every line of source and serves the results.
type lineReader struct {
	source *bufio.Reader
	fn     func(line []byte) []byte
	fail   func() error
	done   func() error // called once when the source is exhausted or fails

	output []byte
	err    error
}

func newLineReader(r io.Reader, fn func(line []byte) []byte) *lineReader {
	return &lineReader{source: bufio.NewReaderSize(r, 4096), fn: fn}
}

func (r *lineReader) Read(p []byte) (int, error) {
	for len(r.output) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.next()
	}
	n := copy(p, r.output)
	r.output = r.output[n:]
	return n, nil
}

// next processes one line, or records the terminal error.
func (r *lineReader) next() {
	line, err := r.source.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		// Long line: collect it in full before handing it to fn.
		long := append([]byte(nil), line...)
		for errors.Is(err, bufio.ErrBufferFull) {
			line, err = r.source.ReadSlice('\n')
			long = append(long, line...)
		}
		line = long
	}
	if len(line) > 0 {
		r.output = append(r.output[:0], r.fn(line)...)
	}
	if r.fail != nil {
		if ferr := r.fail(); ferr != nil {
			r.output = r.output[:0]
			err = ferr
		}
	}
	if err != nil {
		r.err = err
		if r.done != nil {
			// A close error only replaces a clean EOF.
			if derr := r.done(); derr != nil && errors.Is(err, io.EOF) {
				r.err = derr
			}
			r.done = nil
		}
	}
}
