// Package streaming holds end-to-end tests that drive Stream-mode scanners
// through readers of every shape and compare them with block scans.
package streaming

import (
	"io"
	"math/rand"
)

// PatternedReader generates data with a pattern embedded at the start of every
// cycle of matchEvery bytes and noise in between.
type PatternedReader struct {
	pattern    []byte
	noise      []byte
	matchEvery int
	pos        int64
	limit      int64
	rng        *rand.Rand
}

// NewPatternedReader creates a deterministic reader of limit bytes.
func NewPatternedReader(pattern string, noiseChars string, matchEvery int, limit int64) *PatternedReader {
	return &PatternedReader{
		pattern:    []byte(pattern),
		noise:      []byte(noiseChars),
		matchEvery: matchEvery,
		limit:      limit,
		rng:        rand.New(rand.NewSource(42)),
	}
}

func (r *PatternedReader) Read(p []byte) (n int, err error) {
	if r.pos >= r.limit {
		return 0, io.EOF
	}
	for n < len(p) && r.pos < r.limit {
		posInCycle := int(r.pos % int64(r.matchEvery))
		if posInCycle < len(r.pattern) {
			p[n] = r.pattern[posInCycle]
		} else {
			p[n] = r.noise[r.rng.Intn(len(r.noise))]
		}
		n++
		r.pos++
	}
	return n, nil
}

// Starts returns the offsets of every complete embedded pattern.
func (r *PatternedReader) Starts() []uint64 {
	var out []uint64
	for start := int64(0); start+int64(len(r.pattern)) <= r.limit; start += int64(r.matchEvery) {
		out = append(out, uint64(start))
	}
	return out
}

// NewDateInputGenerator embeds YYYY-MM-DD dates every 50 bytes of digit-free noise.
func NewDateInputGenerator(size int64) *PatternedReader {
	return NewPatternedReader("2024-01-15", "abcdefghijk \n\t", 50, size)
}

// ChunkedReader returns at most chunkSize bytes per Read, simulating
// fragmented network reads.
type ChunkedReader struct {
	reader    io.Reader
	chunkSize int
}

// NewChunkedReader wraps r. A chunkSize below one is treated as one.
func NewChunkedReader(r io.Reader, chunkSize int) *ChunkedReader {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &ChunkedReader{reader: r, chunkSize: chunkSize}
}

func (r *ChunkedReader) Read(p []byte) (n int, err error) {
	return r.reader.Read(p[:min(len(p), r.chunkSize)])
}
