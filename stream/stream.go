// Package stream drives Stream-mode scanners from readers and large buffers.
//
// The streaming API scans arbitrarily large inputs (files, network streams)
// with constant memory usage. Matches are delivered through the scanner's
// match handler with offsets relative to the start of the stream.
//
// Example usage:
//
//	file, _ := os.Open("large.log")
//	defer file.Close()
//
//	s, _ := regscan.Build(db, out, handler)
//	defer s.Close()
//
//	result, err := stream.ScanReader(ctx, s, file, stream.Config{
//	    BufferSize: 2 * 1024 * 1024, // 2MB chunks
//	})
package stream

import "fmt"

const (
	// DefaultBufferSize is the read size used when Config.BufferSize is zero.
	DefaultBufferSize = 64 * 1024
	// MinBufferSize is the smallest accepted read size.
	MinBufferSize = 512
)

// Config configures reader-driven scanning.
type Config struct {
	// BufferSize is the chunk size for reading from the io.Reader.
	// Default: 64KB (65536).
	// Larger values reduce syscall overhead but use more memory.
	// Matches may span chunks, so it does not bound the match length.
	BufferSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{BufferSize: DefaultBufferSize}
}

// ErrBufferTooSmall is returned when Config.BufferSize is positive but less
// than MinBufferSize, or negative.
type ErrBufferTooSmall struct {
	Requested int
	Minimum   int
}

func (e ErrBufferTooSmall) Error() string {
	return fmt.Sprintf("stream: buffer size %d too small, minimum %d", e.Requested, e.Minimum)
}

// Validate validates the Config and returns an error if invalid.
// A zero BufferSize is valid and selects the default.
func (c Config) Validate() error {
	if c.BufferSize < 0 || (c.BufferSize > 0 && c.BufferSize < MinBufferSize) {
		return ErrBufferTooSmall{Requested: c.BufferSize, Minimum: MinBufferSize}
	}
	return nil
}

// ApplyDefaults returns a Config with defaults applied for any zero values.
func (c Config) ApplyDefaults() Config {
	result := c
	if result.BufferSize == 0 {
		result.BufferSize = DefaultBufferSize
	}
	return result
}
