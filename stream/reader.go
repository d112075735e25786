package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/KromDaniel/regscan/pkg/regscan"
)

// ErrNotStream is returned when a scanner was not built from a Stream database.
var ErrNotStream = errors.New("stream: scanner is not in stream mode")

// bufPool holds read buffers of DefaultBufferSize.
var bufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufferSize)
		return &buf
	},
}

// ScanReader feeds r to s chunk by chunk until EOF, Terminate, a read error,
// or cancellation of ctx (checked between chunks). At EOF the stream is reset
// so matches that need the end of data are delivered; offsets of a later scan
// on s start again at zero.
//
// s must be a Stream scanner. ScanReader does not close it.
func ScanReader[C any](ctx context.Context, s *regscan.Scanner[C], r io.Reader, cfg Config) (regscan.Scan, error) {
	if s.Database().Mode() != regscan.Stream {
		return regscan.Terminate, ErrNotStream
	}
	if err := cfg.Validate(); err != nil {
		return regscan.Terminate, err
	}
	cfg = cfg.ApplyDefaults()

	var buf []byte
	if cfg.BufferSize == DefaultBufferSize {
		ptr := bufPool.Get().(*[]byte)
		defer bufPool.Put(ptr)
		buf = *ptr
	} else {
		buf = make([]byte, cfg.BufferSize)
	}

	for {
		if err := ctx.Err(); err != nil {
			return regscan.Terminate, err
		}
		n, rerr := r.Read(buf)
		if n > 0 {
			result, err := s.Scan(buf[:n])
			if err != nil || result == regscan.Terminate {
				return result, err
			}
		}
		if errors.Is(rerr, io.EOF) {
			return s.Reset()
		}
		if rerr != nil {
			return regscan.Terminate, fmt.Errorf("stream: read: %w", rerr)
		}
	}
}

// ScanChunks feeds data to a Stream scanner in chunks of size bytes, stopping
// at the first Terminate. A size of zero or less scans data in one call.
// The stream is left open so more data can follow.
func ScanChunks[C any](s *regscan.Scanner[C], data []byte, size int) (regscan.Scan, error) {
	if s.Database().Mode() != regscan.Stream {
		return regscan.Terminate, ErrNotStream
	}
	if size <= 0 || size >= len(data) {
		return s.Scan(data)
	}
	result := regscan.Continue
	for off := 0; off < len(data); off += size {
		end := min(off+size, len(data))
		var err error
		result, err = s.Scan(data[off:end])
		if err != nil || result == regscan.Terminate {
			return result, err
		}
	}
	return result, nil
}
