package streams

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/KromDaniel/regscan/pkg/regscan"
	"github.com/KromDaniel/regscan/stream"
)

var benchPatterns = []regscan.Pattern{
	regscan.MustPattern(`\w+@\w+\.\w+`).WithTag("email"),
	regscan.MustPattern(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`).WithTag("ipv4"),
	regscan.MustPattern(`error`, regscan.Caseless).WithTag("error"),
}

// generateMixedInput creates test input with emails, IPs and log lines.
func generateMixedInput(size int) string {
	var b strings.Builder
	items := []string{
		"Contact: user@example.com\n",
		"Server: 192.168.1.1\n",
		"ERROR: disk full\n",
		"IP: 10.0.0.1\n",
	}
	for i := 0; b.Len() < size; i++ {
		b.WriteString(items[i%len(items)])
	}
	return b.String()[:size]
}

func compile(b *testing.B, mode regscan.Mode) *regscan.Database {
	b.Helper()
	db, err := regscan.Compile(mode, benchPatterns)
	if err != nil {
		b.Fatal(err)
	}
	return db
}

func count(n *int, _ regscan.Tag, _, _ uint64) regscan.Scan {
	*n++
	return regscan.Continue
}

// BenchmarkBlock scans 1MB in a single call.
func BenchmarkBlock(b *testing.B) {
	input := []byte(generateMixedInput(1024 * 1024))
	var n int
	s, err := regscan.Build(compile(b, regscan.Block), &n, count)
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()

	b.ReportAllocs()
	b.SetBytes(int64(len(input)))
	for b.Loop() {
		if _, err := s.Scan(input); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkVectored scans 1MB split at line boundaries.
func BenchmarkVectored(b *testing.B) {
	input := []byte(generateMixedInput(1024 * 1024))
	buffers := bytes.SplitAfter(input, []byte("\n"))
	var n int
	s, err := regscan.Build(compile(b, regscan.Vectored), &n, count)
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()

	b.ReportAllocs()
	b.SetBytes(int64(len(input)))
	for b.Loop() {
		if _, err := s.ScanVector(buffers); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkScanReader streams 1MB through the default read buffer.
func BenchmarkScanReader(b *testing.B) {
	input := generateMixedInput(1024 * 1024)
	var n int
	s, err := regscan.Build(compile(b, regscan.Stream), &n, count)
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()

	b.ReportAllocs()
	b.SetBytes(int64(len(input)))
	for b.Loop() {
		if _, err := stream.ScanReader(context.Background(), s, strings.NewReader(input), stream.Config{}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPipeline_LineFilter streams only the lines that mention ERROR.
func BenchmarkPipeline_LineFilter(b *testing.B) {
	input := generateMixedInput(1024 * 1024)
	var n int
	s, err := regscan.Build(compile(b, regscan.Stream), &n, count)
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()

	b.ReportAllocs()
	b.SetBytes(int64(len(input)))
	for b.Loop() {
		r := stream.LineFilter(strings.NewReader(input), func(line []byte) bool {
			return bytes.HasPrefix(line, []byte("ERROR"))
		})
		if _, err := stream.ScanReader(context.Background(), s, r, stream.Config{}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPatternFilter keeps the lines of 1MB that contain any match.
func BenchmarkPatternFilter(b *testing.B) {
	input := generateMixedInput(1024 * 1024)
	db := compile(b, regscan.Block)

	b.ReportAllocs()
	b.SetBytes(int64(len(input)))
	for b.Loop() {
		r, err := stream.PatternFilter(strings.NewReader(input), db)
		if err != nil {
			b.Fatal(err)
		}
		var out bytes.Buffer
		if _, err := out.ReadFrom(r); err != nil {
			b.Fatal(err)
		}
	}
}
