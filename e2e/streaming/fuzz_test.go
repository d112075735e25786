package streaming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KromDaniel/regscan/pkg/regscan"
	"github.com/KromDaniel/regscan/stream"
)

var fuzzPatterns = []regscan.Pattern{
	regscan.MustPattern(`\d+`),
	regscan.MustPattern(`ab+c`, regscan.Caseless),
	regscan.MustPattern(`\bword\b`),
	regscan.MustPattern(`x$`),
	regscan.MustPattern(`^y`, regscan.MultiLine),
	regscan.MustPattern(`q.q`, regscan.DotAll|regscan.SingleMatch),
}

// FuzzStreamMatchesBlock checks that chunking never changes the reported matches.
// To run: go test -fuzz=FuzzStreamMatchesBlock ./e2e/streaming/
func FuzzStreamMatchesBlock(f *testing.F) {
	f.Add([]byte("abbbc 123 word y\nyx"), uint8(1))
	f.Add([]byte("q\nq words 9 ABC"), uint8(3))
	f.Add([]byte("\xff\x00word\xe6x"), uint8(2))

	db, err := regscan.Compile(regscan.Stream, fuzzPatterns)
	require.NoError(f, err)

	f.Fuzz(func(t *testing.T, data []byte, size uint8) {
		want := blockMatches(t, fuzzPatterns, data)

		var got []match
		s, err := regscan.Build(db, &got, record)
		require.NoError(t, err)
		defer s.Close()

		_, err = stream.ScanChunks(s, data, int(size))
		require.NoError(t, err)
		_, err = s.Reset()
		require.NoError(t, err)

		assert.Equal(t, want, got)
	})
}
