package regscan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type match struct {
	Tag  any
	From uint64
	To   uint64
}

type recorder struct {
	matches []match
	result  func(n int) Scan
}

func handleRecorder(rec *recorder, tag Tag, from, to uint64) Scan {
	rec.matches = append(rec.matches, match{Tag: tag.Value(), From: from, To: to})
	if rec.result != nil {
		return rec.result(len(rec.matches))
	}
	return Continue
}

// take returns the matches seen so far and clears them.
func (r *recorder) take() []match {
	out := r.matches
	r.matches = nil
	return out
}

func mustCompile(t *testing.T, mode Mode, patterns ...Pattern) *Database {
	t.Helper()
	db, err := Compile(mode, patterns)
	require.NoError(t, err)
	return db
}

func newRecorder(t *testing.T, db *Database) (*Scanner[*recorder], *recorder) {
	t.Helper()
	rec := &recorder{}
	s, err := Build(db, rec, handleRecorder)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, rec
}

func scanBlock(t *testing.T, db *Database, data string) []match {
	t.Helper()
	s, rec := newRecorder(t, db)
	result, err := s.Scan([]byte(data))
	require.NoError(t, err)
	require.Equal(t, Continue, result)
	return rec.take()
}
