package regscan

type Scan int

const (
	Continue Scan = iota
	Terminate
)

type Tag struct{}

type Database struct{}

type MatchHandler[C any] func(ctx C, tag Tag, from, to uint64) Scan

type Scanner[C any] struct{}

func Build[C any](db *Database, ctx C, h MatchHandler[C]) (*Scanner[C], error) {
	return &Scanner[C]{}, nil
}

func (db *Database) Build(ctx any, h MatchHandler[any]) (*Scanner[any], error) {
	return Build(db, ctx, h)
}

func (s *Scanner[C]) Scan(data []byte) (Scan, error) { return Continue, nil }

func (s *Scanner[C]) Close() error { return nil }
