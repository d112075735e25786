package scanners

import "github.com/KromDaniel/regscan/pkg/regscan"

type holder struct {
	s *regscan.Scanner[int]
}

func count(n *int, _ regscan.Tag, _, _ uint64) regscan.Scan {
	*n++
	return regscan.Continue
}

func anyHandler(any, regscan.Tag, uint64, uint64) regscan.Scan {
	return regscan.Continue
}

func leaked(db *regscan.Database) {
	var n int
	s, err := regscan.Build(db, &n, count) // want `scanner s is never closed`
	if err != nil {
		return
	}
	_, _ = s.Scan(nil)
}

func leakedMethod(db *regscan.Database) {
	s, _ := db.Build(nil, anyHandler) // want `scanner s is never closed`
	if s != nil {
		_, _ = s.Scan(nil)
	}
}

func leakedVar(db *regscan.Database) {
	var s, _ = regscan.Build[*int](db, new(int), count) // want `scanner s is never closed`
	_, _ = s.Scan([]byte("x"))
}

func discarded(db *regscan.Database) {
	_, _ = regscan.Build(db, new(int), count) // want `scanner from regscan.Build is discarded without Close`
	db.Build(nil, anyHandler)                 // want `scanner from \(\*regscan.Database\).Build is discarded without Close`
}

func deferred(db *regscan.Database) error {
	s, err := regscan.Build(db, new(int), count)
	if err != nil {
		return err
	}
	defer s.Close()
	_, err = s.Scan(nil)
	return err
}

func closedInClosure(db *regscan.Database) {
	s, _ := regscan.Build(db, new(int), count)
	defer func() {
		_ = s.Close()
	}()
}

func closeAsValue(db *regscan.Database, cleanup func(func() error)) {
	s, _ := regscan.Build(db, new(int), count)
	cleanup(s.Close)
}

func returned(db *regscan.Database) (*regscan.Scanner[*int], error) {
	s, err := regscan.Build(db, new(int), count)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func passedOn(db *regscan.Database, use func(*regscan.Scanner[*int])) {
	s, _ := regscan.Build(db, new(int), count)
	use(s)
}

func stored(db *regscan.Database, h *holder) {
	s, _ := regscan.Build(db, 0, func(int, regscan.Tag, uint64, uint64) regscan.Scan { return regscan.Continue })
	h.s = s
}

func storedDirectly(db *regscan.Database, h *holder) {
	h.s, _ = regscan.Build(db, 0, func(int, regscan.Tag, uint64, uint64) regscan.Scan { return regscan.Continue })
}
