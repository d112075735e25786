// Package store persists pattern sets in a bbolt file.
//
// Sets are kept by name, encoded as YAML. Replacing a set moves the previous
// encoding to a versions bucket, so earlier revisions stay readable.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/KromDaniel/regscan/patternset"
	"github.com/KromDaniel/regscan/pkg/regscan"
)

// ErrNotFound is returned when no set is stored under a name.
var ErrNotFound = errors.New("store: pattern set not found")

var (
	bucketSets     = []byte("sets")
	bucketVersions = []byte("versions")
)

// Options configures a Catalog.
type Options struct {
	// Timeout bounds the wait for the file lock. Zero selects one second.
	Timeout time.Duration
	// Meter receives read and write latencies. Nil disables metrics.
	Meter metric.Meter
}

// Catalog is a persistent collection of named pattern sets.
// It is safe for concurrent use.
type Catalog struct {
	db *bbolt.DB

	readLatency  metric.Float64Histogram
	writeLatency metric.Float64Histogram
}

// Open opens or creates the catalog file at path.
func Open(path string, opts Options) (*Catalog, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout:      opts.Timeout,
		FreelistType: bbolt.FreelistArrayType,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketSets, bucketVersions} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}

	meter := opts.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("regscan/store")
	}
	readLatency, _ := meter.Float64Histogram("regscan_store_read_ms", metric.WithUnit("ms"))
	writeLatency, _ := meter.Float64Histogram("regscan_store_write_ms", metric.WithUnit("ms"))

	return &Catalog{db: db, readLatency: readLatency, writeLatency: writeLatency}, nil
}

// Close closes the underlying file.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Put validates and stores set under set.Name. A replaced set is kept as a
// version unless the encoding is unchanged.
func (c *Catalog) Put(ctx context.Context, set *patternset.Set) error {
	defer c.observe(ctx, c.writeLatency, "put", time.Now())

	if err := set.Validate(); err != nil {
		return err
	}
	data, err := set.Marshal()
	if err != nil {
		return err
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		sets := tx.Bucket(bucketSets)
		key := []byte(set.Name)
		if existing := sets.Get(key); existing != nil {
			if bytes.Equal(existing, data) {
				return nil
			}
			versions := tx.Bucket(bucketVersions)
			seq, err := versions.NextSequence()
			if err != nil {
				return err
			}
			if err := versions.Put(versionKey(set.Name, seq), existing); err != nil {
				return fmt.Errorf("store version: %w", err)
			}
		}
		return sets.Put(key, data)
	})
	if err != nil {
		return fmt.Errorf("store: put %q: %w", set.Name, err)
	}
	return nil
}

// Get returns the current set stored under name.
func (c *Catalog) Get(ctx context.Context, name string) (*patternset.Set, error) {
	defer c.observe(ctx, c.readLatency, "get", time.Now())

	var data []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketSets).Get([]byte(name)); v != nil {
			data = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: get %q: %w", name, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return patternset.Parse(data)
}

// Versions returns the replaced revisions of name, oldest first.
// The current set is not included.
func (c *Catalog) Versions(ctx context.Context, name string) ([]*patternset.Set, error) {
	defer c.observe(ctx, c.readLatency, "versions", time.Now())

	var raw [][]byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		prefix := versionPrefix(name)
		cur := tx.Bucket(bucketVersions).Cursor()
		for k, v := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
			raw = append(raw, bytes.Clone(v))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: versions %q: %w", name, err)
	}
	out := make([]*patternset.Set, 0, len(raw))
	for _, data := range raw {
		set, err := patternset.Parse(data)
		if err != nil {
			return nil, err
		}
		out = append(out, set)
	}
	return out, nil
}

// Compile loads name and compiles it with opts.
func (c *Catalog) Compile(ctx context.Context, name string, opts regscan.Options) (*regscan.Database, error) {
	set, err := c.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return set.Compile(opts)
}

// List returns the stored set names in byte order.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	defer c.observe(ctx, c.readLatency, "list", time.Now())

	var names []string
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSets).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return names, nil
}

// Delete removes name and its versions.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	defer c.observe(ctx, c.writeLatency, "delete", time.Now())

	err := c.db.Update(func(tx *bbolt.Tx) error {
		sets := tx.Bucket(bucketSets)
		if sets.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		if err := sets.Delete([]byte(name)); err != nil {
			return err
		}
		prefix := versionPrefix(name)
		cur := tx.Bucket(bucketVersions).Cursor()
		for k, _ := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = cur.Seek(prefix) {
			if err := cur.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: delete: %w", err)
	}
	return nil
}

func (c *Catalog) observe(ctx context.Context, h metric.Float64Histogram, op string, start time.Time) {
	h.Record(ctx, float64(time.Since(start).Microseconds())/1000,
		metric.WithAttributes(attribute.String("operation", op)))
}

// versionPrefix ends in a zero byte so "web" never matches "web2".
func versionPrefix(name string) []byte {
	return append([]byte(name), 0)
}

func versionKey(name string, seq uint64) []byte {
	return fmt.Appendf(versionPrefix(name), "%020d", seq)
}
