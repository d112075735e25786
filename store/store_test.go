package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/KromDaniel/regscan/patternset"
	"github.com/KromDaniel/regscan/pkg/regscan"
)

func openCatalog(t *testing.T, opts Options) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func set(name string, exprs ...string) *patternset.Set {
	s := &patternset.Set{Name: name, Mode: "stream"}
	for _, e := range exprs {
		s.Patterns = append(s.Patterns, patternset.Entry{Expression: e, Tag: e})
	}
	return s
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	c := openCatalog(t, Options{})

	require.NoError(t, c.Put(ctx, set("web", "foo", "bar")))
	got, err := c.Get(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, set("web", "foo", "bar"), got)

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = c.Put(ctx, &patternset.Set{Name: "empty"})
	assert.ErrorIs(t, err, patternset.ErrInvalid)
}

func TestVersions(t *testing.T) {
	ctx := context.Background()
	c := openCatalog(t, Options{})

	require.NoError(t, c.Put(ctx, set("web", "v1")))
	require.NoError(t, c.Put(ctx, set("web", "v1")))
	require.NoError(t, c.Put(ctx, set("web", "v2")))
	require.NoError(t, c.Put(ctx, set("web", "v3")))
	require.NoError(t, c.Put(ctx, set("web2", "other")))
	require.NoError(t, c.Put(ctx, set("web2", "other2")))

	versions, err := c.Versions(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, []*patternset.Set{set("web", "v1"), set("web", "v2")}, versions)

	current, err := c.Get(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, set("web", "v3"), current)

	versions, err = c.Versions(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestListDelete(t *testing.T) {
	ctx := context.Background()
	c := openCatalog(t, Options{})

	for _, name := range []string{"b", "a", "c"} {
		require.NoError(t, c.Put(ctx, set(name, "x")))
	}
	require.NoError(t, c.Put(ctx, set("a", "y")))

	names, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names)

	require.NoError(t, c.Delete(ctx, "a"))
	assert.ErrorIs(t, c.Delete(ctx, "a"), ErrNotFound)

	names, err = c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, names)

	versions, err := c.Versions(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestCompile(t *testing.T) {
	ctx := context.Background()
	c := openCatalog(t, Options{})
	require.NoError(t, c.Put(ctx, set("web", "foo")))

	db, err := c.Compile(ctx, "web", regscan.Options{})
	require.NoError(t, err)
	assert.Equal(t, regscan.Stream, db.Mode())
	assert.Equal(t, 1, db.Len())

	_, err = c.Compile(ctx, "missing", regscan.Options{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	c, err := Open(path, Options{})
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, set("web", "foo")))

	// The file lock is held until Close.
	_, err = Open(path, Options{Timeout: 50 * time.Millisecond})
	assert.Error(t, err)
	require.NoError(t, c.Close())

	c, err = Open(path, Options{})
	require.NoError(t, err)
	defer c.Close()
	got, err := c.Get(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, "web", got.Name)
}

func TestLatencyMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	c := openCatalog(t, Options{Meter: provider.Meter("test")})

	require.NoError(t, c.Put(ctx, set("web", "foo")))
	_, err := c.Get(ctx, "web")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	counts := map[string]uint64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			for _, dp := range hist.DataPoints {
				counts[m.Name] += dp.Count
			}
		}
	}
	assert.Equal(t, map[string]uint64{"regscan_store_write_ms": 1, "regscan_store_read_ms": 1}, counts)
}
