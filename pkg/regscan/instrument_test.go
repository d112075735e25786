package regscan

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestScanMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	db, err := CompileWithOptions(Block, []Pattern{MustPattern("foo")}, Options{Meter: provider.Meter("test")})
	require.NoError(t, err)

	calls := 0
	s, err := Build(db, 0, func(int, Tag, uint64, uint64) Scan {
		calls++
		if calls == 3 {
			return Terminate
		}
		if calls == 4 {
			return Scan(9)
		}
		return Continue
	})
	require.NoError(t, err)

	_, err = s.Scan([]byte("foofoo"))
	require.NoError(t, err)
	_, err = s.Scan([]byte("foo foo"))
	require.NoError(t, err)
	_, err = s.Scan([]byte("foo"))
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	assert.Equal(t, int64(3), counterValue(t, rm, "regscan_scans_total"))
	assert.Equal(t, int64(16), counterValue(t, rm, "regscan_scan_bytes_total"))
	assert.Equal(t, int64(4), counterValue(t, rm, "regscan_matches_total"))
	assert.Equal(t, int64(2), counterValue(t, rm, "regscan_scan_terminated_total"))
	assert.Equal(t, int64(1), counterValue(t, rm, "regscan_callback_errors_total"))

	var sawHistogram bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "regscan_compile_duration_ms" {
				hist, ok := m.Data.(metricdata.Histogram[float64])
				require.True(t, ok)
				require.Len(t, hist.DataPoints, 1)
				assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
				mode, _ := hist.DataPoints[0].Attributes.Value("mode")
				assert.Equal(t, "block", mode.AsString())
				sawHistogram = true
			}
		}
	}
	assert.True(t, sawHistogram)
}

func TestCompileSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	_, err := CompileWithOptions(Stream, []Pattern{MustPattern("foo"), MustPattern("bar")}, Options{Tracer: tracer})
	require.NoError(t, err)
	_, err = CompileWithOptions(Block, []Pattern{MustPattern("(")}, Options{Tracer: tracer})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, "regscan.compile", ok.Name())
	assert.Contains(t, ok.Attributes(), attribute.String("regscan.mode", "stream"))
	assert.Contains(t, ok.Attributes(), attribute.Int("regscan.patterns", 2))
	assert.Equal(t, codes.Unset, ok.Status().Code)

	failed := spans[1]
	assert.Equal(t, codes.Error, failed.Status().Code)
	require.NotEmpty(t, failed.Events())
	assert.Equal(t, "exception", failed.Events()[0].Name)
}

func TestCompileLogging(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := CompileWithOptions(Block, []Pattern{MustPattern("^foo$")}, Options{Logger: logger})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "compiled database")
	assert.Contains(t, out, "mode=block")
	assert.Contains(t, out, "Is anchored: true")

	buf.Reset()
	_, err = CompileWithOptions(Block, []Pattern{MustPattern("(")}, Options{Logger: logger})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "compile failed")
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, Options{}.Validate())
	assert.NoError(t, Options{Logger: slog.Default()}.Validate())
	assert.Error(t, Options{Logger: &slog.Logger{}}.Validate())

	_, err := CompileWithOptions(Block, []Pattern{MustPattern("foo")}, Options{Logger: &slog.Logger{}})
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
}
