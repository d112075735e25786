package regscan

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// instruments holds the metric instruments shared by a Database and its Scanners.
type instruments struct {
	compileDuration metric.Float64Histogram
	scans           metric.Int64Counter
	scanBytes       metric.Int64Counter
	matches         metric.Int64Counter
	terminated      metric.Int64Counter
	callbackErrors  metric.Int64Counter

	attrs metric.MeasurementOption
}

func newInstruments(meter metric.Meter, mode Mode) *instruments {
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter("regscan")
	}
	compileDuration, _ := meter.Float64Histogram("regscan_compile_duration_ms",
		metric.WithDescription("Time spent compiling pattern sets"), metric.WithUnit("ms"))
	scans, _ := meter.Int64Counter("regscan_scans_total")
	scanBytes, _ := meter.Int64Counter("regscan_scan_bytes_total", metric.WithUnit("By"))
	matches, _ := meter.Int64Counter("regscan_matches_total")
	terminated, _ := meter.Int64Counter("regscan_scan_terminated_total")
	callbackErrors, _ := meter.Int64Counter("regscan_callback_errors_total")
	return &instruments{
		compileDuration: compileDuration,
		scans:           scans,
		scanBytes:       scanBytes,
		matches:         matches,
		terminated:      terminated,
		callbackErrors:  callbackErrors,
		attrs:           metric.WithAttributes(attribute.String("mode", mode.String())),
	}
}

// recordScan adds the totals of one scan call.
func (in *instruments) recordScan(bytes, matches int, result Scan, err error) {
	ctx := context.Background()
	in.scans.Add(ctx, 1, in.attrs)
	if bytes > 0 {
		in.scanBytes.Add(ctx, int64(bytes), in.attrs)
	}
	if matches > 0 {
		in.matches.Add(ctx, int64(matches), in.attrs)
	}
	if result == Terminate {
		in.terminated.Add(ctx, 1, in.attrs)
	}
	if _, ok := err.(*CallbackContractError); ok {
		in.callbackErrors.Add(ctx, 1, in.attrs)
	}
}

func (in *instruments) recordCompile(d time.Duration) {
	in.compileDuration.Record(context.Background(), float64(d.Microseconds())/1000, in.attrs)
}

// startCompileSpan opens the regscan.compile span.
func startCompileSpan(tracer trace.Tracer, mode Mode, patterns int) trace.Span {
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer("regscan")
	}
	_, span := tracer.Start(context.Background(), "regscan.compile",
		trace.WithAttributes(
			attribute.String("regscan.mode", mode.String()),
			attribute.Int("regscan.patterns", patterns),
		))
	return span
}

func endCompileSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
