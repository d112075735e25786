package regscan

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Options configures compilation and the instrumentation of the Database
// and its Scanners. The zero value is valid.
type Options struct {
	// Logger receives debug records about compilation. Nil discards them.
	Logger *slog.Logger

	// Meter creates the scan and compile instruments. Nil disables metrics.
	Meter metric.Meter

	// Tracer wraps compilation in a span. Nil disables tracing.
	Tracer trace.Tracer
}

// Validate checks if the options are valid.
func (o Options) Validate() error {
	if o.Logger != nil && o.Logger.Handler() == nil {
		return &ArgumentError{Arg: "options.Logger", Msg: "logger has no handler"}
	}
	return nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}
