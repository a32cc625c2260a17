// Package logger builds the process logger and derives request-scoped
// loggers carrying request and trace identifiers.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// New returns a JSON logger, or a console logger when pretty is set. It also
// becomes the fallback for contexts that carry no logger.
func New(level string, pretty bool) zerolog.Logger {
	return newWithWriter(level, pretty, os.Stdout)
}

func newWithWriter(level string, pretty bool, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	l := zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "storefront").Logger()
	zerolog.DefaultContextLogger = &l
	return l
}

// FromContext returns the logger stored in ctx, with trace and span ids
// attached when ctx carries a sampled span.
func FromContext(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	enriched := l.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return &enriched
}
