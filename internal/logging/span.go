package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span is a named, timed unit of work within a request.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from ctx. The first span of a request also
// assigns a trace id; every span logs its duration on End.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	if stringFrom(ctx, traceIDKey) == "" {
		traceID := uuid.NewString()
		ctx = withString(ctx, traceIDKey, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	spanID := uuid.NewString()
	logger = logger.With(slog.String("span_id", spanID), slog.String("span_name", name))
	if parent := stringFrom(ctx, spanIDKey); parent != "" {
		logger = logger.With(slog.String("parent_span_id", parent))
	}

	ctx = WithLogger(ctx, logger)
	ctx = withString(ctx, spanIDKey, spanID)

	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// End emits a debug entry with the span duration.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Debug("span completed", slog.Duration("duration", time.Since(s.start)))
}

// TraceIDFromContext retrieves the trace identifier assigned by StartSpan.
func TraceIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, traceIDKey)
}
