package database

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/utafrali/review-admin/pkg/database"

// QueryTracer wraps database operations in client spans and logs the ones
// slower than a threshold.
type QueryTracer struct {
	system        string
	slowThreshold time.Duration
	logger        *slog.Logger
}

// NewQueryTracer creates a tracer for the given database system ("postgresql",
// "redis"). A zero slowThreshold or nil logger disables slow query logging.
func NewQueryTracer(system string, slowThreshold time.Duration, logger *slog.Logger) *QueryTracer {
	return &QueryTracer{system: system, slowThreshold: slowThreshold, logger: logger}
}

// Start opens a span for one operation. Call the returned function with the
// operation's error when it completes:
//
//	ctx, end := t.Start(ctx, "GetReview", query)
//	defer func() { end(err) }()
func (t *QueryTracer) Start(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", t.system),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if t.slowThreshold <= 0 || t.logger == nil {
			return
		}
		if elapsed := time.Since(start); elapsed >= t.slowThreshold {
			attrs := []any{
				slog.String("operation", operation),
				slog.String("statement", statement),
				slog.Duration("duration", elapsed),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			t.logger.WarnContext(ctx, "slow query detected", attrs...)
		}
	}
}
