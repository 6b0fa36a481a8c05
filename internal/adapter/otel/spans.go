package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "costlens"

// StartReportSpan starts a span for building a cost report.
func StartReportSpan(ctx context.Context, kind, cacheKey string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "report."+kind,
		trace.WithAttributes(
			attribute.String("report.kind", kind),
			attribute.String("cache.key", cacheKey),
		),
	)
}

// StartQuerySpan starts a span for one billing API query, retries included.
func StartQuerySpan(ctx context.Context, timeframe, granularity string, dimensions int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "billing.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("query.timeframe", timeframe),
			attribute.String("query.granularity", granularity),
			attribute.Int("query.dimensions", dimensions),
		),
	)
}
