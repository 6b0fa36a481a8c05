package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "costlens"

// Metrics holds all CostLens metric instruments.
type Metrics struct {
	UpstreamQueries    metric.Int64Counter
	UpstreamThrottled  metric.Int64Counter
	DegradedResults    metric.Int64Counter
	QueryDuration      metric.Float64Histogram
	CacheHits          metric.Int64Counter
	CacheMisses        metric.Int64Counter
	ReportCost         metric.Float64Histogram
	BreakerTransitions metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithMeter(otel.Meter(meterName))
}

// NewMetricsWithMeter creates all metric instruments on the given meter.
func NewMetricsWithMeter(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.UpstreamQueries, err = meter.Int64Counter("costlens.upstream.queries",
		metric.WithDescription("Number of billing API requests sent"))
	if err != nil {
		return nil, err
	}

	m.UpstreamThrottled, err = meter.Int64Counter("costlens.upstream.throttled",
		metric.WithDescription("Number of 429 responses from the billing API"))
	if err != nil {
		return nil, err
	}

	m.DegradedResults, err = meter.Int64Counter("costlens.upstream.degraded",
		metric.WithDescription("Number of queries that exhausted their retries"))
	if err != nil {
		return nil, err
	}

	m.QueryDuration, err = meter.Float64Histogram("costlens.upstream.duration_seconds",
		metric.WithDescription("Billing query duration in seconds, retries included"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.CacheHits, err = meter.Int64Counter("costlens.cache.hits",
		metric.WithDescription("Number of reports served from cache"))
	if err != nil {
		return nil, err
	}

	m.CacheMisses, err = meter.Int64Counter("costlens.cache.misses",
		metric.WithDescription("Number of reports computed from upstream"))
	if err != nil {
		return nil, err
	}

	m.ReportCost, err = meter.Float64Histogram("costlens.report.total_cost",
		metric.WithDescription("Total cost of freshly computed reports"))
	if err != nil {
		return nil, err
	}

	m.BreakerTransitions, err = meter.Int64Counter("costlens.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Report kinds used as the "report" attribute.
func reportAttr(kind string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("report", kind))
}

// RecordCacheHit counts a cache hit for the report kind.
func (m *Metrics) RecordCacheHit(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.CacheHits.Add(ctx, 1, reportAttr(kind))
}

// RecordCacheMiss counts a cache miss for the report kind.
func (m *Metrics) RecordCacheMiss(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.CacheMisses.Add(ctx, 1, reportAttr(kind))
}

// RecordReport records the total cost of a freshly computed report.
func (m *Metrics) RecordReport(ctx context.Context, kind string, total float64) {
	if m == nil {
		return
	}
	m.ReportCost.Record(ctx, total, reportAttr(kind))
}

// RecordQuery records one completed billing query.
func (m *Metrics) RecordQuery(ctx context.Context, seconds float64, degraded bool) {
	if m == nil {
		return
	}
	m.QueryDuration.Record(ctx, seconds)
	if degraded {
		m.DegradedResults.Add(ctx, 1)
	}
}

// RecordAttempt counts one upstream request and whether it was throttled.
func (m *Metrics) RecordAttempt(ctx context.Context, throttled bool) {
	if m == nil {
		return
	}
	m.UpstreamQueries.Add(ctx, 1)
	if throttled {
		m.UpstreamThrottled.Add(ctx, 1)
	}
}

// RecordBreakerTransition counts a circuit breaker state change.
func (m *Metrics) RecordBreakerTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.BreakerTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
