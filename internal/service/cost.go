package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	cfotel "github.com/Strob0t/CostLens/internal/adapter/otel"
	"github.com/Strob0t/CostLens/internal/domain"
	"github.com/Strob0t/CostLens/internal/port/billing"
	"github.com/Strob0t/CostLens/internal/port/cache"
	"github.com/Strob0t/CostLens/internal/port/messagequeue"
	"github.com/Strob0t/CostLens/internal/resilience"
)

// Report kinds, used for cache keys, metrics and refresh subjects.
const (
	KindSummary   = "summary"
	KindForecast  = "forecast"
	KindDrilldown = "drilldown"
)

// Period bounds accepted by Summary and Drilldown.
const (
	MinDays = 1
	MaxDays = 366
)

// Subscription identifies the billing scope reports are built for.
type Subscription struct {
	ID   string
	Name string
}

// CostService builds cached cost reports from the billing API.
// Concurrent requests for the same report share one upstream computation.
type CostService struct {
	querier   billing.Querier
	cache     cache.Cache
	sub       Subscription
	publisher messagequeue.Publisher
	metrics   *cfotel.Metrics
	group     singleflight.Group
	now       func() time.Time // for testing
}

// NewCostService creates a new CostService.
func NewCostService(q billing.Querier, c cache.Cache, sub Subscription) *CostService {
	return &CostService{
		querier: q,
		cache:   c,
		sub:     sub,
		now:     time.Now,
	}
}

// SetPublisher enables refresh events after each fresh computation.
func (s *CostService) SetPublisher(p messagequeue.Publisher) {
	s.publisher = p
}

// SetMetrics attaches metric instruments.
func (s *CostService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// InvalidateCache drops every cached report.
func (s *CostService) InvalidateCache(ctx context.Context) error {
	cl, ok := s.cache.(cache.Clearer)
	if !ok {
		return errors.New("cache backend does not support clearing")
	}
	if err := cl.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	slog.InfoContext(ctx, "report cache cleared")
	return nil
}

func validateDays(days int) error {
	if days < MinDays || days > MaxDays {
		return fmt.Errorf("%w: days must be between %d and %d, got %d", domain.ErrValidation, MinDays, MaxDays, days)
	}
	return nil
}

// today returns the current UTC date at midnight.
func (s *CostService) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

// computeFunc builds a fresh report and describes it for metrics and events.
type computeFunc[T any] func(ctx context.Context) (report *T, total float64, degraded bool, err error)

// cachedReport serves key from the cache or computes it once for all
// concurrent callers. Every caller decodes its own copy of the encoded
// report, so cached and shared reports are never aliased.
func cachedReport[T any](ctx context.Context, s *CostService, kind, key string, compute computeFunc[T]) (*T, error) {
	data, found, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}
	if found {
		var out T
		if err := json.Unmarshal(data, &out); err == nil {
			s.metrics.RecordCacheHit(ctx, kind)
			return &out, nil
		}
		slog.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
	}
	s.metrics.RecordCacheMiss(ctx, kind)

	for {
		ch := s.group.DoChan(key, func() (any, error) {
			return s.refresh(ctx, kind, key, func(ctx context.Context) (any, float64, bool, error) {
				return compute(ctx)
			})
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-ch:
			if r.Err != nil {
				// The shared computation was cancelled by another caller;
				// run it again on our own context.
				if isContextErr(r.Err) && ctx.Err() == nil {
					continue
				}
				return nil, r.Err
			}
			var out T
			if err := json.Unmarshal(r.Val.([]byte), &out); err != nil {
				return nil, fmt.Errorf("decode %s report: %w", kind, err)
			}
			return &out, nil
		}
	}
}

// refresh computes a report, caches it unless degraded, and publishes a
// refresh event. It returns the JSON encoding of the report.
func (s *CostService) refresh(
	ctx context.Context,
	kind, key string,
	compute func(ctx context.Context) (any, float64, bool, error),
) ([]byte, error) {
	ctx, span := cfotel.StartReportSpan(ctx, kind, key)
	defer span.End()

	report, total, degraded, err := compute(ctx)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, fmt.Errorf("%s report: %w: %w", kind, domain.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("%s report: %w", kind, err)
	}

	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode %s report: %w", kind, err)
	}

	if degraded {
		slog.WarnContext(ctx, "serving degraded report without caching", "key", key)
	} else if err := s.cache.Set(ctx, key, data); err != nil {
		slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}

	s.metrics.RecordReport(ctx, kind, total)
	s.publishRefreshed(ctx, kind, key, total, degraded)
	return data, nil
}

func (s *CostService) publishRefreshed(ctx context.Context, kind, key string, total float64, degraded bool) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(messagequeue.ReportRefreshedPayload{
		Kind:       kind,
		CacheKey:   key,
		TotalCost:  total,
		Degraded:   degraded,
		ComputedAt: s.now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "marshal refresh event", "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, messagequeue.RefreshedSubject(kind), payload); err != nil {
		slog.WarnContext(ctx, "publish refresh event failed", "kind", kind, "error", err)
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
