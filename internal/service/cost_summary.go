package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/CostLens/internal/domain/cost"
	"github.com/Strob0t/CostLens/internal/port/billing"
)

// Summary returns per-service and daily costs for the last days days.
func (s *CostService) Summary(ctx context.Context, days int) (*cost.Summary, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s:%d", KindSummary, days)
	return cachedReport(ctx, s, KindSummary, key, func(ctx context.Context) (*cost.Summary, float64, bool, error) {
		r, err := s.computeSummary(ctx, days)
		if err != nil {
			return nil, 0, false, err
		}
		return r, r.TotalCost, r.Degraded, nil
	})
}

func (s *CostService) computeSummary(ctx context.Context, days int) (*cost.Summary, error) {
	end := s.today()
	start := end.AddDate(0, 0, -days)

	var byService, daily *billing.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byService, err = s.querier.Query(gctx, cost.RangeQuery(start, end, cost.GranularityNone, cost.DimServiceName))
		if err != nil {
			return fmt.Errorf("query costs by service: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		daily, err = s.querier.Query(gctx, cost.RangeQuery(start, end, cost.GranularityDaily))
		if err != nil {
			return fmt.Errorf("query daily costs: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	services, total := cost.ServiceCosts(byService.Rows)
	return &cost.Summary{
		SubscriptionID:   s.sub.ID,
		SubscriptionName: s.sub.Name,
		PeriodStart:      start.Format(cost.DateLayout),
		PeriodEnd:        end.Format(cost.DateLayout),
		TotalCost:        total,
		CostsByService:   services,
		DailyCosts:       cost.DailyCosts(daily.Rows),
		Degraded:         byService.Degraded || daily.Degraded,
	}, nil
}
