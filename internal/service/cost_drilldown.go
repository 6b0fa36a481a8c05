package service

import (
	"context"
	"fmt"

	"github.com/Strob0t/CostLens/internal/domain/cost"
)

// drilldownDimensions are grouped in this order; the row layout depends on it.
var drilldownDimensions = []cost.Dimension{
	cost.DimServiceName,
	cost.DimMeterCategory,
	cost.DimMeterSubcategory,
	cost.DimMeter,
	cost.DimResourceID,
}

// Drilldown returns a meter-level breakdown with AI model attribution and insights.
func (s *CostService) Drilldown(ctx context.Context, days int) (*cost.Drilldown, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s:%d", KindDrilldown, days)
	return cachedReport(ctx, s, KindDrilldown, key, func(ctx context.Context) (*cost.Drilldown, float64, bool, error) {
		r, err := s.computeDrilldown(ctx, days)
		if err != nil {
			return nil, 0, false, err
		}
		return r, r.TotalCost, r.Degraded, nil
	})
}

func (s *CostService) computeDrilldown(ctx context.Context, days int) (*cost.Drilldown, error) {
	end := s.today()
	start := end.AddDate(0, 0, -days)

	res, err := s.querier.Query(ctx, cost.RangeQuery(start, end, cost.GranularityNone, drilldownDimensions...))
	if err != nil {
		return nil, fmt.Errorf("query meter costs: %w", err)
	}

	b := cost.BreakDown(res.Rows)
	models := cost.ClassifyModels(b.AIMeters)

	return &cost.Drilldown{
		SubscriptionID:   s.sub.ID,
		SubscriptionName: s.sub.Name,
		PeriodStart:      start.Format(cost.DateLayout),
		PeriodEnd:        end.Format(cost.DateLayout),
		TotalCost:        cost.RoundTotal(b.Total),
		Services:         b.Services,
		AIModels:         models,
		Insights:         cost.GenerateInsights(b.Services, models, b.Total),
		Degraded:         res.Degraded,
	}, nil
}
