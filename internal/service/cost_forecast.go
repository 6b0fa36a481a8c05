package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/Strob0t/CostLens/internal/domain/cost"
)

// Forecast projects the month-to-date spend linearly to the end of the month.
func (s *CostService) Forecast(ctx context.Context) (*cost.Forecast, error) {
	return cachedReport(ctx, s, KindForecast, KindForecast, func(ctx context.Context) (*cost.Forecast, float64, bool, error) {
		r, err := s.computeForecast(ctx)
		if err != nil {
			return nil, 0, false, err
		}
		return r, r.EstimatedTotal, r.Degraded, nil
	})
}

func (s *CostService) computeForecast(ctx context.Context) (*cost.Forecast, error) {
	today := s.today()
	monthEnd := cost.MonthEnd(today)

	res, err := s.querier.Query(ctx, cost.MonthToDateQuery())
	if err != nil {
		return nil, fmt.Errorf("query month to date: %w", err)
	}
	current := lo.SumBy(res.Rows, func(r cost.Row) float64 { return r.Cost })

	return &cost.Forecast{
		SubscriptionID:    s.sub.ID,
		ForecastPeriodEnd: monthEnd.Format(cost.DateLayout),
		EstimatedTotal:    cost.LinearForecast(current, today.Day(), monthEnd.Day()),
		CurrentCost:       cost.RoundTotal(current),
		DaysElapsed:       today.Day(),
		DaysInMonth:       monthEnd.Day(),
		Degraded:          res.Degraded,
	}, nil
}
