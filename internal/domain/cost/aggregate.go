package cost

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// NoiseFloor is the smallest meter cost a drilldown keeps. The billing API
// emits near-zero artifacts below it.
const NoiseFloor = 0.001

// UnknownService names rows whose service dimension is empty.
const UnknownService = "Unknown"

// ServiceCosts converts rows grouped by ServiceName into per-service costs
// sorted by cost descending, and returns their total.
func ServiceCosts(rows []Row) ([]CostByService, float64) {
	out := make([]CostByService, 0, len(rows))
	var total float64
	for _, r := range rows {
		out = append(out, CostByService{
			ServiceName: serviceName(r),
			Cost:        RoundLine(r.Cost),
			Currency:    r.Currency,
		})
		total += r.Cost
	}
	slices.SortStableFunc(out, func(a, b CostByService) int { return compareDesc(a.Cost, b.Cost) })
	return out, RoundTotal(total)
}

// DailyCosts converts daily rows into per-day costs sorted by date ascending.
func DailyCosts(rows []Row) []DailyCost {
	rows = slices.Clone(rows)
	slices.SortStableFunc(rows, func(a, b Row) int { return a.Date.Compare(b.Date) })
	return lo.Map(rows, func(r Row, _ int) DailyCost {
		return DailyCost{Date: r.Date.Format(DateLayout), Cost: RoundLine(r.Cost), Currency: r.Currency}
	})
}

// Breakdown is the intermediate result of analysing meter-level rows.
type Breakdown struct {
	Services []ServiceDrilldown
	AIMeters []AIMeter
	Total    float64 // unrounded sum of kept rows
}

// BreakDown groups meter-level rows by service, dropping rows below the
// noise floor and collecting AI platform meters for classification.
func BreakDown(rows []Row) Breakdown {
	var (
		b      Breakdown
		order  []string
		meters = make(map[string][]MeterDetail)
	)
	for _, r := range rows {
		if r.Cost < NoiseFloor {
			continue
		}
		service := serviceName(r)
		resourceID := r.Dim(DimResourceID)

		b.Total += r.Cost
		if _, seen := meters[service]; !seen {
			order = append(order, service)
		}
		meters[service] = append(meters[service], MeterDetail{
			MeterName:        r.Dim(DimMeter),
			MeterCategory:    r.Dim(DimMeterCategory),
			MeterSubcategory: r.Dim(DimMeterSubcategory),
			Cost:             RoundLine(r.Cost),
			Currency:         r.Currency,
			ResourceName:     ResourceName(resourceID),
			ResourceID:       resourceID,
		})
		if IsAIService(service) {
			b.AIMeters = append(b.AIMeters, AIMeter{
				Meter:       r.Dim(DimMeter),
				Subcategory: r.Dim(DimMeterSubcategory),
				Cost:        r.Cost,
			})
		}
	}

	b.Services = make([]ServiceDrilldown, 0, len(order))
	for _, name := range order {
		ms := meters[name]
		slices.SortStableFunc(ms, func(a, b MeterDetail) int { return compareDesc(a.Cost, b.Cost) })
		b.Services = append(b.Services, ServiceDrilldown{
			ServiceName: name,
			TotalCost:   RoundTotal(lo.SumBy(ms, func(m MeterDetail) float64 { return m.Cost })),
			Meters:      ms,
		})
	}
	slices.SortStableFunc(b.Services, func(x, y ServiceDrilldown) int { return compareDesc(x.TotalCost, y.TotalCost) })
	return b
}

func serviceName(r Row) string {
	if name := strings.TrimSpace(r.Dim(DimServiceName)); name != "" {
		return name
	}
	return UnknownService
}
