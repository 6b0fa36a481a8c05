// Package cost defines domain types for billing reports and the rules that build them.
package cost

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and report format for calendar dates.
const DateLayout = "2006-01-02"

// DefaultCurrency is assumed when the billing API omits the currency column.
const DefaultCurrency = "USD"

// CostByService holds the aggregated cost of one service over a period.
type CostByService struct {
	ServiceName string  `json:"service_name"`
	Cost        float64 `json:"cost"`
	Currency    string  `json:"currency"`
}

// DailyCost holds the aggregated cost of a single day.
type DailyCost struct {
	Date     string  `json:"date"`
	Cost     float64 `json:"cost"`
	Currency string  `json:"currency"`
}

// Summary is the service-level and daily breakdown of a period.
type Summary struct {
	SubscriptionID   string          `json:"subscription_id"`
	SubscriptionName string          `json:"subscription_name,omitempty"`
	PeriodStart      string          `json:"period_start"`
	PeriodEnd        string          `json:"period_end"`
	TotalCost        float64         `json:"total_cost"`
	CostsByService   []CostByService `json:"costs_by_service"`
	DailyCosts       []DailyCost     `json:"daily_costs"`
	Degraded         bool            `json:"degraded,omitempty"`
}

// Forecast is a linear run-rate projection of month-end spend.
type Forecast struct {
	SubscriptionID    string  `json:"subscription_id"`
	ForecastPeriodEnd string  `json:"forecast_period_end"`
	EstimatedTotal    float64 `json:"estimated_total"`
	CurrentCost       float64 `json:"current_cost"`
	DaysElapsed       int     `json:"days_elapsed"`
	DaysInMonth       int     `json:"days_in_month"`
	Degraded          bool    `json:"degraded,omitempty"`
}

// MeterDetail is the cost of a single meter, optionally tied to a resource.
type MeterDetail struct {
	MeterName        string  `json:"meter_name"`
	MeterCategory    string  `json:"meter_category"`
	MeterSubcategory string  `json:"meter_subcategory"`
	Cost             float64 `json:"cost"`
	Currency         string  `json:"currency"`
	ResourceName     string  `json:"resource_name,omitempty"`
	ResourceID       string  `json:"resource_id,omitempty"`
}

// ServiceDrilldown groups meter costs under their service.
type ServiceDrilldown struct {
	ServiceName string        `json:"service_name"`
	TotalCost   float64       `json:"total_cost"`
	Meters      []MeterDetail `json:"meters"`
}

// ModelUsage attributes AI platform spend to a model and usage type.
// UsageType is a composed tag such as "text_input" or "audio_cached_input".
type ModelUsage struct {
	ModelName      string  `json:"model_name"`
	UsageType      string  `json:"model_type"`
	Cost           float64 `json:"cost"`
	PercentageOfAI float64 `json:"percentage_of_ai"`
}

// Drilldown is the fully expanded meter-level breakdown of a period.
type Drilldown struct {
	SubscriptionID   string             `json:"subscription_id"`
	SubscriptionName string             `json:"subscription_name,omitempty"`
	PeriodStart      string             `json:"period_start"`
	PeriodEnd        string             `json:"period_end"`
	TotalCost        float64            `json:"total_cost"`
	Services         []ServiceDrilldown `json:"services"`
	AIModels         []ModelUsage       `json:"ai_models"`
	Insights         []string           `json:"insights"`
	Degraded         bool               `json:"degraded,omitempty"`
}

// Round rounds v to the given number of decimal places (half away from zero).
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundTotal rounds an aggregated total to cents.
func RoundTotal(v float64) float64 { return Round(v, 2) }

// RoundLine rounds a line item cost to four decimals.
func RoundLine(v float64) float64 { return Round(v, 4) }

// RoundPercent rounds a percentage to one decimal.
func RoundPercent(v float64) float64 { return Round(v, 1) }

// MonthEnd returns the last day of t's month: day 28 plus four days always lands
// in the next month, whose first day minus one is the month end.
func MonthEnd(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), 28, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 4)
	first := time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 0, -1)
}

// LinearForecast extrapolates month-to-date spend assuming uniform daily cost.
// Returns 0 when no days have elapsed.
func LinearForecast(current float64, daysElapsed, daysInMonth int) float64 {
	if daysElapsed <= 0 {
		return 0
	}
	return RoundTotal(current / float64(daysElapsed) * float64(daysInMonth))
}

// ResourceName returns the final "/"-delimited segment of a resource id.
func ResourceName(resourceID string) string {
	return resourceID[strings.LastIndex(resourceID, "/")+1:]
}
