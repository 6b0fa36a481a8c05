package messagequeue

import "time"

// ReportRefreshedPayload is the schema for costs.*.refreshed messages.
type ReportRefreshedPayload struct {
	Kind       string    `json:"kind"`
	CacheKey   string    `json:"cache_key"`
	TotalCost  float64   `json:"total_cost"`
	Degraded   bool      `json:"degraded"`
	ComputedAt time.Time `json:"computed_at"`
}
