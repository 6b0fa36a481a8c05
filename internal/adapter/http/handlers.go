package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/CostLens/internal/domain/cost"
)

// CostService is the report surface the handlers need.
type CostService interface {
	Summary(ctx context.Context, days int) (*cost.Summary, error)
	Forecast(ctx context.Context) (*cost.Forecast, error)
	Drilldown(ctx context.Context, days int) (*cost.Drilldown, error)
	InvalidateCache(ctx context.Context) error
}

// ConnectionChecker reports whether an optional backing connection is up.
type ConnectionChecker interface {
	IsConnected() bool
}

// Handlers holds the HTTP handler dependencies. Events is nil when refresh
// events are disabled.
type Handlers struct {
	Cost   CostService
	Events ConnectionChecker
}

// Health handles GET /health. A lost event connection degrades the status
// but still answers 200; reports are served without it.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]string{"status": "ok"}
	if h.Events != nil {
		if h.Events.IsConnected() {
			resp["events"] = "connected"
		} else {
			resp["status"] = "degraded"
			resp["events"] = "disconnected"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// CostSummary handles GET /api/v1/costs/summary?days=30
func (h *Handlers) CostSummary(w http.ResponseWriter, r *http.Request) {
	days, ok := queryDays(w, r)
	if !ok {
		return
	}
	summary, err := h.Cost.Summary(r.Context(), days)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// CostForecast handles GET /api/v1/costs/forecast
func (h *Handlers) CostForecast(w http.ResponseWriter, r *http.Request) {
	forecast, err := h.Cost.Forecast(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

// CostDrilldown handles GET /api/v1/costs/drilldown?days=30
func (h *Handlers) CostDrilldown(w http.ResponseWriter, r *http.Request) {
	days, ok := queryDays(w, r)
	if !ok {
		return
	}
	drilldown, err := h.Cost.Drilldown(r.Context(), days)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, drilldown)
}

// InvalidateCache handles DELETE /api/v1/costs/cache
func (h *Handlers) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if err := h.Cost.InvalidateCache(r.Context()); err != nil {
		writeInternalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
