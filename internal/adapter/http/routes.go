package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1/costs", func(r chi.Router) {
		r.Get("/summary", h.CostSummary)
		r.Get("/forecast", h.CostForecast)
		r.Get("/drilldown", h.CostDrilldown)
		r.Delete("/cache", h.InvalidateCache)
	})
}
