package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Strob0t/CostLens/internal/domain"
	"github.com/Strob0t/CostLens/internal/port/billing"
	"github.com/Strob0t/CostLens/internal/resilience"
)

// defaultDays is the reporting period when the days parameter is omitted.
const defaultDays = 30

// queryDays reads the days query parameter. Range checks are left to the
// service; only non-integers are rejected here.
func queryDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return defaultDays, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "days must be an integer")
		return 0, false
	}
	return days, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *billing.StatusError
	switch {
	case errors.Is(err, domain.ErrValidation):
		msg := err.Error()
		if i := strings.Index(msg, domain.ErrValidation.Error()+": "); i >= 0 {
			msg = msg[i+len(domain.ErrValidation.Error())+2:]
		}
		writeError(w, http.StatusBadRequest, msg)
	case errors.Is(err, domain.ErrUnavailable), errors.Is(err, resilience.ErrCircuitOpen):
		slog.WarnContext(r.Context(), "billing api unavailable", "error", err)
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusServiceUnavailable, "billing api temporarily unavailable")
	case errors.As(err, &httpErr):
		slog.ErrorContext(r.Context(), "billing api request failed", "status", httpErr.StatusCode, "error", err)
		writeError(w, http.StatusBadGateway, "billing api returned status "+strconv.Itoa(httpErr.StatusCode))
	default:
		writeInternalError(w, r, err)
	}
}

// writeInternalError logs the actual error server-side and returns a generic message to the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
