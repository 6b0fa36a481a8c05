package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	cfhttp "github.com/Strob0t/CostLens/internal/adapter/http"
	"github.com/Strob0t/CostLens/internal/domain"
	"github.com/Strob0t/CostLens/internal/domain/cost"
	"github.com/Strob0t/CostLens/internal/port/billing"
	"github.com/Strob0t/CostLens/internal/resilience"
)

// mockCostService implements cfhttp.CostService for testing.
type mockCostService struct {
	err         error
	gotDays     int
	invalidated bool
}

func (m *mockCostService) Summary(_ context.Context, days int) (*cost.Summary, error) {
	m.gotDays = days
	if m.err != nil {
		return nil, m.err
	}
	return &cost.Summary{
		SubscriptionID: "sub-1",
		TotalCost:      150,
		CostsByService: []cost.CostByService{
			{ServiceName: "Compute", Cost: 120, Currency: "USD"},
			{ServiceName: "Storage", Cost: 30, Currency: "USD"},
		},
	}, nil
}

func (m *mockCostService) Forecast(_ context.Context) (*cost.Forecast, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &cost.Forecast{SubscriptionID: "sub-1", EstimatedTotal: 300, CurrentCost: 100, DaysElapsed: 10, DaysInMonth: 30}, nil
}

func (m *mockCostService) Drilldown(_ context.Context, days int) (*cost.Drilldown, error) {
	m.gotDays = days
	if m.err != nil {
		return nil, m.err
	}
	return &cost.Drilldown{SubscriptionID: "sub-1", Insights: []string{cost.NoCostsInsight}}, nil
}

func (m *mockCostService) InvalidateCache(_ context.Context) error {
	m.invalidated = true
	return m.err
}

func newTestRouter(svc cfhttp.CostService) chi.Router {
	r := chi.NewRouter()
	cfhttp.MountRoutes(r, &cfhttp.Handlers{Cost: svc})
	return r
}

func do(r http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

type fakeConn bool

func (c fakeConn) IsConnected() bool { return bool(c) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		events     cfhttp.ConnectionChecker
		wantStatus string
		wantEvents string
	}{
		{"events disabled", nil, "ok", ""},
		{"events connected", fakeConn(true), "ok", "connected"},
		{"events disconnected", fakeConn(false), "degraded", "disconnected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			cfhttp.MountRoutes(r, &cfhttp.Handlers{Cost: &mockCostService{}, Events: tt.events})
			rec := do(r, http.MethodGet, "/health")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["status"] != tt.wantStatus || body["events"] != tt.wantEvents {
				t.Errorf("unexpected health body %v", body)
			}
		})
	}
}

func TestCostSummary(t *testing.T) {
	svc := &mockCostService{}
	rec := do(newTestRouter(svc), http.MethodGet, "/api/v1/costs/summary?days=7")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotDays != 7 {
		t.Errorf("expected days 7, got %d", svc.gotDays)
	}
	var got cost.Summary
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TotalCost != 150 || len(got.CostsByService) != 2 {
		t.Errorf("unexpected summary %+v", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestCostSummaryDefaultDays(t *testing.T) {
	svc := &mockCostService{}
	do(newTestRouter(svc), http.MethodGet, "/api/v1/costs/summary")
	if svc.gotDays != 30 {
		t.Fatalf("expected default 30 days, got %d", svc.gotDays)
	}
}

func TestCostDrilldownInvalidDays(t *testing.T) {
	rec := do(newTestRouter(&mockCostService{}), http.MethodGet, "/api/v1/costs/drilldown?days=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "days must be an integer" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestCostForecast(t *testing.T) {
	rec := do(newTestRouter(&mockCostService{}), http.MethodGet, "/api/v1/costs/forecast")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got cost.Forecast
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.EstimatedTotal != 300 {
		t.Fatalf("expected 300, got %v", got.EstimatedTotal)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		wantMsg string
	}{
		{
			name:    "validation",
			err:     fmt.Errorf("%w: days must be between 1 and 366, got 0", domain.ErrValidation),
			want:    http.StatusBadRequest,
			wantMsg: "days must be between 1 and 366, got 0",
		},
		{
			name:    "upstream status error",
			err:     fmt.Errorf("summary report: %w", &billing.StatusError{StatusCode: http.StatusForbidden, Body: "denied"}),
			want:    http.StatusBadGateway,
			wantMsg: "billing api returned status 403",
		},
		{
			name: "unavailable",
			err:  fmt.Errorf("summary report: %w: %w", domain.ErrUnavailable, resilience.ErrCircuitOpen),
			want: http.StatusServiceUnavailable,
		},
		{
			name:    "internal",
			err:     errors.New("boom"),
			want:    http.StatusInternalServerError,
			wantMsg: "internal server error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newTestRouter(&mockCostService{err: tt.err}), http.MethodGet, "/api/v1/costs/summary?days=0")
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			msg := decodeError(t, rec)
			if tt.wantMsg != "" && msg != tt.wantMsg {
				t.Fatalf("expected message %q, got %q", tt.wantMsg, msg)
			}
			if strings.Contains(msg, "boom") {
				t.Fatal("internal error detail leaked to client")
			}
		})
	}
}

func TestInvalidateCache(t *testing.T) {
	svc := &mockCostService{}
	rec := do(newTestRouter(svc), http.MethodDelete, "/api/v1/costs/cache")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !svc.invalidated {
		t.Fatal("expected cache invalidation")
	}
}
