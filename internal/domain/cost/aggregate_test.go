package cost_test

import (
	"slices"
	"testing"
	"time"

	"github.com/Strob0t/CostLens/internal/domain/cost"
)

func row(service, meter string, c float64) cost.Row {
	return cost.Row{
		Cost:     c,
		Currency: "USD",
		Dims: map[cost.Dimension]string{
			cost.DimServiceName: service,
			cost.DimMeter:       meter,
			cost.DimResourceID:  "/subscriptions/s/providers/x/" + meter,
		},
	}
}

func TestServiceCosts(t *testing.T) {
	services, total := cost.ServiceCosts([]cost.Row{
		row("Storage", "", 30.123456),
		row("Compute", "", 120),
		row("", "", 1),
	})
	if total != 151.12 {
		t.Errorf("expected total 151.12, got %v", total)
	}
	if len(services) != 3 {
		t.Fatalf("expected 3 services, got %d", len(services))
	}
	if services[0].ServiceName != "Compute" || services[1].Cost != 30.1235 {
		t.Errorf("unexpected ordering or rounding: %+v", services)
	}
	if services[2].ServiceName != cost.UnknownService {
		t.Errorf("expected empty service to become %q, got %q", cost.UnknownService, services[2].ServiceName)
	}
}

func TestDailyCostsSorted(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC) }
	in := []cost.Row{
		{Cost: 3, Date: d(3), Currency: "USD"},
		{Cost: 1, Date: d(1), Currency: "USD"},
		{Cost: 2, Date: d(2), Currency: "USD"},
	}
	got := cost.DailyCosts(in)
	for i, want := range []string{"2025-01-01", "2025-01-02", "2025-01-03"} {
		if got[i].Date != want {
			t.Errorf("day %d: got %s, want %s", i, got[i].Date, want)
		}
	}
	if !in[0].Date.Equal(d(3)) {
		t.Error("input slice was reordered")
	}
}

func TestBreakDownNoiseFloor(t *testing.T) {
	b := cost.BreakDown([]cost.Row{
		row("Compute", "D2s v3", 10),
		row("Compute", "Tiny", 0.0005),
	})
	if b.Total != 10 {
		t.Errorf("expected total 10, got %v", b.Total)
	}
	if len(b.Services) != 1 || len(b.Services[0].Meters) != 1 {
		t.Fatalf("expected noise row dropped, got %+v", b.Services)
	}
}

func TestBreakDownGroupsAndSorts(t *testing.T) {
	b := cost.BreakDown([]cost.Row{
		row("Storage", "LRS", 2),
		row("Foundry Models", "gpt-4o inp", 1.5),
		row("Foundry Models", "gpt rt aud outp", 6),
		row("", "misc", 0.5),
	})
	if len(b.Services) != 3 {
		t.Fatalf("expected 3 services, got %d", len(b.Services))
	}
	top := b.Services[0]
	if top.ServiceName != "Foundry Models" || top.TotalCost != 7.5 {
		t.Errorf("unexpected top service: %+v", top)
	}
	if top.Meters[0].MeterName != "gpt rt aud outp" {
		t.Errorf("meters not sorted descending: %+v", top.Meters)
	}
	if top.Meters[0].ResourceName != "gpt rt aud outp" {
		t.Errorf("expected resource name from id tail, got %q", top.Meters[0].ResourceName)
	}
	if b.Services[2].ServiceName != cost.UnknownService {
		t.Errorf("expected Unknown last, got %q", b.Services[2].ServiceName)
	}
	if len(b.AIMeters) != 2 {
		t.Errorf("expected 2 AI meters, got %d", len(b.AIMeters))
	}

	var sum float64
	for _, s := range b.Services {
		sum += s.TotalCost
	}
	if cost.RoundTotal(sum) != cost.RoundTotal(b.Total) {
		t.Errorf("service totals %v do not add up to %v", sum, b.Total)
	}
}

func TestBreakDownSubCentTotalKeepsInsights(t *testing.T) {
	b := cost.BreakDown([]cost.Row{
		row("Storage", "LRS", 0.0012),
		row("Storage", "GRS", 0.0012),
		row("Storage", "ZRS", 0.0012),
	})
	if b.Total == 0 {
		t.Fatal("expected unrounded total above zero")
	}
	if got := cost.RoundTotal(b.Total); got != 0 {
		t.Errorf("expected total to round to 0, got %v", got)
	}

	got := cost.GenerateInsights(b.Services, nil, b.Total)
	want := []string{"Storage is 0% of total costs ($0.00)"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
