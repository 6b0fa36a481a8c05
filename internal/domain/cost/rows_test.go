package cost_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/CostLens/internal/domain/cost"
)

func TestParseUsageDate(t *testing.T) {
	want := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
	}{
		{"float64 compact", float64(20250307)},
		{"int compact", 20250307},
		{"json number", json.Number("20250307")},
		{"string compact", "20250307"},
		{"iso date", "2025-03-07"},
		{"iso datetime", "2025-03-07T00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cost.ParseUsageDate(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(want) {
				t.Errorf("got %s, want %s", got, want)
			}
		})
	}
}

func TestParseUsageDateUnsupported(t *testing.T) {
	for _, in := range []any{"03/07/2025", float64(2025.5), float64(250307), true, nil, "2025"} {
		if _, err := cost.ParseUsageDate(in); !errors.Is(err, cost.ErrUnsupportedDate) {
			t.Errorf("ParseUsageDate(%v): expected ErrUnsupportedDate, got %v", in, err)
		}
	}
}

func TestLayoutForPositional(t *testing.T) {
	q := cost.RangeQuery(time.Now(), time.Now(), cost.GranularityNone,
		cost.DimServiceName, cost.DimMeterCategory, cost.DimMeterSubcategory, cost.DimMeter, cost.DimResourceID)

	rows, err := cost.LayoutFor(q).Decode([][]any{
		{12.5, "Foundry Models", "AI", "GPT", "gpt-4o inp", "/a/b/res", "EUR"},
		{1.0, nil, nil, nil, nil, nil},
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	r := rows[0]
	if r.Cost != 12.5 || r.Dim(cost.DimServiceName) != "Foundry Models" || r.Dim(cost.DimMeter) != "gpt-4o inp" {
		t.Errorf("unexpected row: %+v", r)
	}
	if r.Dim(cost.DimResourceID) != "/a/b/res" || r.Currency != "EUR" {
		t.Errorf("unexpected resource/currency: %+v", r)
	}
	if rows[1].Currency != cost.DefaultCurrency || rows[1].Dim(cost.DimServiceName) != "" {
		t.Errorf("expected defaults for sparse row, got %+v", rows[1])
	}
}

func TestLayoutForDaily(t *testing.T) {
	q := cost.RangeQuery(time.Now(), time.Now(), cost.GranularityDaily)
	rows, err := cost.LayoutFor(q).Decode([][]any{{3.25, float64(20250102), "USD"}})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := rows[0].Date.Format(cost.DateLayout); got != "2025-01-02" {
		t.Errorf("expected 2025-01-02, got %s", got)
	}
}

func TestResolveLayoutByName(t *testing.T) {
	q := cost.RangeQuery(time.Now(), time.Now(), cost.GranularityDaily, cost.DimServiceName)
	cols := []cost.Column{
		{Name: "UsageDate", Type: "Number"},
		{Name: "ServiceName", Type: "String"},
		{Name: "PreTaxCost", Type: "Number"},
		{Name: "Currency", Type: "String"},
	}
	l, err := cost.ResolveLayout(q, cols)
	if err != nil {
		t.Fatalf("ResolveLayout: %v", err)
	}
	rows, err := l.Decode([][]any{{float64(20250102), "Storage", 7.5, "GBP"}})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	r := rows[0]
	if r.Cost != 7.5 || r.Dim(cost.DimServiceName) != "Storage" || r.Currency != "GBP" {
		t.Errorf("unexpected row: %+v", r)
	}
}

func TestResolveLayoutMissingColumn(t *testing.T) {
	q := cost.RangeQuery(time.Now(), time.Now(), cost.GranularityNone, cost.DimServiceName, cost.DimMeter)
	_, err := cost.ResolveLayout(q, []cost.Column{{Name: "Cost"}, {Name: "ServiceName"}})
	if !errors.Is(err, cost.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestDecodeBadDate(t *testing.T) {
	q := cost.RangeQuery(time.Now(), time.Now(), cost.GranularityDaily)
	_, err := cost.LayoutFor(q).Decode([][]any{{1.0, "yesterday"}})
	if !errors.Is(err, cost.ErrUnsupportedDate) {
		t.Fatalf("expected ErrUnsupportedDate, got %v", err)
	}
}

func TestQueryRequest(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	body, err := json.Marshal(cost.RangeQuery(from, to, cost.GranularityNone, cost.DimServiceName).Request())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"ActualCost","timeframe":"Custom","timePeriod":{"from":"2025-01-01","to":"2025-01-31"},` +
		`"dataset":{"granularity":"None","aggregation":{"totalCost":{"name":"Cost","function":"Sum"}},` +
		`"grouping":[{"type":"Dimension","name":"ServiceName"}]}}`
	if string(body) != want {
		t.Errorf("unexpected body:\n got %s\nwant %s", body, want)
	}

	mtd, err := json.Marshal(cost.MonthToDateQuery().Request())
	if err != nil {
		t.Fatal(err)
	}
	wantMTD := `{"type":"ActualCost","timeframe":"MonthToDate","dataset":{"granularity":"None",` +
		`"aggregation":{"totalCost":{"name":"Cost","function":"Sum"}}}}`
	if string(mtd) != wantMTD {
		t.Errorf("unexpected month-to-date body:\n got %s\nwant %s", mtd, wantMTD)
	}
}
