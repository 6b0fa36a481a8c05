package cost

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedDate is returned when a usage date is neither a YYYYMMDD
// integer nor an ISO-8601 string.
var ErrUnsupportedDate = errors.New("unsupported usage date encoding")

// ErrMissingColumn is returned when a response lacks a column its query requires.
var ErrMissingColumn = errors.New("missing column")

const (
	columnUsageDate = "UsageDate"
	columnCurrency  = "Currency"
	compactDate     = "20060102"
)

// costColumns lists the names the API uses for the aggregated cost column.
var costColumns = []string{aggregationColumn, "PreTaxCost", "CostUSD"}

// Column is a column header of a query response.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Row is one decoded billing row.
type Row struct {
	Cost     float64
	Date     time.Time
	Dims     map[Dimension]string
	Currency string
}

// Dim returns the value of dimension d, or "" when absent.
func (r Row) Dim(d Dimension) string {
	return r.Dims[d]
}

// Layout ties column indexes to the parts of a Row. Index -1 means absent.
type Layout struct {
	cost     int
	date     int
	currency int
	dims     map[Dimension]int
}

// LayoutFor returns the positional layout implied by q: cost first, then
// UsageDate for daily queries, then each dimension in request order, then an
// optional currency.
func LayoutFor(q Query) Layout {
	l := Layout{cost: 0, date: -1, dims: make(map[Dimension]int, len(q.Dimensions))}
	next := 1
	if q.Granularity == GranularityDaily {
		l.date = next
		next++
	}
	for _, d := range q.Dimensions {
		l.dims[d] = next
		next++
	}
	l.currency = next
	return l
}

// ResolveLayout returns the layout of a response to q. Named columns win over
// position when the response carries them; every column q requires must then
// be present by name.
func ResolveLayout(q Query, columns []Column) (Layout, error) {
	if len(columns) == 0 {
		return LayoutFor(q), nil
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[strings.ToLower(c.Name)] = i
	}
	lookup := func(name string) int {
		if i, ok := index[strings.ToLower(name)]; ok {
			return i
		}
		return -1
	}

	l := Layout{cost: -1, date: -1, currency: lookup(columnCurrency), dims: make(map[Dimension]int, len(q.Dimensions))}
	for _, name := range costColumns {
		if i := lookup(name); i >= 0 {
			l.cost = i
			break
		}
	}
	if l.cost < 0 {
		return Layout{}, fmt.Errorf("%w: %s", ErrMissingColumn, aggregationColumn)
	}
	if q.Granularity == GranularityDaily {
		if l.date = lookup(columnUsageDate); l.date < 0 {
			return Layout{}, fmt.Errorf("%w: %s", ErrMissingColumn, columnUsageDate)
		}
	}
	for _, d := range q.Dimensions {
		i := lookup(string(d))
		if i < 0 {
			return Layout{}, fmt.Errorf("%w: %s", ErrMissingColumn, d)
		}
		l.dims[d] = i
	}
	return l, nil
}

// Decode converts raw rows using the layout.
func (l Layout) Decode(rows [][]any) ([]Row, error) {
	out := make([]Row, 0, len(rows))
	for n, raw := range rows {
		c, err := parseCost(cell(raw, l.cost))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}

		row := Row{Cost: c, Currency: DefaultCurrency, Dims: make(map[Dimension]string, len(l.dims))}
		if l.date >= 0 {
			row.Date, err = ParseUsageDate(cell(raw, l.date))
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", n, err)
			}
		}
		for d, i := range l.dims {
			row.Dims[d] = text(cell(raw, i))
		}
		if cur := text(cell(raw, l.currency)); cur != "" {
			row.Currency = cur
		}
		out = append(out, row)
	}
	return out, nil
}

// ParseUsageDate accepts an 8-digit YYYYMMDD integer (as number or string)
// or a string whose first ten characters are an ISO-8601 date.
func ParseUsageDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case float64:
		if d != math.Trunc(d) {
			return time.Time{}, fmt.Errorf("%w: %v", ErrUnsupportedDate, d)
		}
		return parseCompactDate(int64(d))
	case int:
		return parseCompactDate(int64(d))
	case int64:
		return parseCompactDate(d)
	case json.Number:
		n, err := d.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s", ErrUnsupportedDate, d)
		}
		return parseCompactDate(n)
	case string:
		if len(d) == len(compactDate) && isDigits(d) {
			n, _ := strconv.ParseInt(d, 10, 64)
			return parseCompactDate(n)
		}
		if len(d) >= len(DateLayout) {
			t, err := time.Parse(DateLayout, d[:len(DateLayout)])
			if err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedDate, d)
	default:
		return time.Time{}, fmt.Errorf("%w: %T", ErrUnsupportedDate, v)
	}
}

func parseCompactDate(n int64) (time.Time, error) {
	if n < 10000101 || n > 99991231 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrUnsupportedDate, n)
	}
	t, err := time.Parse(compactDate, strconv.FormatInt(n, 10))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %d", ErrUnsupportedDate, n)
	}
	return t, nil
}

func parseCost(v any) (float64, error) {
	switch c := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return c, nil
	case int:
		return float64(c), nil
	case int64:
		return float64(c), nil
	case json.Number:
		f, err := c.Float64()
		if err != nil {
			return 0, fmt.Errorf("cost %q: %w", c, err)
		}
		return f, nil
	case string:
		if c == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return 0, fmt.Errorf("cost %q: %w", c, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cost: unexpected type %T", v)
	}
}

func cell(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
