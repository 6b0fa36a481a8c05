package cost

import "time"

// Timeframe selects the period kind of a billing query.
type Timeframe string

const (
	TimeframeCustom      Timeframe = "Custom"
	TimeframeMonthToDate Timeframe = "MonthToDate"
)

// Granularity selects whether rows are split per day.
type Granularity string

const (
	GranularityNone  Granularity = "None"
	GranularityDaily Granularity = "Daily"
)

// Dimension is a grouping column of the billing API.
type Dimension string

const (
	DimServiceName      Dimension = "ServiceName"
	DimMeterCategory    Dimension = "MeterCategory"
	DimMeterSubcategory Dimension = "MeterSubcategory"
	DimMeter            Dimension = "Meter"
	DimResourceID       Dimension = "ResourceId"
)

const (
	queryTypeActualCost = "ActualCost"
	aggregationKey      = "totalCost"
	aggregationColumn   = "Cost"
	aggregationFunction = "Sum"
	groupingDimension   = "Dimension"
)

// Query describes one billing API request. It is a value: build a new one per call.
type Query struct {
	Timeframe   Timeframe
	From        time.Time
	To          time.Time
	Granularity Granularity
	Dimensions  []Dimension
}

// RangeQuery returns a Custom-timeframe query over [from, to].
func RangeQuery(from, to time.Time, granularity Granularity, dims ...Dimension) Query {
	return Query{
		Timeframe:   TimeframeCustom,
		From:        from,
		To:          to,
		Granularity: granularity,
		Dimensions:  dims,
	}
}

// MonthToDateQuery returns an ungrouped month-to-date query.
func MonthToDateQuery() Query {
	return Query{Timeframe: TimeframeMonthToDate, Granularity: GranularityNone}
}

// Request is the JSON body posted to the billing query endpoint.
type Request struct {
	Type       string      `json:"type"`
	Timeframe  Timeframe   `json:"timeframe"`
	TimePeriod *TimePeriod `json:"timePeriod,omitempty"`
	Dataset    Dataset     `json:"dataset"`
}

// TimePeriod bounds a Custom timeframe.
type TimePeriod struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Dataset selects granularity, aggregation and grouping.
type Dataset struct {
	Granularity Granularity            `json:"granularity"`
	Aggregation map[string]Aggregation `json:"aggregation"`
	Grouping    []Grouping             `json:"grouping,omitempty"`
}

// Aggregation names the aggregated column and its function.
type Aggregation struct {
	Name     string `json:"name"`
	Function string `json:"function"`
}

// Grouping is one grouping clause.
type Grouping struct {
	Type string    `json:"type"`
	Name Dimension `json:"name"`
}

// Request renders q as the wire body.
func (q Query) Request() Request {
	req := Request{
		Type:      queryTypeActualCost,
		Timeframe: q.Timeframe,
		Dataset: Dataset{
			Granularity: q.Granularity,
			Aggregation: map[string]Aggregation{
				aggregationKey: {Name: aggregationColumn, Function: aggregationFunction},
			},
		},
	}
	if q.Timeframe == TimeframeCustom {
		req.TimePeriod = &TimePeriod{
			From: q.From.Format(DateLayout),
			To:   q.To.Format(DateLayout),
		}
	}
	for _, d := range q.Dimensions {
		req.Dataset.Grouping = append(req.Dataset.Grouping, Grouping{Type: groupingDimension, Name: d})
	}
	return req
}
