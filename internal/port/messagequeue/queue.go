// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Publisher is the port interface for emitting events to a message bus.
type Publisher interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close shuts down the connection.
	Close() error
}

// StreamName is the JetStream stream that captures all cost subjects.
const StreamName = "COSTLENS"

// Subject constants for refresh events.
const (
	SubjectSummaryRefreshed   = "costs.summary.refreshed"
	SubjectForecastRefreshed  = "costs.forecast.refreshed"
	SubjectDrilldownRefreshed = "costs.drilldown.refreshed"
)

// SubjectPattern matches every subject in the stream.
const SubjectPattern = "costs.>"

// RefreshedSubject returns the subject for a report kind ("summary", "forecast", "drilldown").
func RefreshedSubject(kind string) string {
	return "costs." + kind + ".refreshed"
}
