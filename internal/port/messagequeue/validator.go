package messagequeue

import (
	"encoding/json"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch subject {
	case SubjectSummaryRefreshed, SubjectForecastRefreshed, SubjectDrilldownRefreshed:
	default:
		return nil
	}

	var p ReportRefreshedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if p.Kind == "" || p.CacheKey == "" {
		return fmt.Errorf("schema validation failed for %s: kind and cache_key are required", subject)
	}
	return nil
}
