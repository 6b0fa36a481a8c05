package cost

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// AIMarkers are the case-sensitive service-name substrings that identify
// AI model-serving services.
var AIMarkers = []string{"Foundry", "OpenAI"}

// IsAIService reports whether a service name belongs to the AI platform family.
func IsAIService(service string) bool {
	return lo.SomeBy(AIMarkers, func(m string) bool { return strings.Contains(service, m) })
}

// AIMeter is a meter row attributed to an AI service.
type AIMeter struct {
	Meter       string
	Subcategory string
	Cost        float64
}

// modelPattern maps a lowercase meter-name substring to a model and base type.
type modelPattern struct {
	substr string
	model  string
	kind   string
}

// modelPatterns is evaluated top to bottom and the first match wins. Qualified
// names must precede their unqualified parents ("gpt-4o-mini" before "gpt-4o").
var modelPatterns = []modelPattern{
	{"gpt rt aud", "gpt-realtime", "audio"},
	{"gpt rt txt", "gpt-realtime", "text"},
	{"gpt-5.2", "gpt-5.2", "text"},
	{"gpt-5-nano", "gpt-5-nano", "text"},
	{"gpt-5-mini", "gpt-5-mini", "text"},
	{"gpt-5", "gpt-5", "text"},
	{"gpt-4o-mini", "gpt-4o-mini", "text"},
	{"gpt-4o", "gpt-4o", "text"},
	{"gpt-35", "gpt-3.5-turbo", "text"},
}

// Meter-name markers as abbreviated by the billing API.
const (
	markerOutput   = "outp"
	markerInput    = "inp"
	markerCached   = "cchd"
	markerCachedLo = "cached"
	markerAudio    = "aud"
)

const (
	unknownModel = "unknown"
	baseTypeText = "text"
)

// ClassifyMeter resolves a free-text meter name to a model and usage type.
func ClassifyMeter(meter string) (model, usageType string) {
	name := strings.ToLower(meter)

	model, usageType = unknownModel, baseTypeText
	if i := slices.IndexFunc(modelPatterns, func(p modelPattern) bool {
		return strings.Contains(name, p.substr)
	}); i >= 0 {
		model, usageType = modelPatterns[i].model, modelPatterns[i].kind
	}

	switch {
	case strings.Contains(name, markerOutput):
		usageType += "_output"
	case strings.Contains(name, markerInput):
		if strings.Contains(name, markerCached) || strings.Contains(name, markerCachedLo) {
			usageType += "_cached_input"
		} else {
			usageType += "_input"
		}
	}

	// Audio wins over the generic refinement.
	if strings.Contains(name, markerAudio) {
		switch {
		case strings.Contains(name, markerOutput):
			usageType = "audio_output"
		case strings.Contains(name, markerCached):
			usageType = "audio_cached_input"
		default:
			usageType = "audio_input"
		}
	}
	return model, usageType
}

// ClassifyModels attributes AI meter costs to models, sorted by cost descending.
func ClassifyModels(meters []AIMeter) []ModelUsage {
	total := lo.SumBy(meters, func(m AIMeter) float64 { return m.Cost })
	if total == 0 {
		return []ModelUsage{}
	}

	out := make([]ModelUsage, 0, len(meters))
	for _, m := range meters {
		model, usageType := ClassifyMeter(m.Meter)
		out = append(out, ModelUsage{
			ModelName:      model,
			UsageType:      usageType,
			Cost:           RoundLine(m.Cost),
			PercentageOfAI: RoundPercent(m.Cost / total * 100),
		})
	}
	slices.SortStableFunc(out, func(a, b ModelUsage) int { return compareDesc(a.Cost, b.Cost) })
	return out
}

// compareDesc orders larger values first.
func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
