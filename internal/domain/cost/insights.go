package cost

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// NoCostsInsight is the sole insight for a period without spend.
const NoCostsInsight = "No costs recorded for this period."

// voiceSavingsThreshold is the audio share of AI spend above which a cheaper
// realtime model is suggested.
const voiceSavingsThreshold = 80.0

// GenerateInsights derives human-readable observations from a drilldown.
// services must already be sorted by total cost descending.
func GenerateInsights(services []ServiceDrilldown, models []ModelUsage, total float64) []string {
	if total == 0 {
		return []string{NoCostsInsight}
	}

	var insights []string
	if len(services) > 0 {
		top := services[0]
		insights = append(insights, fmt.Sprintf("%s is %.0f%% of total costs ($%.2f)",
			top.ServiceName, top.TotalCost/total*100, top.TotalCost))
	}

	if len(models) == 0 {
		return insights
	}

	totalAI := sumModels(models, func(ModelUsage) bool { return true })
	voice := sumModels(models, func(m ModelUsage) bool { return strings.Contains(m.UsageType, "audio") })
	text := sumModels(models, func(m ModelUsage) bool {
		return strings.Contains(m.UsageType, "text") && !strings.Contains(m.UsageType, "audio")
	})
	cached := sumModels(models, func(m ModelUsage) bool { return strings.Contains(m.UsageType, "cached") })

	if voice > 0 {
		pct := voice / totalAI * 100
		insights = append(insights, fmt.Sprintf("Voice/Realtime API: $%.2f (%.0f%% of AI costs)", voice, pct))
		if pct > voiceSavingsThreshold {
			insights = append(insights, "Consider gpt-realtime-mini for 80-90% voice cost savings")
		}
	}
	if text > 0 {
		insights = append(insights, fmt.Sprintf("Text API: $%.2f (%.0f%% of AI costs)", text, text/totalAI*100))
	}
	if cached > 0 {
		insights = append(insights, fmt.Sprintf("Prompt caching active: $%.2f in cached requests", cached))
	}
	return insights
}

func sumModels(models []ModelUsage, keep func(ModelUsage) bool) float64 {
	return lo.SumBy(lo.Filter(models, func(m ModelUsage, _ int) bool { return keep(m) }),
		func(m ModelUsage) float64 { return m.Cost })
}
