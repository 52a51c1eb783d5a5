// internal/pipeline/intent/rules.go
package intent

import (
	"strings"

	"planiq/internal/models"
)

// Keyword rule tables. Ordered cascade: greeting, visualization, data query.
// Kept as pure functions so the cascade is testable without the completion
// service.

var greetings = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening", "greetings",
}

var greetingResponses = map[string]string{
	"hi":             "Hello! I'm Plan IQ, your supply chain intelligence assistant. How can I help you today?",
	"hello":          "Hi there! I'm here to help with supply chain insights, data analysis, and visualizations. What would you like to know?",
	"hey":            "Hey! Ready to assist with your supply chain questions. What can I do for you?",
	"good morning":   "Good morning! How can I assist with your supply chain operations today?",
	"good afternoon": "Good afternoon! What supply chain insights can I help you with?",
	"good evening":   "Good evening! How may I help with your supply chain analysis?",
}

var vizTriggers = []string{
	"chart", "graph", "visualize", "visualization", "plot", "map", "diagram",
	"pie", "bar", "line", "area", "scatter", "histogram", "gauge", "table",
	"generate", "create", "show me", "display", "draw", "make",
}

var dataWords = []string{
	"sales", "inventory", "events", "products", "revenue", "stock", "data",
}

var actionWords = []string{
	"give me", "show", "display", "list", "get",
}

var dataKeywords = []string{
	"how many", "what is", "show me", "list", "find", "get",
	"sales", "inventory", "events", "weather", "data", "records",
	"batch", "expir", "spoil", "waste", "movement", "transfer",
	"count", "total", "average", "sum",
}

// chartKeywords drives the post-workflow forced chart check. Broader than
// vizTriggers: it also catches analytical phrasings that usually want a
// chart.
var chartKeywords = []string{
	"chart", "graph", "visualize", "plot", "map", "pie", "bar", "line", "area", "scatter",
	"trend", "compare", "distribution", "breakdown", "analysis", "performance", "vs", "versus",
	"top", "bottom", "highest", "lowest", "rank", "statistics", "stats", "impact",
}

// GreetingResponse returns the canned reply for an exact greeting match.
func GreetingResponse(query string) (string, bool) {
	normalized := strings.TrimSpace(strings.ToLower(query))
	resp, ok := greetingResponses[normalized]
	return resp, ok
}

// IsGreeting reports an exact greeting match.
func IsGreeting(query string) bool {
	normalized := strings.TrimSpace(strings.ToLower(query))
	for _, g := range greetings {
		if normalized == g {
			return true
		}
	}
	return false
}

// ClassifyByRules runs the keyword cascade. The boolean is false when no
// rule fired and the completion fallback should decide.
func ClassifyByRules(query string) (models.Intent, bool) {
	queryLower := strings.ToLower(query)

	if IsGreeting(query) {
		return models.IntentConversation, true
	}

	hasVizTrigger := containsAny(queryLower, vizTriggers)
	hasAction := containsAny(queryLower, actionWords)
	hasData := containsAny(queryLower, dataWords)
	explicitChartWord := containsAny(queryLower, []string{"chart", "graph", "visual"})

	if hasVizTrigger || (hasAction && hasData && explicitChartWord) {
		return models.IntentVisualization, true
	}

	if containsAny(queryLower, dataKeywords) {
		return models.IntentDataQuery, true
	}

	return "", false
}

// HasChartKeyword reports whether the raw query carries any chart signal.
// Feeds the orchestrator's forced-chart safety net.
func HasChartKeyword(query string) bool {
	return containsAny(strings.ToLower(query), chartKeywords)
}

// DetectChartType maps phrasing to a chart type hint. Explicit chart-type
// phrases win over intent phrases; anything else is auto.
func DetectChartType(query string) string {
	queryLower := strings.ToLower(query)

	// Priority 1: explicit chart type mentions.
	switch {
	case containsAny(queryLower, []string{"pie chart", "pie graph", "donut"}):
		return models.ChartTypePie
	case containsAny(queryLower, []string{"bar chart", "bar graph", "horizontal bar"}):
		return models.ChartTypeBar
	case containsAny(queryLower, []string{"column chart", "column graph", "vertical bar"}):
		return models.ChartTypeColumn
	case containsAny(queryLower, []string{"line chart", "line graph", "trend line", "time series"}):
		return models.ChartTypeLine
	case containsAny(queryLower, []string{"map", "geographical", "geography", "by state", "by region"}):
		return models.ChartTypeGeo
	case containsAny(queryLower, []string{"table", "list all", "show all"}):
		return models.ChartTypeTable
	}

	// Priority 2: intent phrases.
	switch {
	case containsAny(queryLower, []string{"proportion", "percentage", "share of", "breakdown by"}):
		return models.ChartTypePie
	case containsAny(queryLower, []string{"compare", "comparison", "versus", "vs", "top", "rank"}):
		return models.ChartTypeColumn
	case containsAny(queryLower, []string{"trend", "over time", "daily", "weekly", "monthly", "progression", "timeline", "history"}):
		return models.ChartTypeLine
	case containsAny(queryLower, []string{"by location", "across states", "regional"}):
		return models.ChartTypeGeo
	}

	return models.ChartTypeAuto
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
