// internal/experts/metrics.go
package experts

import "strings"

// MetricsExpert covers weather-driven demand (WDD) trend analysis.
// The metrics table holds weekly trend values, not actual sales numbers.
type MetricsExpert struct{}

var wddKeywords = []string{
	"wdd", "weather-driven demand", "weather driven demand",
	"demand forecast", "forecast demand", "expected demand",
	"weather impact on demand", "weather affect demand",
	"metric", "metric_nrm", "metric_ly",
	"adjusted demand", "adjusted velocity", "adjusted qty",
	"demand trend", "demand change", "demand uplift",
	"weather impact", "weather effect",
	"recommended order", "ordering volume", "procurement", "reorder",
	"restaurant traffic", "restaurant sector", "restaurant performance",
	"below-normal demand", "above-normal demand", "normal demand",
	"higher-than-normal", "lower-than-normal",
	"demand next week", "demand next month", "demand last week",
	"demand vs normal", "demand vs last year",
	"weather-driven", "weather pattern",
	"year-over-year", "yoy", "vs last year", "vs ly",
	"best performance", "strongest performance", "highest performance",
}

var wddWeatherWords = []string{
	"weather", "heatwave", "cold spell", "rain", "temperature",
	"forecast", "pattern", "based on",
}

var wddDemandWords = []string{
	"demand", "forecast", "expect", "impact", "uplift", "trend",
	"order", "ordering", "normal", "performance",
}

var wddExcludeKeywords = []string{
	"revenue only", "sold units only", "sales amount only",
	"how much sold", "units sold count",
}

func (e *MetricsExpert) Name() string { return "metrics" }

func (e *MetricsExpert) CanHandle(query string) bool {
	queryLower := strings.ToLower(query)
	if containsAny(queryLower, wddExcludeKeywords) {
		return false
	}
	if containsAny(queryLower, wddKeywords) {
		return true
	}
	// A weather word together with a demand word implies WDD analysis.
	return containsAny(queryLower, wddWeatherWords) && containsAny(queryLower, wddDemandWords)
}

func (e *MetricsExpert) DomainHints(query string) Hints {
	queryLower := strings.ToLower(query)

	hints := Hints{
		Agent:        "metrics",
		Domain:       "weather_driven_demand",
		PrimaryTable: "metrics",
		Description:  "Weather-Driven Demand (WDD) TREND analysis - NOT actual sales numbers!",
		TableSchema: `
-- METRICS TABLE (WDD Demand TRENDS - NOT actual sales numbers!)
-- These are TREND VALUES for weather impact analysis, not real demand
metrics (
    product VARCHAR,           -- Product name (joins with product_hierarchy.product)
    location VARCHAR,          -- Store ID (joins with location.location)
    end_date DATE,             -- Week ending date (joins with calendar.end_date)
    metric NUMERIC,            -- WDD trend value (weather-adjusted)
    metric_nrm NUMERIC,        -- Normal demand trend (baseline) - USE FOR SHORT-TERM FUTURE <=4 weeks
    metric_ly NUMERIC          -- Last Year demand trend - USE FOR LONG-TERM >4 weeks OR Historical/YoY
)

-- CRITICAL UNDERSTANDING:
-- metric numbers are NOT actual demand - they're TREND VALUES
-- Use metrics table to calculate WDD PERCENTAGE, then apply to actual sales

-- WDD FORMULA SELECTION:
-- Short-term (<=4 weeks, FUTURE): (SUM(metric) - SUM(metric_nrm)) / NULLIF(SUM(metric_nrm), 0) * 100
-- Long-term (>4 weeks) OR Historical: (SUM(metric) - SUM(metric_ly)) / NULLIF(SUM(metric_ly), 0) * 100
`,
		KeyColumns: map[string]string{
			"metric":     "WDD trend value (NOT actual demand)",
			"metric_nrm": "Normal demand trend (use for FUTURE <=4 weeks)",
			"metric_ly":  "Last Year demand trend (use for PAST/YoY/>4 weeks)",
			"product":    "Product name (VARCHAR) - joins with product_hierarchy.product",
			"location":   "Store ID (VARCHAR) - joins with location.location",
			"end_date":   "Week ending date (DATE) - joins with calendar.end_date",
		},
		JoinPatterns: `
-- Standard Metrics Joins (NOTE: joins on product NAME, not ID!):
FROM metrics m
JOIN product_hierarchy ph ON m.product = ph.product
JOIN location l ON m.location = l.location
JOIN calendar c ON m.end_date = c.end_date
-- Optional weather join:
LEFT JOIN weekly_weather w ON m.location = w.store_id AND m.end_date = w.week_end_date
`,
		Formulas: []Formula{
			{
				Name:        "WDD % Short-term Future (<=4 weeks)",
				SQL:         "(SUM(m.metric) - SUM(m.metric_nrm)) / NULLIF(SUM(m.metric_nrm), 0) * 100",
				Description: "Weather-driven demand change vs normal baseline",
			},
			{
				Name:        "WDD % Long-term or Historical/YoY",
				SQL:         "(SUM(m.metric) - SUM(m.metric_ly)) / NULLIF(SUM(m.metric_ly), 0) * 100",
				Description: "Weather-driven demand change vs last year",
			},
			{
				Name:        "Recommended Order Qty",
				SQL:         "last_week_sales * (1 + wdd_pct / 100.0)",
				Description: "Actual last-week sales adjusted by the WDD percentage",
			},
		},
		TimeContext: detectTimeContext(queryLower, "m.end_date"),
		Notes: []string{
			"metrics.product is VARCHAR name, NOT integer ID",
			"Join with product_hierarchy ON product NAME",
			"FUTURE queries (<=4 weeks): use metric vs metric_nrm",
			"PAST queries (>4 weeks, YoY): use metric vs metric_ly",
			"Sector-level products (e.g., 'Restaurant Sector') have NULL category/dept - use COALESCE(ph.category, 'General') and never filter them out",
		},
	}

	if containsAny(queryLower, []string{"spring", "summer", "fall", "winter", "season", "seasonal"}) {
		hints.Notes = append(hints.Notes,
			"Seasonal queries: filter ONE year only, never c.year IN (2024, 2025) - metric_ly already carries last year",
			"'last spring' = c.season = 'Spring' AND c.year = 2025 AND m.end_date <= '"+CurrentWeekEnd+"'",
			"'coming spring' = c.season = 'Spring' AND c.year = 2026 AND m.end_date >= '2025-11-09'",
			"For biggest risks: ORDER BY the full expression DESC, never ORDER BY ABS(alias)",
		)
	}

	if containsAny(queryLower, []string{"restaurant", "qsr"}) {
		hints.Notes = append(hints.Notes,
			"Restaurant sector: filter ph.product = 'Restaurant Sector' (NOT ph.category = 'QSR') - it is a sector-level product covering QSR, Fast Food and Casual Dining",
		)
	}

	return hints
}
