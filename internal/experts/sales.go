// internal/experts/sales.go
package experts

import "strings"

// SalesExpert covers actual transactions: revenue and units sold. Demand
// trend questions belong to the metrics expert, not here.
type SalesExpert struct{}

var salesKeywords = []string{
	"sales", "sold", "selling", "revenue", "units sold",
	"top selling", "best selling", "fastest growing",
	"sales performance", "sales trend", "sales change",
	"discount", "total amount", "gross sales",
	"how did", "perform", "performance", "transaction",
	"week-on-week", "wow", "sales uplift", "sales velocity",
}

var salesExcludeKeywords = []string{
	"wdd", "weather-driven demand", "forecast demand",
	"weather impact on demand", "adjusted demand", "adjusted velocity",
	"metric_nrm", "metric_ly",
}

func (e *SalesExpert) Name() string { return "sales" }

func (e *SalesExpert) CanHandle(query string) bool {
	queryLower := strings.ToLower(query)
	return containsAny(queryLower, salesKeywords) && !containsAny(queryLower, salesExcludeKeywords)
}

func (e *SalesExpert) DomainHints(query string) Hints {
	queryLower := strings.ToLower(query)

	hints := Hints{
		Agent:        "sales",
		Domain:       "sales_analysis",
		PrimaryTable: "sales",
		Description:  "Sales transaction analysis - actual revenue and units sold from transactions",
		TableSchema: `
-- SALES TABLE (Actual Transactions)
sales (
    product_code INTEGER,      -- FK to product_hierarchy.product_id
    store_code VARCHAR,        -- FK to location.location
    transaction_date DATE,     -- FK to calendar.end_date
    sales_units INTEGER,       -- Units sold
    total_amount NUMERIC       -- Revenue per unit
)
-- IMPORTANT: Revenue = SUM(sales_units * total_amount)
`,
		KeyColumns: map[string]string{
			"sales_units":      "Number of units sold (INTEGER)",
			"total_amount":     "Revenue per unit (NUMERIC) - multiply by sales_units for total",
			"transaction_date": "Date of sale (DATE) - joins with calendar.end_date",
			"product_code":     "Product ID (INTEGER) - joins with product_hierarchy.product_id",
			"store_code":       "Store ID (VARCHAR) - joins with location.location",
		},
		JoinPatterns: `
-- Standard Sales Joins:
FROM sales s
JOIN product_hierarchy ph ON s.product_code = ph.product_id
JOIN location l ON s.store_code = l.location
JOIN calendar c ON s.transaction_date = c.end_date
`,
		TimeContext: detectTimeContext(queryLower, "s.transaction_date"),
	}

	if containsAny(queryLower, []string{"revenue", "total sales", "gross", "amount"}) {
		hints.Formulas = append(hints.Formulas, Formula{
			Name:        "Total Revenue",
			SQL:         "SUM(s.sales_units * s.total_amount) AS revenue",
			Description: "Total revenue from sales transactions",
		})
	}
	if containsAny(queryLower, []string{"units", "quantity", "how many sold", "volume"}) {
		hints.Formulas = append(hints.Formulas, Formula{
			Name:        "Total Units Sold",
			SQL:         "SUM(s.sales_units) AS total_units",
			Description: "Total units sold",
		})
	}
	if containsAny(queryLower, []string{"week-on-week", "wow", "growth", "change"}) {
		hints.Formulas = append(hints.Formulas, Formula{
			Name:        "Week-on-Week % Change",
			SQL:         "ROUND(((curr.units - prev.units)::NUMERIC / NULLIF(prev.units, 0)) * 100, 2) AS wow_change_pct",
			Description: "Percentage change from previous week to current week, via current/previous week CTEs",
		})
	}
	if containsAny(queryLower, []string{"velocity", "daily rate", "selling speed"}) {
		hints.Formulas = append(hints.Formulas, Formula{
			Name:        "Daily Sales Velocity",
			SQL:         "SUM(s.sales_units) / 28.0 AS daily_velocity",
			Description: "Average daily sales over last 28 days",
		})
	}
	if containsAny(queryLower, []string{"top", "highest", "best", "rank"}) {
		hints.Notes = append(hints.Notes, "ORDER BY revenue DESC LIMIT 10")
	}
	if containsAny(queryLower, []string{"bottom", "lowest", "worst"}) {
		hints.Notes = append(hints.Notes, "ORDER BY revenue ASC LIMIT 10")
	}

	return hints
}
