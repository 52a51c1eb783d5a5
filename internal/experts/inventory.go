// internal/experts/inventory.go
package experts

import "strings"

// InventoryExpert covers batches, stock levels, spoilage, and expiry.
type InventoryExpert struct{}

var inventoryKeywords = []string{
	"inventory", "stock", "batch", "batches",
	"expir", "shelf life", "perishable",
	"spoil", "spoilage", "waste", "loss", "damage",
	"overstock", "stockout", "out of stock",
	"received", "transfer", "movement", "tracking",
	"current stock", "stock level", "stock at",
}

func (e *InventoryExpert) Name() string { return "inventory" }

func (e *InventoryExpert) CanHandle(query string) bool {
	return containsAny(strings.ToLower(query), inventoryKeywords)
}

func (e *InventoryExpert) DomainHints(query string) Hints {
	queryLower := strings.ToLower(query)

	hints := Hints{
		Agent:        "inventory",
		Domain:       "inventory_analysis",
		PrimaryTable: "batches",
		Description:  "Inventory management - batches, stock levels, spoilage, expiry tracking",
		TableSchema: `
-- BATCHES TABLE (Inventory Snapshots)
batches (
    batch_id VARCHAR,           -- Unique batch identifier
    product_code INTEGER,       -- FK to product_hierarchy.product_id
    store_code VARCHAR,         -- FK to location.location
    week_end_date DATE,         -- Snapshot date (joins with calendar.end_date)
    transfer_in_date DATE,      -- When batch was received
    expiry_date DATE,           -- Expiration date
    received_qty INTEGER,       -- Quantity received
    stock_at_week_start INTEGER,-- Stock at start of week
    stock_at_week_end INTEGER,  -- Stock at end of week (CURRENT STOCK)
    avg_daily_sales NUMERIC     -- Average daily sales rate
)

-- SPOILAGE_REPORT TABLE (Waste Tracking)
spoilage_report (
    product_code INTEGER,       -- FK to product_hierarchy.product_id
    store_code VARCHAR,         -- FK to location.location
    week_end_date DATE,         -- Report week
    spoilage_qty INTEGER,       -- Units spoiled
    spoilage_pct NUMERIC,       -- Spoilage percentage
    spoilage_value NUMERIC      -- Dollar value of spoilage
)

-- PERISHABLE TABLE (Shelf Life)
perishable (
    product VARCHAR,            -- Product name (joins with product_hierarchy.product)
    max_period INTEGER,         -- Shelf life duration
    period_metric VARCHAR,      -- 'Days', 'Weeks', etc.
    storage_temp VARCHAR        -- 'Freezer', 'Refrigerator', 'Ambient'
)
`,
		KeyColumns: map[string]string{
			"stock_at_week_end": "Current stock level (INTEGER) - USE THIS for current inventory",
			"expiry_date":       "Batch expiration date (DATE)",
			"received_qty":      "Quantity received in batch (INTEGER)",
			"spoilage_qty":      "Units spoiled (INTEGER)",
			"max_period":        "Shelf life in days/weeks (INTEGER)",
		},
		JoinPatterns: `
-- Standard Inventory Joins:
FROM batches b
JOIN product_hierarchy ph ON b.product_code = ph.product_id
JOIN location l ON b.store_code = l.location
JOIN calendar c ON b.week_end_date = c.end_date
`,
		TimeContext: detectTimeContext(queryLower, "b.week_end_date"),
	}

	if containsAny(queryLower, []string{"expir", "shelf life"}) {
		hints.Formulas = append(hints.Formulas, Formula{
			Name:        "Days Until Expiry",
			SQL:         "b.expiry_date - '" + CurrentWeekEnd + "'::date AS days_until_expiry",
			Description: "Days remaining before the batch expires",
		})
	}
	if containsAny(queryLower, []string{"spoil", "waste", "loss"}) {
		hints.Formulas = append(hints.Formulas, Formula{
			Name:        "Spoilage Value",
			SQL:         "SUM(sr.spoilage_value) AS total_spoilage_value",
			Description: "Dollar value of spoiled units from spoilage_report",
		})
	}

	return hints
}
