// internal/pipeline/synthesizer/prompt.go
package synthesizer

import (
	"fmt"
	"sort"
	"strings"

	"planiq/internal/experts"
	"planiq/internal/models"
)

const systemPrompt = `You are a PostgreSQL expert for a retail supply chain database.

CRITICAL RULES:
- This is PostgreSQL: use LIMIT (not TOP), || for concatenation
- ALWAYS use NULLIF(denominator, 0) to prevent division by zero
- Use SELECT DISTINCT unless aggregating with GROUP BY
- calendar.month is a STRING ('January', 'February'), NOT an integer
- location.region values are LOWERCASE ('northeast', not 'Northeast')
- Return ONLY the SQL query without explanation

REVENUE CALCULATION:
- Total Sale Units = SUM(sales_units)
- Revenue = SUM(sales_units * total_amount)
- NEVER use SUM(total_amount) alone for revenue

NRF RETAIL CALENDAR:
- SEASONS: Spring=Feb/Mar/Apr, Summer=May/Jun/Jul, Fall=Aug/Sep/Oct, Winter=Nov/Dec/Jan
- When filtering by year/quarter/season use the calendar columns directly,
  do NOT add extra BETWEEN date filters on top of them`

// resolvedLocationNames caps the location names inlined into the prompt.
const (
	maxLocationNames     = 5
	maxLocationIDs       = 20
	maxExpandedLocations = 50
	maxEventNames        = 5
	maxProducts          = 10
)

// buildPrompt assembles the synthesis prompt: static date anchors, the
// question, the resolved entity scope, schema hints, and domain expert
// blocks. Expanded products are intentionally absent: query filters must
// name only the products the user actually asked about.
func buildPrompt(query string, rc *models.ResolvedContext, hints []experts.Hints) string {
	var b strings.Builder

	b.WriteString("=== CURRENT DATE CONTEXT ===\n")
	fmt.Fprintf(&b, "Current Weekend (Week End Date): %s\n", experts.CurrentWeekEnd)
	fmt.Fprintf(&b, "- 'This week' or 'current week' = end_date '%s'\n", experts.CurrentWeekEnd)
	fmt.Fprintf(&b, "- 'Next week' or 'NW' = end_date '%s'\n", experts.NextWeekEnd)
	fmt.Fprintf(&b, "- 'Last week' or 'LW' = end_date '%s'\n", experts.PreviousWeekEnd)
	b.WriteString("- 'Next month' or 'NM' = December 2025 -> c.month = 'December' AND c.year = 2025\n")
	b.WriteString("- 'Last month' or 'LM' = October 2025 -> c.month = 'October' AND c.year = 2025\n")
	b.WriteString("- 'Last year' or 'LY' = 2024\n")
	b.WriteString("- CRITICAL: calendar.month column is STRING ('January', 'December'), NOT integer!\n\n")

	fmt.Fprintf(&b, "User Query: %s\n\n", query)

	writeProductContext(&b, rc.Products)
	writeLocationContext(&b, rc.Locations)
	writeDateContext(&b, rc)
	writeEventContext(&b, rc.Events)
	writeSchemaContext(&b, rc.Schema)

	for _, h := range hints {
		b.WriteString("\n")
		b.WriteString(h.PromptBlock())
	}

	b.WriteString("\nGenerate the PostgreSQL query:\n")
	return b.String()
}

func writeProductContext(b *strings.Builder, products models.ExpandedEntitySet) {
	if len(products.Resolved) == 0 {
		return
	}

	names := make([]string, 0, maxProducts)
	ids := make([]string, 0, maxProducts)
	categories := map[string]bool{}
	departments := map[string]bool{}
	for i, p := range products.Resolved {
		if i >= maxProducts {
			break
		}
		names = append(names, p.DisplayName)
		ids = append(ids, p.ID)
		if cat, ok := p.Attributes["category"].(string); ok && cat != "" {
			categories[cat] = true
		}
		if dept, ok := p.Attributes["dept"].(string); ok && dept != "" {
			departments[dept] = true
		}
	}

	fmt.Fprintf(b, "Relevant Products: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(b, "Product IDs: %s\n", strings.Join(ids, ", "))
	if len(categories) > 0 {
		fmt.Fprintf(b, "Categories Found: %s\n", strings.Join(sortedKeys(categories), ", "))
	}
	if len(departments) > 0 {
		fmt.Fprintf(b, "Departments Found: %s\n", strings.Join(sortedKeys(departments), ", "))
	}

	b.WriteString(`
CRITICAL PRODUCT FILTERING RULES:
1. If the user names a CATEGORY ('QSR', 'Perishable', 'Beverages'):
   WHERE ph.category = '<category>' - do NOT filter on specific product names,
   the database must return ALL products in that category.
2. If the user names a DEPARTMENT ('Fast Food', 'Grocery'):
   WHERE ph.dept = '<dept>' - do NOT filter on specific product names.
3. If the user names SPECIFIC PRODUCTS ('Hamburgers', 'Milk'):
   WHERE ph.product IN (...) with ONLY the products the user explicitly
   mentioned in the query. Do NOT include every product listed above.
4. Counting products in a category:
   SELECT COUNT(DISTINCT ph.product) FROM product_hierarchy WHERE ph.category = '<category>'
5. If unclear, prefer the category/department filter over specific products.
`)
}

func writeLocationContext(b *strings.Builder, locations models.ExpandedEntitySet) {
	if len(locations.Resolved) > 0 {
		names := make([]string, 0, maxLocationNames)
		for i, l := range locations.Resolved {
			if i >= maxLocationNames {
				break
			}
			names = append(names, l.DisplayName)
		}
		ids := make([]string, 0, maxLocationIDs)
		for i, l := range locations.Resolved {
			if i >= maxLocationIDs {
				break
			}
			ids = append(ids, l.ID)
		}
		fmt.Fprintf(b, "Relevant Locations: %s\n", strings.Join(names, ", "))
		fmt.Fprintf(b, "Store IDs to filter: %s\n", strings.Join(ids, ", "))
	}

	if len(locations.Expanded) > 0 {
		ids := make([]string, 0, maxExpandedLocations)
		for i, l := range locations.Expanded {
			if i >= maxExpandedLocations {
				break
			}
			ids = append(ids, l.ID)
		}
		fmt.Fprintf(b, "Related Locations (same region/market): %d stores\n", len(ids))
		fmt.Fprintf(b, "Expanded Store IDs: %s\n", strings.Join(ids, ", "))
	}
	if len(locations.Resolved) > 0 || len(locations.Expanded) > 0 {
		b.WriteString("\n")
	}
}

func writeDateContext(b *strings.Builder, rc *models.ResolvedContext) {
	if rc.DateRange != nil {
		fmt.Fprintf(b, "Date Range: %s to %s\n\n", rc.DateRange.Start, rc.DateRange.End)
		return
	}
	if len(rc.Dates.Resolved) > 0 {
		samples := make([]string, 0, maxEventNames)
		for i, d := range rc.Dates.Resolved {
			if i >= maxEventNames {
				break
			}
			samples = append(samples, d.DisplayName)
		}
		fmt.Fprintf(b, "Relevant Dates: %s\n\n", strings.Join(samples, ", "))
	}
}

func writeEventContext(b *strings.Builder, events models.ExpandedEntitySet) {
	if len(events.Resolved) == 0 {
		return
	}
	names := make([]string, 0, maxEventNames)
	for i, e := range events.Resolved {
		if i >= maxEventNames {
			break
		}
		names = append(names, e.DisplayName)
	}
	fmt.Fprintf(b, "Relevant Events: %s\n", strings.Join(names, ", "))
	b.WriteString("For event analysis search BOTH event AND event_type columns, e.g.\n")
	b.WriteString("(e.event ILIKE '%music%' OR e.event_type ILIKE '%music%')\n\n")
}

func writeSchemaContext(b *strings.Builder, schema []models.SchemaMetadata) {
	if len(schema) == 0 {
		return
	}
	b.WriteString("Relevant Tables:\n")
	for _, meta := range schema {
		fmt.Fprintf(b, "- %s: %s", meta.Table, meta.Description)
		if len(meta.Columns) > 0 {
			fmt.Fprintf(b, " (columns: %s)", strings.Join(meta.Columns, ", "))
		}
		b.WriteString("\n")
	}
}

// chartRequirements extends the prompt when a specific chart is requested.
var chartRequirements = map[string]string{
	models.ChartTypePie:    "Need 1 category field and 1 numeric field. Use GROUP BY for aggregation. LIMIT 10.",
	models.ChartTypeBar:    "Need 1-2 category fields and 1-3 numeric fields. ORDER BY value DESC. LIMIT 20.",
	models.ChartTypeColumn: "Need 1-2 category fields and 1-3 numeric fields. ORDER BY value DESC. LIMIT 20.",
	models.ChartTypeLine:   "Need 1 time/sequence field and 1-3 numeric trend fields. ORDER BY the time field. LIMIT 50.",
	models.ChartTypeGeo:    "Need a location field (state/region) and 1 numeric field. Aggregate by location.",
	models.ChartTypeTable:  "Return all relevant fields with proper formatting.",
}

func chartAddendum(chartType string) string {
	requirement, ok := chartRequirements[chartType]
	if !ok {
		return ""
	}
	return fmt.Sprintf(`
CHART-SPECIFIC REQUIREMENTS FOR %s:
%s
Use clear field aliases (AS category, AS value, AS date) and appropriate
aggregation (SUM, AVG, COUNT).
`, chartType, requirement)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
