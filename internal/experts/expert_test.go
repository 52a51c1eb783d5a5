// internal/experts/expert_test.go
package experts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpertRouting(t *testing.T) {
	all := All()

	tests := []struct {
		name    string
		query   string
		experts []string
	}{
		{
			name:    "sales query routes to sales",
			query:   "What was the total revenue last week?",
			experts: []string{"sales"},
		},
		{
			name:    "wdd query routes to metrics not sales",
			query:   "What is the WDD uplift for ice cream next week?",
			experts: []string{"metrics"},
		},
		{
			name:    "weather plus demand combo routes to metrics",
			query:   "How will the heatwave impact demand for bottled water?",
			experts: []string{"weather", "metrics"},
		},
		{
			name:    "regional query routes to location",
			query:   "Show me stores in the northeast region",
			experts: []string{"location"},
		},
		{
			name:    "spoilage query routes to inventory",
			query:   "How much spoilage did we record for dairy?",
			experts: []string{"inventory"},
		},
		{
			name:    "holiday query routes to events",
			query:   "What happens around Thanksgiving and Black Friday?",
			experts: []string{"events"},
		},
		{
			name:    "explicit sales exclusion keeps metrics out",
			query:   "units sold count for bread last week",
			experts: []string{"sales"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, e := range all {
				if e.CanHandle(tt.query) {
					got = append(got, e.Name())
				}
			}
			assert.ElementsMatch(t, tt.experts, got)
		})
	}
}

func TestDetectTimeContext(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantType   string
		wantFilter string
	}{
		{
			name:       "last week anchors to previous week end",
			query:      "revenue last week",
			wantType:   "historical",
			wantFilter: "s.transaction_date = '2025-11-01'",
		},
		{
			name:       "this week anchors to current week end",
			query:      "sales this week",
			wantType:   "current",
			wantFilter: "s.transaction_date = '2025-11-08'",
		},
		{
			name:       "next week anchors to next week end",
			query:      "demand next week",
			wantType:   "future",
			wantFilter: "s.transaction_date = '2025-11-15'",
		},
		{
			name:       "week-on-week spans both anchor weeks",
			query:      "week-on-week change",
			wantType:   "comparison",
			wantFilter: "s.transaction_date IN ('2025-11-01', '2025-11-08')",
		},
		{
			name:       "no phrase defaults to current with no filter",
			query:      "total revenue",
			wantType:   "current",
			wantFilter: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectTimeContext(tt.query, "s.transaction_date")
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantFilter, got.DateFilter)
		})
	}
}

func TestMetricsFormulaSelection(t *testing.T) {
	e := &MetricsExpert{}

	hints := e.DomainHints("What is the WDD forecast for next week?")
	require.NotEmpty(t, hints.Formulas)
	assert.Contains(t, hints.Formulas[0].SQL, "metric_nrm")
	assert.Contains(t, hints.Formulas[1].SQL, "metric_ly")
	assert.Equal(t, "metrics", hints.PrimaryTable)
}

func TestMetricsSeasonalAndRestaurantNotes(t *testing.T) {
	e := &MetricsExpert{}

	seasonal := e.DomainHints("Biggest WDD risks for the coming spring")
	assert.True(t, hasNoteContaining(seasonal.Notes, "coming spring"))

	restaurant := e.DomainHints("How is restaurant traffic trending?")
	assert.True(t, hasNoteContaining(restaurant.Notes, "QSR"))

	plain := e.DomainHints("WDD for milk next week")
	assert.False(t, hasNoteContaining(plain.Notes, "QSR"))
}

func TestPromptBlockRendering(t *testing.T) {
	e := &SalesExpert{}
	block := e.DomainHints("top selling products last week").PromptBlock()

	assert.Contains(t, block, "=== DOMAIN EXPERT: sales (sales_analysis) ===")
	assert.Contains(t, block, "SALES TABLE")
	assert.Contains(t, block, "Time filter (historical)")
	// Key columns render sorted for stable prompts.
	first := strings.Index(block, "- product_code:")
	second := strings.Index(block, "- sales_units:")
	require.Greater(t, first, -1)
	require.Greater(t, second, -1)
	assert.Less(t, first, second)
}

func TestHintsFor(t *testing.T) {
	hints := HintsFor("Compare revenue across regions last week", All())

	names := make([]string, 0, len(hints))
	for _, h := range hints {
		names = append(names, h.Agent)
	}
	assert.Contains(t, names, "sales")
	assert.Contains(t, names, "location")
}

func hasNoteContaining(notes []string, substr string) bool {
	for _, n := range notes {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}
