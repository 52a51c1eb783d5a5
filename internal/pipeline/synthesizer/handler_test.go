// internal/pipeline/synthesizer/handler_test.go
package synthesizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planiq/internal/common/llm"
	"planiq/internal/common/logger"
	"planiq/internal/models"
)

type fakeCompleter struct {
	response string
	err      error
	prompt   string
	system   string
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	f.prompt = req.UserPrompt
	f.system = req.SystemPrompt
	return f.response, f.err
}

func testConfig() *Config {
	return &Config{Temperature: 0.1, MaxTokens: 500, DefaultRowLimit: 50}
}

func testContext() *models.ResolvedContext {
	return &models.ResolvedContext{
		Products: models.ExpandedEntitySet{
			Resolved: []models.ResolvedEntity{
				{ID: "PROD_1", DisplayName: "Sandwiches", Kind: models.EntityKindProduct,
					Attributes: map[string]interface{}{"category": "QSR", "dept": "Fast Food"}},
			},
			Expanded: []models.ResolvedEntity{
				{ID: "PROD_2", DisplayName: "Salads", Kind: models.EntityKindProduct},
			},
		},
		Locations: models.ExpandedEntitySet{
			Resolved: []models.ResolvedEntity{
				{ID: "ST0050", DisplayName: "Miami, FL", Kind: models.EntityKindLocation},
			},
			Expanded: []models.ResolvedEntity{
				{ID: "ST0051", Kind: models.EntityKindLocation},
				{ID: "ST0052", Kind: models.EntityKindLocation},
			},
		},
		DateRange: &models.DateRange{Start: "2025-11-01", End: "2025-11-08"},
		Schema: []models.SchemaMetadata{
			{Table: "sales", Description: "transaction-level sales", Columns: []string{"product_code", "sales_units"}},
		},
	}
}

func TestExecute_SanitizesCompletion(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected string
	}{
		{
			name:     "strips fences and appends limit",
			response: "```sql\nSELECT product FROM product_hierarchy\n```",
			expected: "SELECT product FROM product_hierarchy LIMIT 50",
		},
		{
			name:     "fixes semicolon before limit",
			response: "SELECT product FROM product_hierarchy; LIMIT 10",
			expected: "SELECT product FROM product_hierarchy LIMIT 10",
		},
		{
			name:     "drops trailing semicolon and keeps existing limit",
			response: "SELECT product FROM product_hierarchy LIMIT 5;",
			expected: "SELECT product FROM product_hierarchy LIMIT 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{response: tt.response}
			handler := NewHandler(testConfig(), completer, logger.NewTestLogger(t))

			sql, err := handler.Execute(context.Background(), "sandwich sales last week", testContext(), "")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sql)
		})
	}
}

func TestExecute_ChartSpecificLimits(t *testing.T) {
	tests := []struct {
		chartType string
		expected  string
	}{
		{models.ChartTypePie, "SELECT category, SUM(v) FROM sales GROUP BY category LIMIT 10"},
		{models.ChartTypeColumn, "SELECT category, SUM(v) FROM sales GROUP BY category LIMIT 20"},
		{models.ChartTypeLine, "SELECT category, SUM(v) FROM sales GROUP BY category LIMIT 50"},
		{models.ChartTypeTable, "SELECT category, SUM(v) FROM sales GROUP BY category LIMIT 100"},
	}

	for _, tt := range tests {
		t.Run(tt.chartType, func(t *testing.T) {
			completer := &fakeCompleter{response: "SELECT category, SUM(v) FROM sales GROUP BY category"}
			handler := NewHandler(testConfig(), completer, logger.NewTestLogger(t))

			sql, err := handler.Execute(context.Background(), "chart of sales", testContext(), tt.chartType)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sql)
			assert.Contains(t, completer.prompt, "CHART-SPECIFIC REQUIREMENTS FOR "+tt.chartType)
		})
	}
}

func TestExecute_PromptScopesEntities(t *testing.T) {
	completer := &fakeCompleter{response: "SELECT 1 LIMIT 1"}
	handler := NewHandler(testConfig(), completer, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), "sandwich sales in Miami last week", testContext(), "")
	require.NoError(t, err)

	// The user's own products appear, graph-expanded siblings never do.
	assert.Contains(t, completer.prompt, "Sandwiches")
	assert.NotContains(t, completer.prompt, "Salads")

	// Expanded store IDs are fair game for location widening.
	assert.Contains(t, completer.prompt, "ST0050")
	assert.Contains(t, completer.prompt, "ST0051")

	assert.Contains(t, completer.prompt, "Date Range: 2025-11-01 to 2025-11-08")
	assert.Contains(t, completer.prompt, "Current Weekend (Week End Date): 2025-11-08")
	assert.Contains(t, completer.prompt, "- sales: transaction-level sales")
	assert.Contains(t, completer.system, "SUM(sales_units * total_amount)")
}

func TestExecute_IncludesDomainExpertBlocks(t *testing.T) {
	completer := &fakeCompleter{response: "SELECT 1 LIMIT 1"}
	handler := NewHandler(testConfig(), completer, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), "total revenue last week", testContext(), "")
	require.NoError(t, err)

	assert.Contains(t, completer.prompt, "=== DOMAIN EXPERT: sales (sales_analysis) ===")
	assert.Contains(t, completer.prompt, "Time filter (historical)")
}

func TestExecute_CompletionFailurePropagates(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("service unavailable")}
	handler := NewHandler(testConfig(), completer, logger.NewTestLogger(t))

	sql, err := handler.Execute(context.Background(), "sales last week", testContext(), "")
	assert.Error(t, err)
	assert.Empty(t, sql)
}
