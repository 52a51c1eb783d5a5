// internal/pipeline/visualization/handler_test.go
package visualization

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
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	f.prompt = req.UserPrompt
	return f.response, f.err
}

func salesResult() *models.QueryExecutionResult {
	return &models.QueryExecutionResult{
		GeneratedQuery: "SELECT region, revenue FROM sales GROUP BY region LIMIT 20",
		Columns:        []string{"region", "revenue"},
		Rows: []models.RowRecord{
			{"region": "northeast", "revenue": int64(25000)},
			{"region": "southeast", "revenue": int64(18000)},
		},
		RowCount: 2,
		Status:   models.ExecStatusSuccess,
	}
}

func TestExecute_AcceptsValidCompletion(t *testing.T) {
	completer := &fakeCompleter{response: `{
		"chartType": "ColumnChart",
		"data": [["Region", "Revenue"], ["Northeast", 25000], ["Southeast", 18000]],
		"options": {"title": "Revenue by Region"}
	}`}
	handler := NewHandler(LoadConfig(), completer, logger.NewTestLogger(t))

	viz := handler.Execute(context.Background(), "revenue by region", models.ChartTypeAuto, salesResult())

	require.True(t, viz.Ready)
	require.NotNil(t, viz.Chart)
	assert.Equal(t, models.ChartTypeColumn, viz.Chart.ChartType)
	assert.Len(t, viz.Chart.Data, 3)
	assert.Contains(t, completer.prompt, "Available Columns: region, revenue")
}

func TestExecute_FallsBackOnBadCompletion(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{"completion error", "", errors.New("service down")},
		{"not json", "here is your chart: ```json ...```", nil},
		{"unknown chart type", `{"chartType": "Sparkline", "data": [["A"], ["b"]]}`, nil},
		{"header row only", `{"chartType": "ColumnChart", "data": [["A", "B"]]}`, nil},
		{"numeric header", `{"chartType": "ColumnChart", "data": [["A", 2], ["b", 1]]}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{response: tt.response, err: tt.err}
			handler := NewHandler(LoadConfig(), completer, logger.NewTestLogger(t))

			viz := handler.Execute(context.Background(), "show a bar chart of revenue", models.ChartTypeAuto, salesResult())

			require.True(t, viz.Ready)
			require.NotNil(t, viz.Chart)
			// Fallback derives headers from the result columns.
			assert.Equal(t, models.ChartTypeBar, viz.Chart.ChartType)
			assert.Equal(t, []interface{}{"Region", "Revenue"}, viz.Chart.Data[0])
			assert.Equal(t, []interface{}{"northeast", int64(25000)}, viz.Chart.Data[1])
		})
	}
}

func TestExecute_ExplicitTypeWinsInFallback(t *testing.T) {
	completer := &fakeCompleter{response: "not json"}
	handler := NewHandler(LoadConfig(), completer, logger.NewTestLogger(t))

	viz := handler.Execute(context.Background(), "revenue split", models.ChartTypePie, salesResult())

	require.True(t, viz.Ready)
	assert.Equal(t, models.ChartTypePie, viz.Chart.ChartType)
}

func TestExecute_NoDataYieldsErrorChart(t *testing.T) {
	completer := &fakeCompleter{}
	handler := NewHandler(LoadConfig(), completer, logger.NewTestLogger(t))

	viz := handler.Execute(context.Background(), "chart nothing", models.ChartTypeAuto, &models.QueryExecutionResult{
		Status: models.ExecStatusNoData,
	})

	assert.False(t, viz.Ready)
	assert.NotEmpty(t, viz.Error)
	require.NotNil(t, viz.Chart)
	assert.Equal(t, models.ChartTypeTable, viz.Chart.ChartType)
}

func TestChartable(t *testing.T) {
	tests := []struct {
		name     string
		result   *models.QueryExecutionResult
		expected bool
	}{
		{"nil result", nil, false},
		{"zero rows", &models.QueryExecutionResult{}, false},
		{
			"numeric rows within limit",
			salesResult(),
			true,
		},
		{
			"no numeric column",
			&models.QueryExecutionResult{
				RowCount: 1,
				Rows:     []models.RowRecord{{"region": "northeast", "market": "Boston, MA"}},
			},
			false,
		},
		{
			"too many rows",
			&models.QueryExecutionResult{
				RowCount: 101,
				Rows:     []models.RowRecord{{"v": int64(1)}},
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Chartable(tt.result, 100))
		})
	}
}

func TestCanChart_UsesConfiguredRowCap(t *testing.T) {
	handler := NewHandler(&Config{MaxChartRows: 1}, &fakeCompleter{}, logger.NewNoOpLogger())

	assert.False(t, handler.CanChart(salesResult()), "two rows exceed a cap of one")

	small := &models.QueryExecutionResult{
		RowCount: 1,
		Rows:     []models.RowRecord{{"region": "northeast", "revenue": int64(25000)}},
	}
	assert.True(t, handler.CanChart(small))
}

func TestFallbackChart_CapsRowsAndValueColumns(t *testing.T) {
	handler := NewHandler(LoadConfig(), &fakeCompleter{}, logger.NewTestLogger(t))

	result := &models.QueryExecutionResult{
		Columns: []string{"product", "units", "revenue", "margin"},
	}
	for i := 0; i < 40; i++ {
		result.Rows = append(result.Rows, models.RowRecord{
			"product": "p", "units": int64(i), "revenue": 1.5, "margin": 0.2,
		})
	}
	result.RowCount = len(result.Rows)

	chart := handler.fallbackChart("top products", models.ChartTypeAuto, result)

	// Header plus at most 30 data rows, label column plus two series.
	assert.Len(t, chart.Data, 31)
	assert.Equal(t, []interface{}{"Product", "Units", "Revenue"}, chart.Data[0])
}
