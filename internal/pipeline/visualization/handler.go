// internal/pipeline/visualization/handler.go
package visualization

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"planiq/internal/common/llm"
	"planiq/internal/common/logger"
	"planiq/internal/common/metrics"
	"planiq/internal/models"
)

const StageName = "chart-builder"

const systemPrompt = `You are an expert chart configuration generator.

## Your Task
Analyze the user's query and provided data, then generate a valid chart JSON configuration.
You must be smart about selecting the chart type if not specified.

## CRITICAL FORMAT RULES
1. Return ONLY valid JSON - no markdown, no code blocks, no explanations
2. Data MUST be a 2D array: [["Header1", "Header2"], ["Value1", number], ...]
3. First row = headers (all strings)
4. Data rows: first column = label (string), remaining = numbers
5. ALL numeric values must be actual numbers (int/float), NEVER strings

## Smart Chart Type Selection (Auto-Detect)
1. Time series data (dates/months/years) -> LineChart or AreaChart
2. Category comparison (products, regions, stores):
   - Few categories (< 10) -> ColumnChart
   - Many categories (> 10) -> BarChart
   - "Share", "Distribution", "%" -> PieChart (if < 10 slices)
3. Geographic data (states, regions) -> GeoChart
4. Correlation (two numeric variables) -> ScatterChart
5. Ranking ("Top 10", "Best") -> BarChart sorted DESC

## Required JSON Structure
{"chartType": "ColumnChart", "data": [["Region", "Sales"], ["Northeast", 25000]], "options": {"title": "Sales by Region"}}

Return ONLY the JSON object.`

type Handler struct {
	config    *Config
	completer llm.Completer
	logger    logger.Logger
}

func NewHandler(config *Config, completer llm.Completer, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		completer: completer,
		logger: log.WithFields(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Chartable reports whether a result set can become a chart: at least one
// row, not more than maxRows, and a numeric value somewhere in the first
// row to plot.
func Chartable(result *models.QueryExecutionResult, maxRows int) bool {
	if result == nil || result.RowCount == 0 || result.RowCount > maxRows {
		return false
	}
	for _, v := range result.Rows[0] {
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
	}
	return false
}

// CanChart applies Chartable with the handler's configured row cap.
func (h *Handler) CanChart(result *models.QueryExecutionResult) bool {
	return Chartable(result, h.config.MaxChartRows)
}

// Execute builds a renderable chart from the result set. The completion
// path is attempted once; anything wrong with its output drops to the
// deterministic fallback so a visualization intent always yields a chart.
func (h *Handler) Execute(ctx context.Context, query, chartType string, result *models.QueryExecutionResult) *models.Visualization {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues(StageName).Observe(time.Since(start).Seconds())
	}()

	if result == nil || result.RowCount == 0 {
		return &models.Visualization{
			Ready: false,
			Error: "no data available to chart",
			Chart: errorChart("No data available"),
		}
	}

	chart, err := h.generateByCompletion(ctx, query, chartType, result)
	if err != nil {
		metrics.PipelineStageFailures.WithLabelValues(StageName, "CHART_CONFIG_INVALID").Inc()
		h.logger.Warn("chart generation degraded to fallback", map[string]interface{}{
			"error": err.Error(),
		})
		chart = h.fallbackChart(query, chartType, result)
	}

	h.logger.Info("chart built", map[string]interface{}{
		"chart_type": chart.ChartType,
		"rows":       len(chart.Data) - 1,
	})
	return &models.Visualization{Ready: true, Chart: chart}
}

func (h *Handler) generateByCompletion(ctx context.Context, query, chartType string, result *models.QueryExecutionResult) (*models.ChartConfig, error) {
	sampleSize := len(result.Rows)
	if sampleSize > 20 {
		sampleSize = 20
	}
	sample, err := json.MarshalIndent(result.Rows[:sampleSize], "", "  ")
	if err != nil {
		return nil, err
	}

	requested := chartType
	if requested == "" || requested == models.ChartTypeAuto {
		requested = "Choose best type"
	}

	prompt := fmt.Sprintf(`User Query: %q
Requested Chart Type: %s

Data Overview:
- Total Records: %d
- Available Columns: %s

Data Sample (first %d rows):
%s

Instructions:
1. Analyze the data structure and user intent
2. Select the most appropriate chart type
3. Transform data into [["Header", "Header"], [label, number], ...] format
4. Ensure ALL numeric columns are actual numbers (not strings)
5. Limit to 50 data points max (take top N if needed)
6. Sort data meaningfully (DESC for comparisons)
7. Use clear, business-friendly column names

Generate the complete chart JSON config now:`,
		query, requested, result.RowCount, strings.Join(result.Columns, ", "), sampleSize, sample)

	raw, err := h.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Temperature:  h.config.Temperature,
		MaxTokens:    h.config.MaxTokens,
		JSONMode:     true,
		Purpose:      "chart",
	})
	if err != nil {
		return nil, err
	}

	var chart models.ChartConfig
	rawBytes := []byte(strings.TrimSpace(raw))
	if err := json.Unmarshal(rawBytes, &chart); err != nil {
		return nil, fmt.Errorf("chart config not parseable: %w", err)
	}
	if err := validateChartConfig(rawBytes, &chart); err != nil {
		return nil, err
	}
	return &chart, nil
}

// fallbackChart derives a chart directly from the result set: first column
// is the label, up to two numeric columns are the series.
func (h *Handler) fallbackChart(query, chartType string, result *models.QueryExecutionResult) *models.ChartConfig {
	columns := result.Columns
	if len(columns) == 0 && len(result.Rows) > 0 {
		for col := range result.Rows[0] {
			columns = append(columns, col)
		}
	}
	if len(columns) < 2 {
		return errorChart("Insufficient columns")
	}

	labelCol := columns[0]
	var valueCols []string
	for _, col := range columns[1:] {
		if isNumeric(result.Rows[0][col]) {
			valueCols = append(valueCols, col)
		}
	}
	if len(valueCols) == 0 {
		valueCols = columns[1:2]
	}
	if len(valueCols) > 2 {
		valueCols = valueCols[:2]
	}

	headers := []interface{}{titleCase(labelCol)}
	for _, col := range valueCols {
		headers = append(headers, titleCase(col))
	}

	data := [][]interface{}{headers}
	for i, row := range result.Rows {
		if i >= h.config.MaxFallbackRows {
			break
		}
		chartRow := []interface{}{fmt.Sprint(row[labelCol])}
		for _, col := range valueCols {
			chartRow = append(chartRow, toNumber(row[col]))
		}
		data = append(data, chartRow)
	}

	legend := "none"
	if len(valueCols) > 1 {
		legend = "top"
	}
	title := query
	if len(title) > 60 {
		title = title[:60]
	}
	if title == "" {
		title = "Data Visualization"
	}

	return &models.ChartConfig{
		ChartType: fallbackChartType(query, chartType),
		Data:      data,
		Options: map[string]interface{}{
			"title":  title,
			"legend": map[string]interface{}{"position": legend},
		},
	}
}

func fallbackChartType(query, chartType string) string {
	if chartType != "" && chartType != models.ChartTypeAuto {
		return chartType
	}
	queryLower := strings.ToLower(query)
	switch {
	case strings.Contains(queryLower, "bar"):
		return models.ChartTypeBar
	case strings.Contains(queryLower, "line") || strings.Contains(queryLower, "trend"):
		return models.ChartTypeLine
	case strings.Contains(queryLower, "pie") || strings.Contains(queryLower, "donut"):
		return models.ChartTypePie
	case strings.Contains(queryLower, "map") || strings.Contains(queryLower, "geo"):
		return models.ChartTypeGeo
	default:
		return models.ChartTypeColumn
	}
}

func errorChart(message string) *models.ChartConfig {
	return &models.ChartConfig{
		ChartType: models.ChartTypeTable,
		Data:      [][]interface{}{{"Error"}, {message}},
		Options:   map[string]interface{}{"title": "Chart Error"},
	}
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

func toNumber(v interface{}) interface{} {
	switch n := v.(type) {
	case nil:
		return 0
	case int, int32, int64, float32, float64:
		return n
	case string:
		cleaned := strings.ReplaceAll(strings.TrimPrefix(n, "$"), ",", "")
		var f float64
		if _, err := fmt.Sscanf(cleaned, "%g", &f); err == nil {
			if f == float64(int64(f)) {
				return int64(f)
			}
			return f
		}
		return 0
	default:
		return 0
	}
}

func titleCase(col string) string {
	words := strings.Split(strings.ReplaceAll(col, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
