// internal/pipeline/synthesizer/handler.go
package synthesizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"planiq/internal/common/llm"
	"planiq/internal/common/logger"
	"planiq/internal/common/metrics"
	"planiq/internal/experts"
	"planiq/internal/models"
)

const StageName = "query-synthesizer"

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

// Execute turns the question plus resolved context into one PostgreSQL
// query. chartType, when not auto, adds shape requirements so the result
// set fits the requested chart. Generation is a single completion call;
// failure surfaces to the caller.
func (h *Handler) Execute(ctx context.Context, query string, rc *models.ResolvedContext, chartType string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues(StageName).Observe(time.Since(start).Seconds())
	}()

	prompt := buildPrompt(query, rc, experts.HintsFor(query, experts.All()))
	if chartType != "" && chartType != models.ChartTypeAuto {
		prompt += chartAddendum(chartType)
	}

	raw, err := h.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Temperature:  h.config.Temperature,
		MaxTokens:    h.config.MaxTokens,
		Purpose:      "sql",
	})
	if err != nil {
		metrics.PipelineStageFailures.WithLabelValues(StageName, "GENERATION_FAILED").Inc()
		h.logger.Error("query generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return "", err
	}

	sql := h.sanitize(raw, chartType)
	h.logger.Info("query generated", map[string]interface{}{
		"query": sql,
	})
	return sql, nil
}

// sanitize normalizes the raw completion into executable SQL: fences and
// stray semicolons removed, a row limit guaranteed.
func (h *Handler) sanitize(raw, chartType string) string {
	sql := strings.TrimSpace(raw)
	sql = strings.ReplaceAll(sql, "```sql", "")
	sql = strings.ReplaceAll(sql, "```", "")
	sql = strings.TrimSpace(sql)

	sql = strings.ReplaceAll(sql, "; LIMIT", " LIMIT")
	sql = strings.ReplaceAll(sql, ";LIMIT", " LIMIT")
	sql = strings.TrimSuffix(sql, ";")

	if !strings.Contains(strings.ToUpper(sql), "LIMIT") {
		sql = fmt.Sprintf("%s LIMIT %d", sql, h.rowLimit(chartType))
	}
	return sql
}

func (h *Handler) rowLimit(chartType string) int {
	switch chartType {
	case models.ChartTypePie:
		return 10
	case models.ChartTypeBar, models.ChartTypeColumn:
		return 20
	case models.ChartTypeLine:
		return 50
	case models.ChartTypeGeo, models.ChartTypeTable:
		return 100
	default:
		return h.config.DefaultRowLimit
	}
}
