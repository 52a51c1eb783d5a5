// internal/pipeline/intent/handler.go
package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"planiq/internal/common/llm"
	"planiq/internal/common/logger"
	"planiq/internal/common/metrics"
	"planiq/internal/models"
)

const StageName = "intent-classifier"

// Classification is the stage output: one intent plus a chart-type hint for
// visualization requests.
type Classification struct {
	Intent    models.Intent
	ChartType string
}

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

// Execute classifies the query. Keyword rules run first; the completion
// fallback only engages for genuinely ambiguous phrasing and fails open to
// data_query.
func (h *Handler) Execute(ctx context.Context, query string) Classification {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues(StageName).Observe(time.Since(start).Seconds())
	}()

	if detected, ok := ClassifyByRules(query); ok {
		h.logger.Debug("intent classified by rules", map[string]interface{}{
			"intent": string(detected),
		})
		return h.withChartType(query, detected)
	}

	detected := h.classifyByCompletion(ctx, query)
	return h.withChartType(query, detected)
}

func (h *Handler) withChartType(query string, detected models.Intent) Classification {
	c := Classification{Intent: detected}
	if detected == models.IntentVisualization {
		c.ChartType = DetectChartType(query)
	}
	return c
}

// classifyByCompletion asks for exactly one of the four labels. Any invalid
// label or failure defaults to data_query.
func (h *Handler) classifyByCompletion(ctx context.Context, query string) models.Intent {
	prompt := fmt.Sprintf(`Classify the user's intent. Respond with ONLY ONE WORD:
- conversation (greetings, small talk, questions about capabilities)
- data_query (requesting data, facts, numbers)
- visualization (explicitly asking for charts/graphs/maps)
- analysis (requesting insights, recommendations, forecasts)

User query: "%s"

Intent:`, query)

	text, err := h.completer.Complete(ctx, llm.CompletionRequest{
		UserPrompt:  prompt,
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
		Purpose:     "intent",
	})
	if err != nil {
		metrics.PipelineStageFailures.WithLabelValues(StageName, "COMPLETION_FAILED").Inc()
		h.logger.Warn("intent completion failed, defaulting to data_query", map[string]interface{}{
			"error": err.Error(),
		})
		return models.IntentDataQuery
	}

	label := models.Intent(strings.ToLower(strings.TrimSpace(text)))
	if !label.Valid() {
		h.logger.Warn("invalid intent label, defaulting to data_query", map[string]interface{}{
			"label": string(label),
		})
		return models.IntentDataQuery
	}

	h.logger.Debug("intent classified by completion", map[string]interface{}{
		"intent": string(label),
	})
	return label
}
