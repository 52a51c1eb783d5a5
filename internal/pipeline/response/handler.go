// internal/pipeline/response/handler.go
package response

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"planiq/internal/common/llm"
	"planiq/internal/common/logger"
	"planiq/internal/common/metrics"
	"planiq/internal/models"
)

const StageName = "response-synthesizer"

const systemPrompt = `You are Plan IQ, a professional supply chain intelligence expert.

CRITICAL ANTI-HALLUCINATION RULES (MUST FOLLOW):

1. ONLY use data provided in the Database Query Results - NEVER invent values
2. Use EXACT values from the data - store IDs, numbers, percentages must match exactly
3. If you see store IDs like ST0050, use ST0050 - do NOT convert to city names
4. If the data shows 0 or NULL values, report them as-is - zero is valid data!
5. Count the actual rows - if data shows 5 rows, say "5 records", not "several"

RESPONSE STRUCTURE:

## Summary
(2-3 sentences summarizing the key findings from the ACTUAL data)

### Data Analysis
(Create a markdown table using the EXACT data provided)

### Key Insights
- Bullet points based ONLY on the data shown
- Include specific numbers from the results

### Recommendations
- Actionable suggestions based on the data
- Reference specific values when making recommendations

INTERPRETING SPECIAL VALUES:
- wdd_uplift = 0 means "no weather impact" (valid insight, not missing data)
- NULL values should be mentioned as "data not available for this field"
- Negative percentages = decline, positive = growth

Remember: Your credibility depends on accuracy. Never guess or fill in gaps.`

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

// Execute produces the final narrative answer. Zero-row results get the
// fixed no-data message without any completion call, so nothing can be
// fabricated about data that does not exist. A completion failure degrades
// to a raw-results summary and partial_success.
func (h *Handler) Execute(ctx context.Context, query string, result *models.QueryExecutionResult, domainResults map[string]string, chartReady bool) (string, models.Status) {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues(StageName).Observe(time.Since(start).Seconds())
	}()

	if result == nil || result.RowCount == 0 {
		sql := "N/A"
		if result != nil && result.GeneratedQuery != "" {
			sql = result.GeneratedQuery
		}
		h.logger.Info("no data to analyze, returning zero-row message", nil)
		return noDataAnswer(sql), models.StatusSuccessNoData
	}

	prompt := h.buildPrompt(query, result, domainResults, chartReady)

	answer, err := h.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Temperature:  h.config.Temperature,
		MaxTokens:    h.config.MaxTokens,
		Purpose:      "narrative",
	})
	if err != nil {
		metrics.PipelineStageFailures.WithLabelValues(StageName, "GENERATION_FAILED").Inc()
		h.logger.Warn("narrative synthesis degraded to raw results", map[string]interface{}{
			"error": err.Error(),
		})
		return fallbackAnswer(result), models.StatusPartialSuccess
	}

	h.logger.Info("response synthesized", map[string]interface{}{
		"rows": result.RowCount,
	})
	return answer, models.StatusSuccess
}

func (h *Handler) buildPrompt(query string, result *models.QueryExecutionResult, domainResults map[string]string, chartReady bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "User Query: %s\n\n", query)
	fmt.Fprintf(&b, "Database Query Results: %d rows returned.\n\n", result.RowCount)
	fmt.Fprintf(&b, "SQL Query:\n%s\n\n", result.GeneratedQuery)

	if result.RowCount <= h.config.FullDataThreshold {
		fmt.Fprintf(&b, "Full Data (%d rows):\n", result.RowCount)
		writeRows(&b, result.Rows)
	} else {
		fmt.Fprintf(&b, "Sample data (first %d of %d rows):\n", h.config.SampleRows, result.RowCount)
		writeRows(&b, result.Rows[:h.config.SampleRows])
		fmt.Fprintf(&b, "... and %d more rows.\n", result.RowCount-h.config.SampleRows)
	}

	if len(domainResults) > 0 {
		domains := make([]string, 0, len(domainResults))
		for name := range domainResults {
			domains = append(domains, name)
		}
		sort.Strings(domains)
		fmt.Fprintf(&b, "\nActive Domain Experts: %s\n", strings.Join(domains, ", "))
		for _, name := range domains {
			if domainResults[name] != "" {
				fmt.Fprintf(&b, "\n%s Analysis:\n%s\n", capitalize(name), domainResults[name])
			}
		}
	}

	b.WriteString(`
YOUR TASK:
1. Analyze ONLY the data shown above
2. Create a response with the exact values from the results
3. Do NOT add any information not present in the data
4. If the query asked for something not in the results, note what's missing
`)
	if chartReady {
		b.WriteString(`At the end add: "A visualization is provided below."` + "\n")
	}
	b.WriteString("\nGenerate a professional, accurate response:\n")
	return b.String()
}

func writeRows(b *strings.Builder, rows []models.RowRecord) {
	for i, row := range rows {
		encoded, err := json.Marshal(row)
		if err != nil {
			continue
		}
		fmt.Fprintf(b, "%d. %s\n", i+1, encoded)
	}
}

// noDataAnswer is assembled here, never by a completion call, so it cannot
// drift into fabricated numbers.
func noDataAnswer(sql string) string {
	return fmt.Sprintf(`**No data found for your query.** This could be because:

- The time period you mentioned doesn't have available data
- The product, location, or event name doesn't exist in our records
- The region name might be misspelled (available regions: Northeast, Southeast, Midwest, West, Southwest)
- No records match all your search criteria

**Suggestions:**
- Try a different time period
- Check if the product or location name is spelled correctly
- Use broader search terms
- Try asking about a different region or time range

SQL Query executed:
%s

**Result:** 0 rows returned.`, sql)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// fallbackAnswer describes what was found without interpretation.
func fallbackAnswer(result *models.QueryExecutionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Query Results**\n\nFound **%d records** from the database.\n\n", result.RowCount)
	fmt.Fprintf(&b, "SQL Query:\n%s\n\nSample Data:\n", result.GeneratedQuery)

	sample := result.Rows
	if len(sample) > 5 {
		sample = sample[:5]
	}
	writeRows(&b, sample)
	b.WriteString("\n(Response synthesis encountered an error, showing raw results above)")
	return b.String()
}
