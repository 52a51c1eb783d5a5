// Package orchestrator drives one question through the full pipeline:
// intent classification, context resolution, query synthesis, execution,
// visualization, and response synthesis.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"planiq/internal/common/llm"
	"planiq/internal/common/logger"
	"planiq/internal/common/metrics"
	"planiq/internal/experts"
	"planiq/internal/models"
	"planiq/internal/pipeline/assembler"
	"planiq/internal/pipeline/executor"
	"planiq/internal/pipeline/expander"
	"planiq/internal/pipeline/intent"
	"planiq/internal/pipeline/resolver"
	"planiq/internal/pipeline/response"
	"planiq/internal/pipeline/synthesizer"
	"planiq/internal/pipeline/visualization"
)

// maxRawSampleRows bounds the raw rows echoed on the API response.
const maxRawSampleRows = 10

// maxHistoryTurns caps how many prior turns feed the conversation prompt.
const maxHistoryTurns = 3

const conversationSystemPrompt = `You are Plan IQ, a friendly RETAIL supply chain intelligence assistant.
Handle conversational queries naturally. Be helpful and concise.

=== CURRENT DATE CONTEXT ===
This Weekend (Current Week End Date): November 8, 2025 (2025-11-08)
- "Next week" means week ending November 15, 2025
- "Last week" means week ending November 1, 2025
- Current Year: 2025 | Last Year (LY): 2024

=== NRF CALENDAR CONTEXT ===
- You work with retail industry data using the NRF (National Retail Federation) calendar
- NRF quarters follow 4-5-4 week patterns; weeks end on Saturday
- Seasons: Spring=Feb/Mar/Apr, Summer=May/Jun/Jul, Fall=Aug/Sep/Oct, Winter=Nov/Dec/Jan

Your capabilities:
- Analyze retail supply chain data (sales, inventory, events, weather)
- Generate visualizations (charts, graphs, maps)
- Calculate WDD (Weather Driven Demand) impacts
Keep responses brief and professional.`

const conversationFallback = "Hello! I'm Plan IQ. How can I help you with supply chain intelligence today?"

// SessionStore is the conversation history dependency.
type SessionStore interface {
	History(ctx context.Context, sessionID string) []models.ConversationTurn
	Append(ctx context.Context, sessionID string, turn models.ConversationTurn) error
}

type Orchestrator struct {
	intents   *intent.Handler
	resolver  *resolver.Handler
	expander  *expander.Handler
	synthesis *synthesizer.Handler
	executor  *executor.Handler
	charts    *visualization.Handler
	responses *response.Handler
	completer llm.Completer
	sessions  SessionStore
	logger    logger.Logger
}

func New(
	intents *intent.Handler,
	res *resolver.Handler,
	exp *expander.Handler,
	syn *synthesizer.Handler,
	exec *executor.Handler,
	charts *visualization.Handler,
	resp *response.Handler,
	completer llm.Completer,
	sessions SessionStore,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		intents:   intents,
		resolver:  res,
		expander:  exp,
		synthesis: syn,
		executor:  exec,
		charts:    charts,
		responses: resp,
		completer: completer,
		sessions:  sessions,
		logger: log.WithFields(map[string]interface{}{
			"component": "orchestrator",
		}),
	}
}

// Handle runs one chat request end to end. It never returns an error: every
// failure mode maps onto a response status so the caller always has an
// answer to show.
func (o *Orchestrator) Handle(ctx context.Context, req models.ChatRequest) *models.ChatResponse {
	metrics.PipelineRequestsActive.Inc()
	defer metrics.PipelineRequestsActive.Dec()

	state := &models.AgentState{
		RequestID: uuid.NewString(),
		SessionID: req.SessionID,
		Query:     req.Query,
		Status:    models.StatusProcessing,
	}
	if o.sessions != nil {
		state.History = o.sessions.History(ctx, req.SessionID)
	}

	log := o.logger.WithFields(map[string]interface{}{
		"request_id": state.RequestID,
	})
	log.Info("request received", map[string]interface{}{
		"query":   req.Query,
		"session": req.SessionID,
	})

	classification := o.intents.Execute(ctx, req.Query)
	state.Intent = classification.Intent
	state.ChartType = classification.ChartType
	state.NeedsChart = classification.Intent == models.IntentVisualization

	if state.Intent == models.IntentConversation {
		o.handleConversation(ctx, state)
	} else {
		o.handleDataQuery(ctx, state, log)
	}

	o.forceChartIfUseful(ctx, state, log)
	o.recordTurn(ctx, state)

	metrics.PipelineRequestsTotal.WithLabelValues(string(state.Intent), string(state.Status)).Inc()
	log.Info("request complete", map[string]interface{}{
		"intent": string(state.Intent),
		"status": string(state.Status),
	})
	return buildResponse(state)
}

// handleConversation answers greetings from the fixed map and everything
// else conversational with one short completion. Recent session turns ride
// along in the prompt so follow-ups like "elaborate on that" have something
// to refer back to.
func (o *Orchestrator) handleConversation(ctx context.Context, state *models.AgentState) {
	if answer, ok := intent.GreetingResponse(state.Query); ok {
		state.FinalAnswer = answer
		state.Status = models.StatusSuccess
		return
	}

	answer, err := o.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: conversationSystemPrompt,
		UserPrompt:   conversationPrompt(state),
		Temperature:  0.8,
		MaxTokens:    200,
		Purpose:      "conversation",
	})
	if err != nil {
		state.FinalAnswer = conversationFallback
		state.Status = models.StatusSuccess
		return
	}
	state.FinalAnswer = answer
	state.Status = models.StatusSuccess
}

// conversationPrompt prefixes the query with the last few session turns.
func conversationPrompt(state *models.AgentState) string {
	if len(state.History) == 0 {
		return state.Query
	}

	turns := state.History
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}

	var b strings.Builder
	b.WriteString("Recent conversation:\n")
	for _, turn := range turns {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.Query, turn.Answer)
	}
	fmt.Fprintf(&b, "\nUser: %s", state.Query)
	return b.String()
}

func (o *Orchestrator) handleDataQuery(ctx context.Context, state *models.AgentState, log logger.Logger) {
	resolved := o.resolver.Execute(ctx, state.Query)
	expanded := o.expander.Execute(ctx, &expander.Input{
		ProductIDs:  entityIDs(resolved.Products),
		LocationIDs: entityIDs(resolved.Locations),
		EventIDs:    entityIDs(resolved.Events),
	})
	state.Context = assembler.Assemble(resolved, expanded)

	sql, err := o.synthesis.Execute(ctx, state.Query, state.Context, state.ChartType)
	if err != nil {
		log.Error("query synthesis failed", map[string]interface{}{
			"error": err.Error(),
		})
		state.FinalAnswer = "I could not generate a database query for that question. Please try rephrasing it."
		state.Status = models.StatusError
		return
	}

	state.QueryResult = o.executor.Execute(ctx, sql)
	if state.QueryResult.Status == models.ExecStatusFailure {
		state.FinalAnswer = "The generated query failed to execute: " + state.QueryResult.Error
		state.Status = models.StatusError
		return
	}

	state.DomainResults = activeDomains(state.Query)

	if state.NeedsChart {
		state.Visualization = o.charts.Execute(ctx, state.Query, state.ChartType, state.QueryResult)
	}

	chartReady := state.Visualization != nil && state.Visualization.Ready
	state.FinalAnswer, state.Status = o.responses.Execute(ctx, state.Query, state.QueryResult, state.DomainResults, chartReady)
}

// forceChartIfUseful is the safety net behind the intent classifier: when
// the question carries a chart keyword, or the data is plainly chartable,
// a missing visualization is generated after the fact.
func (o *Orchestrator) forceChartIfUseful(ctx context.Context, state *models.AgentState, log logger.Logger) {
	result := state.QueryResult
	if result == nil || result.RowCount == 0 {
		return
	}
	if state.Visualization != nil && state.Visualization.Ready {
		return
	}
	if !intent.HasChartKeyword(state.Query) && !o.charts.CanChart(result) {
		return
	}

	log.Info("forcing chart generation", map[string]interface{}{
		"rows": result.RowCount,
	})
	state.NeedsChart = true
	if state.ChartType == "" {
		state.ChartType = intent.DetectChartType(state.Query)
	}
	state.Visualization = o.charts.Execute(ctx, state.Query, state.ChartType, result)
}

func (o *Orchestrator) recordTurn(ctx context.Context, state *models.AgentState) {
	if o.sessions == nil || state.SessionID == "" {
		return
	}
	err := o.sessions.Append(ctx, state.SessionID, models.ConversationTurn{
		Query:     state.Query,
		Answer:    state.FinalAnswer,
		Intent:    state.Intent,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		o.logger.Warn("session history not recorded", map[string]interface{}{
			"session_id": state.SessionID,
			"error":      err.Error(),
		})
	}
}

func buildResponse(state *models.AgentState) *models.ChatResponse {
	resp := &models.ChatResponse{
		Query:         state.Query,
		Answer:        state.FinalAnswer,
		DataSource:    "conversation",
		Visualization: state.Visualization,
		Intent:        state.Intent,
		Status:        state.Status,
	}
	if state.QueryResult != nil {
		resp.DataSource = "postgres"
		resp.GeneratedQuery = state.QueryResult.GeneratedQuery
		resp.RowCount = state.QueryResult.RowCount
		sample := state.QueryResult.Rows
		if len(sample) > maxRawSampleRows {
			sample = sample[:maxRawSampleRows]
		}
		resp.RawDataSample = sample
	}
	return resp
}

// activeDomains lists the experts whose keywords fired for the question.
// Their hints already shaped the generated query; here they only label the
// narrative context.
func activeDomains(query string) map[string]string {
	out := map[string]string{}
	for _, e := range experts.All() {
		if e.CanHandle(query) {
			out[e.Name()] = ""
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func entityIDs(entities []models.ResolvedEntity) []string {
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID)
	}
	return ids
}
