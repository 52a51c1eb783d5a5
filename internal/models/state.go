// internal/models/state.go
package models

// Intent is the classified request kind. Exactly one per request.
type Intent string

const (
	IntentConversation  Intent = "conversation"
	IntentDataQuery     Intent = "data_query"
	IntentVisualization Intent = "visualization"
	IntentAnalysis      Intent = "analysis"
)

// Valid reports whether the label is one of the four known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentConversation, IntentDataQuery, IntentVisualization, IntentAnalysis:
		return true
	}
	return false
}

// Status is the terminal outcome of one pipeline run.
type Status string

const (
	StatusProcessing     Status = "processing"
	StatusSuccess        Status = "success"
	StatusSuccessNoData  Status = "success_no_data"
	StatusError          Status = "error"
	StatusPartialSuccess Status = "partial_success"
)

// AgentState is the mutable record threaded through the pipeline stages.
// Created at request start, discarded at request end.
type AgentState struct {
	RequestID     string
	SessionID     string
	Query         string
	History       []ConversationTurn
	Context       *ResolvedContext
	Intent        Intent
	NeedsChart    bool
	ChartType     string
	QueryResult   *QueryExecutionResult
	DomainResults map[string]string
	FinalAnswer   string
	Visualization *Visualization
	Status        Status
}
