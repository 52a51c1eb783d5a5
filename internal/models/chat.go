// internal/models/chat.go
package models

// ChatRequest is the inbound API payload.
type ChatRequest struct {
	Query      string `json:"query"`
	ProductID  string `json:"product_id,omitempty"`
	LocationID string `json:"location_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

// ChatResponse is the final response object assembled by the orchestrator.
// RawDataSample holds at most a bounded sample of the result rows; the full
// set never crosses the API boundary.
type ChatResponse struct {
	Query          string         `json:"query"`
	Answer         string         `json:"answer"`
	GeneratedQuery string         `json:"generated_query,omitempty"`
	DataSource     string         `json:"data_source"`
	RowCount       int            `json:"row_count"`
	RawDataSample  []RowRecord    `json:"raw_data_sample,omitempty"`
	Visualization  *Visualization `json:"visualization,omitempty"`
	Intent         Intent         `json:"intent,omitempty"`
	Status         Status         `json:"status"`
}
