// internal/models/result.go
package models

// ExecutionStatus classifies one relational query outcome.
type ExecutionStatus string

const (
	ExecStatusSuccess ExecutionStatus = "success"
	ExecStatusNoData  ExecutionStatus = "success_no_data"
	ExecStatusFailure ExecutionStatus = "failure"
)

// RowRecord maps column names to JSON-safe primitives. Database-native
// temporal and decimal types are normalized before leaving the executor.
type RowRecord map[string]interface{}

// QueryExecutionResult is the executor's verdict on one generated query.
type QueryExecutionResult struct {
	GeneratedQuery string `json:"generated_query"`
	// Columns preserves the select-list order the map rows cannot.
	Columns  []string        `json:"columns,omitempty"`
	Rows     []RowRecord     `json:"rows"`
	RowCount int             `json:"row_count"`
	Status   ExecutionStatus `json:"status"`
	// Error carries the plain-language failure explanation when Status is
	// failure. The generated query stays attached for diagnosis.
	Error string `json:"error,omitempty"`
}
