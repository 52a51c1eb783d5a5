// Package errors provides standardized error handling for the query pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Collaborator availability. Recovered locally with empty results,
	// never surfaced to the end user as a hard failure.
	ErrCodeSearchUnavailable ErrorCode = "SEARCH_UNAVAILABLE"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeGraphUnavailable  ErrorCode = "GRAPH_UNAVAILABLE"
	ErrCodeGraphTimeout      ErrorCode = "GRAPH_TIMEOUT"

	// Text completion service.
	ErrCodeCompletionFailed   ErrorCode = "COMPLETION_FAILED"
	ErrCodeCompletionTimeout  ErrorCode = "COMPLETION_TIMEOUT"
	ErrCodeGenerationFailed   ErrorCode = "GENERATION_FAILED"
	ErrCodeChartConfigInvalid ErrorCode = "CHART_CONFIG_INVALID"

	// Relational store.
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeNoDataFound              ErrorCode = "NO_DATA_FOUND"

	// Request handling.
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"

	// Session store.
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// AsStandard normalizes any error into a StandardError.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternalError,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewSearchUnavailableError marks a similarity-search outage for one category.
// Callers substitute an empty candidate list.
func NewSearchUnavailableError(category, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchUnavailable,
		Message:   "Similarity search unavailable",
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"category": category},
		Timestamp: time.Now().UTC(),
	}
}

// NewGraphUnavailableError marks a graph-traversal outage. Callers substitute
// empty expansions.
func NewGraphUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGraphUnavailable,
		Message:   "Graph traversal service unavailable",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCompletionFailedError marks a failed text-completion call. The pipeline
// degrades to a deterministic fallback instead of retrying.
func NewCompletionFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCompletionFailed,
		Message:   "Text completion call failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCompletionTimeoutError marks a timed-out text-completion call.
func NewCompletionTimeoutError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCompletionTimeout,
		Message:   "Text completion call timed out",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationFailedError marks completion output that could not be used
// (unparseable structured output, empty text).
func NewGenerationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "Generated output was unusable",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewChartConfigInvalidError marks a chart configuration that failed
// structural validation.
func NewChartConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeChartConfigInvalid,
		Message:   "Chart configuration failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError surfaces a failed generated query together
// with the offending query text for diagnosis.
func NewQueryExecutionFailedError(query, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Query execution failed",
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"query": query},
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError marks a relational query that exceeded its deadline.
func NewQueryTimeoutError(query, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Query execution timed out",
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"query": query},
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionError marks an unreachable relational store.
func NewDatabaseConnectionError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError marks a malformed inbound request.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid request input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionStoreError marks a session history read/write failure. Sessions
// are best effort, so callers log and continue.
func NewSessionStoreError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStoreFailed,
		Message:   "Session store operation failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification helpers
// ==========================

// IsDegradable reports whether the error should be recovered locally with an
// empty result instead of failing the request.
func IsDegradable(err error) bool {
	switch AsStandard(err).Code {
	case ErrCodeSearchUnavailable, ErrCodeSearchTimeout,
		ErrCodeGraphUnavailable, ErrCodeGraphTimeout,
		ErrCodeCompletionFailed, ErrCodeCompletionTimeout,
		ErrCodeGenerationFailed, ErrCodeChartConfigInvalid,
		ErrCodeSessionStoreFailed:
		return true
	}
	return false
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeSearchUnavailable, ErrCodeSearchTimeout,
		ErrCodeGraphUnavailable, ErrCodeGraphTimeout:
		return "collaborator_unavailable"
	case ErrCodeCompletionFailed, ErrCodeCompletionTimeout,
		ErrCodeGenerationFailed, ErrCodeChartConfigInvalid:
		return "generation_failure"
	case ErrCodeDatabaseConnectionFailed, ErrCodeQueryExecutionFailed, ErrCodeQueryTimeout:
		return "query_execution_failure"
	case ErrCodeNoDataFound:
		return "no_data"
	case ErrCodeInvalidInput:
		return "validation"
	default:
		return "internal"
	}
}
