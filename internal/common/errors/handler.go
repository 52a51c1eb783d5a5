package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorHandler writes normalized error responses at the HTTP boundary.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// errorResponse is the wire shape for failed requests. Raw stack traces are
// never included; the details field carries a plain-language explanation.
type errorResponse struct {
	Error     string                 `json:"error"`
	Code      string                 `json:"code"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// WriteError normalizes err, logs it, and writes a JSON error response with
// a status code derived from the error category.
func (h *ErrorHandler) WriteError(w http.ResponseWriter, requestID string, err error) {
	stdErr := AsStandard(err)

	h.logger.Error("Request failed", map[string]interface{}{
		"requestId":     requestID,
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(stdErr.Code))
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:     stdErr.Message,
		Code:      string(stdErr.Code),
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Metadata:  stdErr.Metadata,
	})
}

// HTTPStatus maps an error code to an HTTP status code.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeQueryTimeout, ErrCodeCompletionTimeout, ErrCodeSearchTimeout, ErrCodeGraphTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeDatabaseConnectionFailed, ErrCodeSearchUnavailable, ErrCodeGraphUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
