// Package llm wraps the external text completion service. Calls are made at
// most once per decision point; failures degrade to documented fallbacks
// instead of retries.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"planiq/internal/common/config"
	pherrors "planiq/internal/common/errors"
	commonhttp "planiq/internal/common/http"
	"planiq/internal/common/metrics"
)

// CompletionRequest describes one completion call.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	// JSONMode asks the service for a single JSON object response.
	JSONMode bool
	// Purpose labels the call for metrics (intent, sql, chart, narrative).
	Purpose string
}

// Completer is the interface pipeline stages depend on.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *commonhttp.Client
}

func NewClient(cfg config.APIsConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GenAI.BaseURL, "/"),
		apiKey:  cfg.GenAI.APIKey,
		model:   cfg.GenAI.Model,
		http:    commonhttp.NewClient(time.Duration(cfg.GenAI.Timeout) * time.Millisecond),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete performs a single completion call. No retries: a miss is reported
// to the caller, which degrades to its own fallback.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	payload := chatRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
	}
	if req.JSONMode {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/v1/chat/completions", payload, headers)
	if err != nil {
		metrics.CompletionCallsTotal.WithLabelValues(req.Purpose, "error").Inc()
		if ctx.Err() == context.DeadlineExceeded {
			return "", pherrors.NewCompletionTimeoutError(err.Error())
		}
		return "", pherrors.NewCompletionFailedError(err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.CompletionCallsTotal.WithLabelValues(req.Purpose, "error").Inc()
		return "", pherrors.NewCompletionFailedError(err.Error())
	}

	if resp.StatusCode != 200 {
		metrics.CompletionCallsTotal.WithLabelValues(req.Purpose, "error").Inc()
		return "", pherrors.NewCompletionFailedError(fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		metrics.CompletionCallsTotal.WithLabelValues(req.Purpose, "error").Inc()
		return "", pherrors.NewCompletionFailedError(err.Error())
	}
	if parsed.Error != nil {
		metrics.CompletionCallsTotal.WithLabelValues(req.Purpose, "error").Inc()
		return "", pherrors.NewCompletionFailedError(parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		metrics.CompletionCallsTotal.WithLabelValues(req.Purpose, "empty").Inc()
		return "", pherrors.NewGenerationFailedError("completion returned no content")
	}

	metrics.CompletionCallsTotal.WithLabelValues(req.Purpose, "ok").Inc()
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
