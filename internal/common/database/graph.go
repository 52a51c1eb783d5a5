// internal/common/database/graph.go
package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"planiq/internal/common/config"
)

// GraphClient talks to a Gremlin Server HTTP endpoint. The server is expected
// to use the untyped JSON serializer, so result data arrives as plain JSON.
type GraphClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewGraph creates a new Gremlin HTTP client
func NewGraph(cfg config.GraphConfig) *GraphClient {
	return &GraphClient{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Millisecond,
		},
	}
}

type gremlinRequest struct {
	Gremlin  string                 `json:"gremlin"`
	Bindings map[string]interface{} `json:"bindings,omitempty"`
}

type gremlinResponse struct {
	Result struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

// Eval submits a Gremlin script with bindings and returns the raw result data.
func (c *GraphClient) Eval(ctx context.Context, script string, bindings map[string]interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(gremlinRequest{Gremlin: script, Bindings: bindings})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gremlin request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build gremlin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gremlin request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gremlin response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gremlin server returned %d: %s", resp.StatusCode, string(raw))
	}

	var gr gremlinResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, fmt.Errorf("failed to decode gremlin response: %w", err)
	}
	if gr.Status.Code != 0 && gr.Status.Code != http.StatusOK {
		return nil, fmt.Errorf("gremlin evaluation failed (%d): %s", gr.Status.Code, gr.Status.Message)
	}

	return gr.Result.Data, nil
}

// EvalMaps evaluates a script whose result is a list of flat JSON objects.
func (c *GraphClient) EvalMaps(ctx context.Context, script string, bindings map[string]interface{}) ([]map[string]interface{}, error) {
	data, err := c.Eval(ctx, script, bindings)
	if err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unexpected gremlin result shape: %w", err)
	}
	return out, nil
}

// Ping verifies the Gremlin server is reachable and evaluating scripts.
func (c *GraphClient) Ping(ctx context.Context) error {
	_, err := c.Eval(ctx, "g.inject(1)", nil)
	return err
}
