// internal/server/server_test.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planiq/internal/common/logger"
	"planiq/internal/common/observability"
	"planiq/internal/models"
)

type fakeChat struct {
	lastReq models.ChatRequest
	resp    *models.ChatResponse
}

func (f *fakeChat) Handle(ctx context.Context, req models.ChatRequest) *models.ChatResponse {
	f.lastReq = req
	return f.resp
}

func newTestServer(t *testing.T, chat ChatHandler, pingers map[string]Pinger) *httptest.Server {
	// A fresh registry per test keeps repeated exporter registration off the
	// default registry, which /metrics serves.
	obs := observability.NewWithRegisterer("planiq-test", prometheus.NewRegistry())
	s := New(chat, pingers, obs, logger.NewTestLogger(t))
	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)
	return server
}

func TestChat_ServesResponse(t *testing.T) {
	chat := &fakeChat{resp: &models.ChatResponse{
		Query:      "total revenue last week",
		Answer:     "## Summary\nRevenue was up.",
		DataSource: "postgres",
		RowCount:   3,
		Intent:     models.IntentDataQuery,
		Status:     models.StatusSuccess,
	}}
	server := newTestServer(t, chat, nil)

	body := `{"query": "  total revenue last week  ", "session_id": "sess-9"}`
	resp, err := http.Post(server.URL+"/api/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "total revenue last week", chat.lastReq.Query, "query is trimmed before the pipeline")
	assert.Equal(t, "sess-9", chat.lastReq.SessionID)

	var decoded models.ChatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, "## Summary\nRevenue was up.", decoded.Answer)
	assert.Equal(t, models.StatusSuccess, decoded.Status)
}

func TestChat_RejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"query": `},
		{name: "empty query", body: `{"query": "   "}`},
		{name: "oversized query", body: fmt.Sprintf(`{"query": %q}`, strings.Repeat("a", maxQueryLength+1))},
	}

	server := newTestServer(t, &fakeChat{resp: &models.ChatResponse{}}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/api/chat", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var decoded map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
			assert.Equal(t, "INVALID_INPUT", decoded["code"])
		})
	}
}

func TestChat_GetNotAllowed(t *testing.T) {
	server := newTestServer(t, &fakeChat{resp: &models.ChatResponse{}}, nil)

	resp, err := http.Get(server.URL + "/api/chat")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestReady_ReportsPerDependency(t *testing.T) {
	pingers := map[string]Pinger{
		"postgres": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return fmt.Errorf("connection refused") },
	}
	server := newTestServer(t, &fakeChat{resp: &models.ChatResponse{}}, pingers)

	resp, err := http.Get(server.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var decoded struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, "not_ready", decoded.Status)
	assert.Equal(t, "ok", decoded.Checks["postgres"])
	assert.Contains(t, decoded.Checks["redis"], "connection refused")
}

func TestHealth_AlwaysHealthy(t *testing.T) {
	server := newTestServer(t, &fakeChat{resp: &models.ChatResponse{}}, nil)

	for _, path := range []string{"/health", "/healthz"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestPprofExposedOnServerMux(t *testing.T) {
	server := newTestServer(t, &fakeChat{resp: &models.ChatResponse{}}, nil)

	resp, err := http.Get(server.URL + "/debug/pprof/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpointExposed(t *testing.T) {
	server := newTestServer(t, &fakeChat{resp: &models.ChatResponse{}}, nil)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
