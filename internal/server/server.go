// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"planiq/internal/common/errors"
	"planiq/internal/common/logger"
	"planiq/internal/common/observability"
	"planiq/internal/models"
)

const maxQueryLength = 2000

// ChatHandler answers one chat request end to end.
type ChatHandler interface {
	Handle(ctx context.Context, req models.ChatRequest) *models.ChatResponse
}

// Pinger is one backing dependency checked by the readiness probe.
type Pinger func(ctx context.Context) error

// Server owns the HTTP surface: chat API, health probes, and metrics.
type Server struct {
	chat    ChatHandler
	errors  *errors.ErrorHandler
	pingers map[string]Pinger
	obs     *observability.Observability
	logger  logger.Logger
	mux     *http.ServeMux
}

func New(chat ChatHandler, pingers map[string]Pinger, obs *observability.Observability, log logger.Logger) *Server {
	s := &Server{
		chat:    chat,
		errors:  errors.NewErrorHandler(log),
		pingers: pingers,
		obs:     obs,
		logger:  log,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("/api/chat", s.handleChat)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/ready", s.handleReady)
	s.mux.Handle("/metrics", promhttp.Handler())

	// The server runs its own mux, so pprof is wired explicitly instead of
	// relying on the DefaultServeMux side-effect import.
	s.mux.HandleFunc("/debug/pprof/", pprof.Index)
	s.mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	s.mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	s.mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	s.mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errors.WriteError(w, "", errors.NewInvalidInputError("request body must be valid JSON"))
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		s.errors.WriteError(w, "", errors.NewInvalidInputError("query must not be empty"))
		return
	}
	if len(req.Query) > maxQueryLength {
		s.errors.WriteError(w, "", errors.NewInvalidInputError("query exceeds maximum length"))
		return
	}

	start := time.Now()
	resp := s.chat.Handle(r.Context(), req)

	s.obs.RecordRequest(r.Context(), string(resp.Intent), string(resp.Status))
	s.obs.RecordRequestDuration(r.Context(), time.Since(start), string(resp.Status))

	s.logger.Info("chat request served", map[string]interface{}{
		"intent":      string(resp.Intent),
		"status":      string(resp.Status),
		"row_count":   resp.RowCount,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleReady pings every backing store. Any failure flips the probe to 503
// with the per-dependency verdicts so operators can see which one is down.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.pingers))
	ready := true
	for name, ping := range s.pingers {
		if err := ping(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status := "ready"
	code := http.StatusOK
	if !ready {
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}
