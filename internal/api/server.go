// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"careescapes-workers/internal/common/database"
	"careescapes-workers/internal/common/errors"
	"careescapes-workers/internal/common/logger"
	"careescapes-workers/internal/common/metrics"
	"careescapes-workers/internal/conversation/assistant"
	"careescapes-workers/internal/conversation/router"
	"careescapes-workers/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ChatService interface {
	HandleMessage(ctx context.Context, sessionID, message string) (router.Reply, error)
	History(ctx context.Context, sessionID string) (models.ConversationHistory, error)
}

type Server struct {
	chat   ChatService
	checks map[string]database.Pinger
	logger logger.Logger
}

func NewServer(chat ChatService, checks map[string]database.Pinger, log logger.Logger) *Server {
	return &Server{
		chat:   chat,
		checks: checks,
		logger: log.With(map[string]interface{}{"component": "api"}),
	}
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type legacyChatRequest struct {
	UserInput string `json:"user_input"`
	SessionID string `json:"session_id"`
}

type HistoryResponse struct {
	SessionID string                     `json:"session_id"`
	History   models.ConversationHistory `json:"history"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/chat", s.legacyChat)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", s.postChat)
		r.Get("/sessions/{sessionID}/history", s.getHistory)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	results, ok := database.CheckAll(ctx, s.checks)
	status, code := "ready", http.StatusOK
	if !ok {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": results,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) postChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
		return
	}

	reply, err := s.chat.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) legacyChat(w http.ResponseWriter, r *http.Request) {
	var req legacyChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = assistant.DefaultSessionID
	}

	reply, err := s.chat.HandleMessage(r.Context(), req.SessionID, req.UserInput)
	if err != nil {
		s.logger.Error("chat failed", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": errors.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply.Text})
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	history, err := s.chat.History(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{SessionID: sessionID, History: history})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.HasCode(err, errors.ErrCodeInputParsingFailed):
		code = http.StatusBadRequest
	case errors.HasCode(err, errors.ErrCodeResourceNotFound):
		code = http.StatusNotFound
	default:
		s.logger.Error("request failed", map[string]interface{}{"error": err})
	}
	writeJSON(w, code, map[string]string{"error": errors.UserMessage(err)})
}

// instrument counts requests by route pattern and status.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
