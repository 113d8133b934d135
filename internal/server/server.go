package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"regintel/internal/config"
	"regintel/internal/usecase"
)

// TriggerRequest is the JSON body accepted by the poller endpoints.
type TriggerRequest struct {
	StateCode  string `json:"stateCode"`
	FullScan   bool   `json:"fullScan"`
	SessionID  string `json:"sessionId"`
	SourceName string `json:"sourceName"`
}

// Server exposes the poller pipelines over HTTP for the UI and cron
// invokers.
type Server struct {
	pipelines map[string]*usecase.Pipeline
	dbRole    string
	cors      *CORS
	logger    *slog.Logger
}

// New indexes the pipelines by domain name.
func New(pipelines []*usecase.Pipeline, cfg config.Config, log *slog.Logger) *Server {
	byDomain := make(map[string]*usecase.Pipeline, len(pipelines))
	for _, p := range pipelines {
		byDomain[p.Domain()] = p
	}

	return &Server{
		pipelines: byDomain,
		dbRole:    cfg.Database.Role,
		cors:      NewCORS(cfg.Server.AllowedOrigins, cfg.Server.DefaultOrigin),
		logger:    log,
	}
}

// Router assembles the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.cors.Middleware)
	r.Use(s.recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/pollers/{domain}", s.handleTrigger)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	domains := make([]string, 0, len(s.pipelines))
	for name := range s.pipelines {
		domains = append(domains, name)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "domains": domains})
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	// Writes go through row-level security; anything below the service
	// role would be silently rejected, so refuse up front.
	if s.dbRole != config.ServiceRole {
		writeError(w, http.StatusForbidden, "service-role database credential required")
		return
	}

	domain := chi.URLParam(r, "domain")
	pipeline, ok := s.pipelines[domain]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown poller domain: "+domain)
		return
	}

	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	summary, err := pipeline.Run(r.Context(), usecase.RunRequest{
		StateCode:  req.StateCode,
		FullScan:   req.FullScan,
		SessionID:  req.SessionID,
		SourceName: req.SourceName,
	})
	if err != nil {
		s.logger.Error("poller run failed", "domain", domain, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// recoverer turns panics into a 500 JSON body; it is the only path that
// yields a 500 besides a run that could not start.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
