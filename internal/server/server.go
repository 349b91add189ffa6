// Package server implements the HTTP surface of the tax case tracker.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/taxdesk/taxcase-tracker/internal/common"
	"github.com/taxdesk/taxcase-tracker/internal/export"
	"github.com/taxdesk/taxcase-tracker/internal/pipeline"
	"github.com/taxdesk/taxcase-tracker/internal/repository"
)

// Server holds the handler dependencies.
type Server struct {
	pipeline *pipeline.Service
	notices  repository.NoticeRepository
	replies  repository.ReplyRepository
	export   *export.Service
	tempDir  string
	logger   *slog.Logger
}

func New(
	p *pipeline.Service,
	notices repository.NoticeRepository,
	replies repository.ReplyRepository,
	exporter *export.Service,
	tempDir string,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		pipeline: p,
		notices:  notices,
		replies:  replies,
		export:   exporter,
		tempDir:  tempDir,
		logger:   logger.With("component", "server"),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}

// writeError maps the internal error taxonomy to the wire format: a status
// code plus a single message field. The distinct kinds stay visible in the
// logs even where the wire collapses them.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatusCode(err)
	common.LoggerFromContext(r.Context()).Warn("http.request_failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	s.writeJSON(w, status, map[string]any{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
