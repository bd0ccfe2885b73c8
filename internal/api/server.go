// Package api exposes the workflow engine over JSON HTTP. This router is
// the gating boundary: step workspaces reject requests whose prerequisite
// step is not done (outside demo mode), while the underlying reducers stay
// advisory.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SNUH-NSTRI/kcd2025-sub001/app"
	apperrors "github.com/SNUH-NSTRI/kcd2025-sub001/internal/errors"
	"github.com/SNUH-NSTRI/kcd2025-sub001/internal/logging"
	"github.com/SNUH-NSTRI/kcd2025-sub001/ports"
)

// Server wires the workflow service into a chi router.
type Server struct {
	svc    *app.Service
	store  ports.SnapshotStore // nil when persistence is not configured
	logger *logging.Logger
	router *chi.Mux
}

// NewServer creates the HTTP server. store may be nil.
func NewServer(svc *app.Service, store ports.SnapshotStore, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	s := &Server{
		svc:    svc,
		store:  store,
		logger: logger,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/flow", s.handleGetFlow)
		r.Post("/flow/reset", s.handleResetFlow)
		r.Post("/flow/mode", s.handleSetMode)
		r.Post("/flow/steps/{step}/{action}", s.handleStepAction)

		r.Post("/articles", s.handleSetArticles)
		r.Post("/articles/{id}/select", s.handleSelectArticle)
		r.Post("/articles/{id}/exclude", s.handleExcludeArticle)

		r.Post("/schema", s.handleSetSchema)
		r.Get("/schema", s.handleGetSchema)

		r.Post("/cohort/generate", s.handleGenerateCohort)
		r.Get("/cohort", s.handleGetCohort)

		r.Post("/analysis/run", s.handleRunAnalysis)
		r.Post("/analysis/import", s.handleImportRun)
		r.Get("/analysis/runs", s.handleGetRuns)
		r.Get("/analysis/runs/{id}", s.handleGetRun)

		r.Get("/report", s.handleGetReport)
		r.Get("/report/download", s.handleDownloadReport)
		r.Get("/report/html", s.handleReportHTML)

		r.Post("/sessions/{id}/save", s.handleSaveSession)
		r.Post("/sessions/{id}/load", s.handleLoadSession)
	})
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{
		Code:    apperrors.GetCode(err),
		Message: err.Error(),
	})
}
