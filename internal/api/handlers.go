package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SNUH-NSTRI/kcd2025-sub001/app"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/analysis"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/flow"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/report"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/schema"
	apperrors "github.com/SNUH-NSTRI/kcd2025-sub001/internal/errors"
)

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Flow())
}

func (s *Server) handleResetFlow(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.ResetFlow())
}

type setModeRequest struct {
	Mode flow.Mode `json:"mode"`
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req setModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("invalid mode payload"))
		return
	}
	if req.Mode != flow.ModeNormal && req.Mode != flow.ModeDemo {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput(fmt.Sprintf("unknown mode %q", req.Mode)))
		return
	}
	s.writeJSON(w, http.StatusOK, s.svc.SetMode(req.Mode))
}

type stepErrorRequest struct {
	Message string `json:"message"`
}

type resetStepResponse struct {
	Flow    flow.State          `json:"flow"`
	Discard []flow.ArtifactKind `json:"discardedArtifacts"`
}

func (s *Server) handleStepAction(w http.ResponseWriter, r *http.Request) {
	step, err := flow.ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput(err.Error()))
		return
	}

	switch chi.URLParam(r, "action") {
	case "done":
		s.writeJSON(w, http.StatusOK, s.svc.MarkStepDone(step))
	case "start":
		if !s.svc.CanAccess(step) {
			s.writeError(w, http.StatusConflict, apperrors.StepGated(string(step)))
			return
		}
		s.writeJSON(w, http.StatusOK, s.svc.SetStepInProgress(step))
	case "error":
		var req stepErrorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("invalid error payload"))
			return
		}
		s.writeJSON(w, http.StatusOK, s.svc.MarkStepError(step, req.Message))
	case "reset":
		st, stale := s.svc.ResetStep(step)
		s.writeJSON(w, http.StatusOK, resetStepResponse{Flow: st, Discard: stale})
	default:
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("unknown step action"))
	}
}

func (s *Server) handleSetArticles(w http.ResponseWriter, r *http.Request) {
	var articles []schema.Article
	if err := json.NewDecoder(r.Body).Decode(&articles); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("invalid article list"))
		return
	}
	s.svc.SetArticles(articles)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectArticle(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.SelectArticle(chi.URLParam(r, "id")))
}

func (s *Server) handleExcludeArticle(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.ExcludeArticle(chi.URLParam(r, "id")))
}

func (s *Server) handleSetSchema(w http.ResponseWriter, r *http.Request) {
	if !s.svc.CanAccess(flow.StepSchema) {
		s.writeError(w, http.StatusConflict, apperrors.StepGated(string(flow.StepSchema)))
		return
	}
	var sch schema.TrialSchema
	if err := json.NewDecoder(r.Body).Decode(&sch); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("invalid schema payload"))
		return
	}
	s.svc.SetSchema(sch)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	sch := s.svc.Schema()
	if sch == nil {
		s.writeError(w, http.StatusNotFound, apperrors.NotFound("schema"))
		return
	}
	s.writeJSON(w, http.StatusOK, sch)
}

type generateCohortRequest struct {
	Mapping   map[string]string `json:"mapping"`
	Size      int               `json:"size"`
	Seed      string            `json:"seed"`
	DatasetID string            `json:"datasetId"`
}

func (s *Server) handleGenerateCohort(w http.ResponseWriter, r *http.Request) {
	if !s.svc.CanAccess(flow.StepCohort) {
		s.writeError(w, http.StatusConflict, apperrors.StepGated(string(flow.StepCohort)))
		return
	}
	var req generateCohortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("invalid cohort payload"))
		return
	}
	if req.Seed == "" {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("seed is required"))
		return
	}
	result, err := s.svc.GenerateCohort(req.Mapping, req.Size, req.Seed, req.DatasetID)
	if err != nil {
		if core.IsInputError(err) {
			s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput(err.Error()))
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetCohort(w http.ResponseWriter, r *http.Request) {
	c := s.svc.Cohort()
	if c == nil {
		s.writeError(w, http.StatusNotFound, apperrors.NotFound("cohort"))
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

type runAnalysisRequest struct {
	TemplateID   string `json:"templateId"`
	TemplateName string `json:"templateName,omitempty"`
	RunID        string `json:"runId,omitempty"`
}

func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	if !s.svc.CanAccess(flow.StepAnalysis) {
		s.writeError(w, http.StatusConflict, apperrors.StepGated(string(flow.StepAnalysis)))
		return
	}
	var req runAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("invalid run payload"))
		return
	}
	template := analysis.TemplateMeta{ID: req.TemplateID, Name: req.TemplateName}
	result, err := s.svc.RunAnalysis(r.Context(), template, req.RunID, app.RunCallbacks{})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleImportRun(w http.ResponseWriter, r *http.Request) {
	var result analysis.RunResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("invalid run result payload"))
		return
	}
	s.svc.ImportRun(result)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Runs())
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput(err.Error()))
		return
	}
	result, err := s.svc.Run(id)
	if err != nil {
		if core.IsNotFoundError(err) {
			s.writeError(w, http.StatusNotFound, apperrors.NotFound("run"))
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Report())
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="report.json"`)
	s.writeJSON(w, http.StatusOK, s.svc.Report())
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report.ToHTML(s.svc.Report())); err != nil {
		s.logger.Error("write report html: %v", err)
	}
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, apperrors.New(apperrors.CodeStoreError, "persistence is not configured"))
		return
	}
	id, err := core.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput(err.Error()))
		return
	}
	if err := s.store.Save(r.Context(), id, s.svc.Snapshot()); err != nil {
		s.writeError(w, http.StatusInternalServerError, apperrors.StoreError("save session", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoadSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, apperrors.New(apperrors.CodeStoreError, "persistence is not configured"))
		return
	}
	id, err := core.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput(err.Error()))
		return
	}
	snap, err := s.store.Load(r.Context(), id)
	if err != nil {
		if core.IsNotFoundError(err) {
			s.writeError(w, http.StatusNotFound, apperrors.NotFound("session"))
			return
		}
		s.writeError(w, http.StatusInternalServerError, apperrors.StoreError("load session", err))
		return
	}
	s.svc.Rehydrate(*snap)
	s.writeJSON(w, http.StatusOK, s.svc.Flow())
}
