package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SNUH-NSTRI/kcd2025-sub001/app"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/flow"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/report"
)

func newTestServer(t *testing.T) (*Server, *app.Service) {
	t.Helper()
	svc := app.NewService(nil)
	return NewServer(svc, nil, nil), svc
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestGetFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/flow", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var st flow.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, flow.StepSearch, st.Current)
	assert.Equal(t, flow.ModeNormal, st.Mode)
}

func TestCohortGenerate_GatedUntilSchemaDone(t *testing.T) {
	srv, svc := newTestServer(t)

	payload := map[string]any{"size": 50, "seed": "seed-A", "datasetId": "mimic-iv"}
	rec := doJSON(t, srv, http.MethodPost, "/api/cohort/generate", payload)
	require.Equal(t, http.StatusConflict, rec.Code)

	var errResp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "STEP_GATED", errResp.Code)

	svc.MarkStepDone(flow.StepSchema)
	rec = doJSON(t, srv, http.MethodPost, "/api/cohort/generate", payload)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestCohortGenerate_DemoModeBypassesGating(t *testing.T) {
	srv, svc := newTestServer(t)
	svc.SetMode(flow.ModeDemo)

	payload := map[string]any{"size": 10, "seed": "x", "datasetId": "mimic-iv"}
	rec := doJSON(t, srv, http.MethodPost, "/api/cohort/generate", payload)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestStepActions(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/flow/steps/search/done", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var st flow.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, flow.StatusDone, st.StatusOf(flow.StepSearch))

	rec = doJSON(t, srv, http.MethodPost, "/api/flow/steps/not-a-step/done", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/flow/steps/cohort/start", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "start on a gated step must 409")
}

func TestResetStepReportsDiscards(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/flow/steps/schema/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Discard []flow.ArtifactKind `json:"discardedArtifacts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []flow.ArtifactKind{flow.ArtifactCohort, flow.ArtifactAnalysis, flow.ArtifactReport}, resp.Discard)
}

func TestRunAnalysis_UnknownTemplateFallsBack(t *testing.T) {
	srv, svc := newTestServer(t)
	svc.SetMode(flow.ModeDemo)
	_, err := svc.GenerateCohort(nil, 100, "seed-A", "mimic-iv")
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodPost, "/api/analysis/run", map[string]any{"templateId": "not-a-template", "runId": "run-2"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var result struct {
		UsedFallback bool `json:"usedFallback"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.UsedFallback)
}

func TestReportEndpoints(t *testing.T) {
	srv, svc := newTestServer(t)
	require.NoError(t, svc.SeedDemo("mimic-iv", 80))

	rec := doJSON(t, srv, http.MethodGet, "/api/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data report.Data
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.NotEmpty(t, data.Sections.Results)
	assert.NotEmpty(t, data.References)

	rec = doJSON(t, srv, http.MethodGet, "/api/report/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report.json")

	rec = doJSON(t, srv, http.MethodGet, "/api/report/html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "<h1") || strings.Contains(rec.Body.String(), "<h2"))
}

func TestSessionEndpoints_WithoutStore(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/sessions/s1/save", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetRunByID(t *testing.T) {
	srv, svc := newTestServer(t)
	svc.MarkStepDone(flow.StepSearch)
	svc.MarkStepDone(flow.StepSchema)
	_, err := svc.GenerateCohort(nil, 50, "seed-A", "mimic-iv")
	require.NoError(t, err)
	svc.MarkStepDone(flow.StepCohort)

	rec := doJSON(t, srv, http.MethodPost, "/api/analysis/run", map[string]string{
		"templateId": "hazard-ratio", "runId": "run-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/analysis/runs/run-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"runId":"run-1"`)

	rec = doJSON(t, srv, http.MethodGet, "/api/analysis/runs/run-2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetFlow_EmptySelectionsSerializeAsArrays(t *testing.T) {
	srv, svc := newTestServer(t)
	svc.MarkStepDone(flow.StepSearch)

	rec := doJSON(t, srv, http.MethodGet, "/api/flow", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"selectedArticles":[]`)
	assert.NotContains(t, rec.Body.String(), `"selectedArticles":null`)
}
