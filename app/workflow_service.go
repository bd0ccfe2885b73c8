// Package app hosts the workflow session: it owns the single mutable
// FlowState reference, the current artifacts, and the run history, applying
// the pure domain reducers and synthesizers under a lock so concurrent
// readers never observe torn state.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/analysis"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/cohort"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/flow"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/report"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/schema"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/snapshot"
	apperrors "github.com/SNUH-NSTRI/kcd2025-sub001/internal/errors"
	"github.com/SNUH-NSTRI/kcd2025-sub001/internal/logging"
)

// RunCallbacks carries the cosmetic progress hooks of an analysis run.
// Progress values are strictly increasing within a run; OnComplete fires at
// most once, after the final progress value. Cancellation suppresses both.
type RunCallbacks struct {
	OnProgress func(fraction float64)
	OnComplete func(result analysis.RunResult)
}

// progressSteps are the fractions emitted while a run is notionally in
// flight. The computation itself is synchronous and pure.
var progressSteps = []float64{0.15, 0.4, 0.65, 0.85, 1.0}

// Service is one workflow session.
type Service struct {
	mu       sync.RWMutex
	flow     flow.State
	schema   *schema.TrialSchema
	articles []schema.Article
	cohort   *cohort.Result
	runs     []analysis.RunResult
	report   *report.Data
	reportAt *time.Time

	cohortSyn   *cohort.Synthesizer
	analysisSyn *analysis.Synthesizer
	assembler   *report.Assembler
	logger      *logging.Logger
	now         func() time.Time
}

// NewService creates a fresh session with every step pending.
func NewService(logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Service{
		flow:        flow.NewState(),
		cohortSyn:   cohort.NewSynthesizer(),
		analysisSyn: analysis.NewSynthesizer(),
		assembler:   report.NewAssembler(),
		logger:      logger,
		now:         time.Now,
	}
}

// Flow returns a copy of the current workflow state.
func (s *Service) Flow() flow.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flow.Clone()
}

// CanAccess reports whether the step's workspace may run.
func (s *Service) CanAccess(step flow.Step) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flow.CanAccess(step)
}

// MarkStepDone completes a step.
func (s *Service) MarkStepDone(step flow.Step) flow.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow = flow.MarkDone(s.flow, step)
	return s.flow.Clone()
}

// MarkStepError records a step failure. Dependents stay locked until the
// step is reset.
func (s *Service) MarkStepError(step flow.Step, message string) flow.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow = flow.MarkError(s.flow, step, message)
	return s.flow.Clone()
}

// SetStepInProgress marks a step as running.
func (s *Service) SetStepInProgress(step flow.Step) flow.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow = flow.SetInProgress(s.flow, step)
	return s.flow.Clone()
}

// ResetStep returns a step to pending and honors the reducer's invalidation
// signal by discarding the reported downstream artifacts.
func (s *Service) ResetStep(step flow.Step) (flow.State, []flow.ArtifactKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, stale := flow.ResetStep(s.flow, step)
	s.flow = next
	for _, kind := range stale {
		s.discardLocked(kind)
	}
	if len(stale) > 0 {
		s.logger.Info("reset of step %s discarded downstream artifacts %v", step, stale)
	}
	return s.flow.Clone(), stale
}

// discardLocked drops one artifact kind. Caller holds the write lock.
func (s *Service) discardLocked(kind flow.ArtifactKind) {
	switch kind {
	case flow.ArtifactSchema:
		s.schema = nil
	case flow.ArtifactCohort:
		s.cohort = nil
	case flow.ArtifactAnalysis:
		s.runs = nil
	case flow.ArtifactReport:
		s.report = nil
		s.reportAt = nil
	}
}

// ResetFlow returns the whole session to its initial state, dropping every
// artifact.
func (s *Service) ResetFlow() flow.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow = flow.ResetFlow(s.flow)
	s.schema = nil
	s.articles = nil
	s.cohort = nil
	s.runs = nil
	s.report = nil
	s.reportAt = nil
	return s.flow.Clone()
}

// SetMode switches the session mode.
func (s *Service) SetMode(mode flow.Mode) flow.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow = flow.SetMode(s.flow, mode)
	return s.flow.Clone()
}

// SelectArticle adds an article to the selection set.
func (s *Service) SelectArticle(id string) flow.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow = flow.SelectArticle(s.flow, id)
	return s.flow.Clone()
}

// ExcludeArticle moves an article to the exclusion set.
func (s *Service) ExcludeArticle(id string) flow.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow = flow.ExcludeArticle(s.flow, id)
	return s.flow.Clone()
}

// SetArticles replaces the literature-search results.
func (s *Service) SetArticles(articles []schema.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles = append([]schema.Article(nil), articles...)
}

// SetSchema replaces the extracted trial schema.
func (s *Service) SetSchema(sch schema.TrialSchema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = &sch
}

// Schema returns the current trial schema, if any.
func (s *Service) Schema() *schema.TrialSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.schema == nil {
		return nil
	}
	sch := *s.schema
	return &sch
}

// GenerateCohort fabricates a new cohort from the current schema variables,
// replacing any previous result wholesale.
func (s *Service) GenerateCohort(mapping map[string]string, size int, seed, datasetID string) (cohort.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var vars []schema.Variable
	if s.schema != nil {
		vars = s.schema.Variables
	}
	result, err := s.cohortSyn.Generate(vars, mapping, size, seed, datasetID)
	if err != nil {
		return cohort.Result{}, err
	}
	s.cohort = &result
	s.logger.Info("generated cohort of %d patients from %s (seed %q)", result.Summary.Size, datasetID, seed)
	return result, nil
}

// Cohort returns the active cohort result, if any.
func (s *Service) Cohort() *cohort.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cohort == nil {
		return nil
	}
	c := *s.cohort
	return &c
}

// RunAnalysis executes one analysis run. The synthesis itself is pure and
// synchronous; callbacks only report notional progress. When ctx is
// cancelled no further callbacks fire and the run is not recorded.
func (s *Service) RunAnalysis(ctx context.Context, template analysis.TemplateMeta, runID string, cb RunCallbacks) (*analysis.RunResult, error) {
	s.mu.RLock()
	c := s.cohort
	s.mu.RUnlock()
	if c == nil {
		return nil, apperrors.InvalidInput("analysis requires a generated cohort")
	}
	if runID == "" {
		runID = core.NewID().String()
	}

	for _, fraction := range progressSteps {
		if err := ctx.Err(); err != nil {
			s.logger.Debug("analysis run %s cancelled at %.0f%%", runID, fraction*100)
			return nil, err
		}
		if cb.OnProgress != nil {
			cb.OnProgress(fraction)
		}
	}

	result := s.analysisSyn.Run(template, *c, runID, s.now())
	if err := ctx.Err(); err != nil {
		// Cancellation between the last progress tick and completion
		// suppresses the completion callback; the pure computation is
		// simply dropped.
		return nil, err
	}

	s.mu.Lock()
	s.runs = append(s.runs, result)
	s.mu.Unlock()

	if result.UsedFallback {
		s.logger.Warn("unknown analysis template %q fell back to difference-in-means", template.ID)
	}
	if cb.OnComplete != nil {
		cb.OnComplete(result)
	}
	return &result, nil
}

// RunAnalysisBatch executes several templates concurrently. Each run builds
// its own generator, so results are deterministic per run id regardless of
// scheduling.
func (s *Service) RunAnalysisBatch(ctx context.Context, templates []analysis.TemplateMeta) ([]analysis.RunResult, error) {
	results := make([]analysis.RunResult, len(templates))
	g, ctx := errgroup.WithContext(ctx)
	for i, template := range templates {
		i, template := i, template
		g.Go(func() error {
			r, err := s.RunAnalysis(ctx, template, "", RunCallbacks{})
			if err != nil {
				return fmt.Errorf("template %s: %w", template.ID, err)
			}
			results[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ImportRun appends an externally produced run result (e.g. from a backend
// analysis API) to the history. The RunResult shape is the contract both
// paths honor.
func (s *Service) ImportRun(result analysis.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, result)
}

// Runs returns a copy of the append-only run history.
func (s *Service) Runs() []analysis.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]analysis.RunResult(nil), s.runs...)
}

// Run returns one recorded analysis run, or core.ErrRunNotFound.
func (s *Service) Run(id core.RunID) (*analysis.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.runs {
		if s.runs[i].RunID == id.String() {
			r := s.runs[i]
			return &r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
}

// Report returns the current report, regenerating it lazily whenever any
// upstream artifact is newer than the last build.
func (s *Service) Report() report.Data {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ShouldRegenerate(s.reportAt, s.cohort, s.runs, s.schema) {
		selected := s.selectedArticlesLocked()
		data := s.assembler.Build(selected, s.cohort, s.runs, s.schema)
		now := s.now()
		s.report = &data
		s.reportAt = &now
		s.logger.Info("report regenerated at %s", now.Format(time.RFC3339))
	}
	return *s.report
}

// selectedArticlesLocked resolves the selection set against the stored
// search results. Caller holds at least the read lock.
func (s *Service) selectedArticlesLocked() []schema.Article {
	var out []schema.Article
	for _, a := range s.articles {
		for _, id := range s.flow.SelectedArticles {
			if a.ID == id {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// Snapshot captures the whole session for persistence.
func (s *Service) Snapshot() snapshot.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot.Snapshot{
		Flow:        s.flow.Clone(),
		Schema:      s.schema,
		Articles:    append([]schema.Article(nil), s.articles...),
		Cohort:      s.cohort,
		Runs:        append([]analysis.RunResult(nil), s.runs...),
		Report:      s.report,
		ReportAt:    s.reportAt,
		PersistedAt: s.now(),
	}
}

// Rehydrate restores a persisted session. Fields absent from the snapshot
// stay untouched, so artifacts may arrive in any creation order across
// multiple snapshots.
func (s *Service) Rehydrate(snap snapshot.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Flow.Steps != nil {
		s.flow = snap.Flow.Clone()
	}
	if snap.Schema != nil {
		s.schema = snap.Schema
	}
	if snap.Articles != nil {
		s.articles = append([]schema.Article(nil), snap.Articles...)
	}
	if snap.Cohort != nil {
		s.cohort = snap.Cohort
	}
	if snap.Runs != nil {
		s.runs = append([]analysis.RunResult(nil), snap.Runs...)
	}
	if snap.Report != nil {
		s.report = snap.Report
		s.reportAt = snap.ReportAt
	}
}
