package flow

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
)

func TestGating_Monotonic(t *testing.T) {
	st := NewState()

	if !st.CanAccess(StepSearch) {
		t.Error("first step must always be accessible")
	}
	if st.CanAccess(StepCohort) {
		t.Error("cohort must be gated while schema is not done")
	}

	st = MarkDone(st, StepSchema)
	if !st.CanAccess(StepCohort) {
		t.Error("cohort must unlock immediately after schema is done")
	}
	if st.CanAccess(StepReport) {
		t.Error("report must stay gated while analysis is not done")
	}
}

func TestGating_ErrorKeepsDependentsLocked(t *testing.T) {
	st := MarkDone(NewState(), StepSchema)
	st = MarkError(st, StepSchema, "extraction failed")
	if st.CanAccess(StepCohort) {
		t.Error("errored step must lock dependents until reset")
	}
}

func TestGating_DemoBypass(t *testing.T) {
	st := SetMode(NewState(), ModeDemo)
	for _, step := range Order {
		if !st.CanAccess(step) {
			t.Errorf("demo mode must open step %s", step)
		}
	}
}

func TestMarkDone_Idempotent(t *testing.T) {
	st := MarkDone(NewState(), StepSearch)
	again := MarkDone(st, StepSearch)
	if !reflect.DeepEqual(st.Steps, again.Steps) {
		t.Errorf("second MarkDone changed state: %v vs %v", st.Steps, again.Steps)
	}
	for _, step := range Order[1:] {
		if again.StatusOf(step) != StatusPending {
			t.Errorf("step %s must stay pending, got %s", step, again.StatusOf(step))
		}
	}
}

func TestReducers_DoNotMutateInput(t *testing.T) {
	st := NewState()
	_ = MarkDone(st, StepSearch)
	_ = MarkError(st, StepSchema, "boom")
	_ = SelectArticle(st, "a1")
	if st.StatusOf(StepSearch) != StatusPending {
		t.Error("MarkDone mutated its input")
	}
	if st.StatusOf(StepSchema) != StatusPending {
		t.Error("MarkError mutated its input")
	}
	if len(st.SelectedArticles) != 0 {
		t.Error("SelectArticle mutated its input")
	}
}

func TestResetStep_ReportsDownstreamArtifacts(t *testing.T) {
	cases := []struct {
		step Step
		want []ArtifactKind
	}{
		{StepSearch, []ArtifactKind{ArtifactSchema, ArtifactCohort, ArtifactAnalysis, ArtifactReport}},
		{StepSchema, []ArtifactKind{ArtifactCohort, ArtifactAnalysis, ArtifactReport}},
		{StepCohort, []ArtifactKind{ArtifactAnalysis, ArtifactReport}},
		{StepAnalysis, []ArtifactKind{ArtifactReport}},
		{StepReport, nil},
	}
	for _, tc := range cases {
		t.Run(string(tc.step), func(t *testing.T) {
			st := MarkError(NewState(), tc.step, "x")
			out, stale := ResetStep(st, tc.step)
			if out.StatusOf(tc.step) != StatusPending {
				t.Errorf("status = %s, want pending", out.StatusOf(tc.step))
			}
			if _, ok := out.StepErrors[tc.step]; ok {
				t.Error("reset must clear the step error")
			}
			if !reflect.DeepEqual(stale, tc.want) {
				t.Errorf("stale artifacts = %v, want %v", stale, tc.want)
			}
		})
	}
}

func TestResetFlow(t *testing.T) {
	st := NewState()
	st = MarkDone(st, StepSearch)
	st = MarkDone(st, StepSchema)
	st = SelectArticle(st, "pmid-1")
	st = SetMode(st, ModeDemo)

	st = ResetFlow(st)
	for _, step := range Order {
		if st.StatusOf(step) != StatusPending {
			t.Errorf("step %s = %s after reset", step, st.StatusOf(step))
		}
	}
	if len(st.SelectedArticles) != 0 || len(st.ExcludedArticles) != 0 {
		t.Error("selections must be cleared by reset")
	}
	if st.Mode != ModeNormal {
		t.Errorf("mode = %s after reset, want normal", st.Mode)
	}
}

func TestSelections_MoveBetweenSets(t *testing.T) {
	st := SelectArticle(NewState(), "pmid-1")
	st = SelectArticle(st, "pmid-1") // duplicate ignored
	if len(st.SelectedArticles) != 1 {
		t.Fatalf("selected = %v", st.SelectedArticles)
	}
	st = ExcludeArticle(st, "pmid-1")
	if len(st.SelectedArticles) != 0 || len(st.ExcludedArticles) != 1 {
		t.Errorf("exclusion did not move the article: %v / %v", st.SelectedArticles, st.ExcludedArticles)
	}
}

func TestStatusOf_RehydratedPartialMap(t *testing.T) {
	// Snapshots written by older hosts may omit steps; absent means pending.
	st := State{Steps: map[Step]Status{StepSearch: StatusDone}, Mode: ModeNormal}
	if st.StatusOf(StepCohort) != StatusPending {
		t.Error("absent step must default to pending")
	}
	if !st.CanAccess(StepSchema) {
		t.Error("schema must unlock from rehydrated done search step")
	}
}

func TestClone_PreservesEmptySelections(t *testing.T) {
	st := MarkDone(NewState(), StepSearch)
	if st.SelectedArticles == nil || st.ExcludedArticles == nil {
		t.Fatal("reduced state must keep empty selection slices non-nil")
	}

	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"selectedArticles":[]`) {
		t.Errorf("empty selections must serialize as [], got %s", raw)
	}
	if !strings.Contains(string(raw), `"excludedArticles":[]`) {
		t.Errorf("empty exclusions must serialize as [], got %s", raw)
	}
}

func TestParseStep(t *testing.T) {
	step, err := ParseStep("cohort")
	if err != nil {
		t.Fatal(err)
	}
	if step != StepCohort {
		t.Errorf("ParseStep(cohort) = %q", step)
	}

	if _, err := ParseStep("bogus"); !errors.Is(err, core.ErrUnknownStep) {
		t.Errorf("ParseStep on an unknown name must wrap ErrUnknownStep, got %v", err)
	}
}
