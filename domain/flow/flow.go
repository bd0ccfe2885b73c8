// Package flow models the step-gated trial-emulation pipeline. State is an
// immutable value; every transition is a pure reducer returning a new State.
// The host owns the single mutable reference (see app.Service).
package flow

import (
	"fmt"

	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
)

// Step identifies one stage of the pipeline. Steps are totally ordered:
// search < schema < cohort < analysis < report.
type Step string

const (
	StepSearch   Step = "search"
	StepSchema   Step = "schema"
	StepCohort   Step = "cohort"
	StepAnalysis Step = "analysis"
	StepReport   Step = "report"
)

// Order lists every step in pipeline order.
var Order = []Step{StepSearch, StepSchema, StepCohort, StepAnalysis, StepReport}

// Index returns the position of the step in the pipeline, or -1 for an
// unknown step.
func (s Step) Index() int {
	for i, step := range Order {
		if step == s {
			return i
		}
	}
	return -1
}

// IsValid reports whether the step is one of the known pipeline steps.
func (s Step) IsValid() bool { return s.Index() >= 0 }

// ParseStep validates a wire-format step name.
func ParseStep(s string) (Step, error) {
	step := Step(s)
	if !step.IsValid() {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownStep, s)
	}
	return step, nil
}

// Prev returns the immediately preceding step, if any.
func (s Step) Prev() (Step, bool) {
	i := s.Index()
	if i <= 0 {
		return "", false
	}
	return Order[i-1], true
}

// Status is the lifecycle state of a single step.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Mode selects between a normal gated session and a demo session that is
// pre-seeded for every stage simultaneously.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeDemo   Mode = "demo"
)

// ArtifactKind names a derived artifact owned by a pipeline step. ResetStep
// reports which kinds sit downstream of the reset step so the host can
// decide whether to discard them.
type ArtifactKind string

const (
	ArtifactSchema   ArtifactKind = "schema"
	ArtifactCohort   ArtifactKind = "cohort"
	ArtifactAnalysis ArtifactKind = "analysis"
	ArtifactReport   ArtifactKind = "report"
)

// artifactOwner maps each artifact kind to the step that produces it.
var artifactOwner = map[ArtifactKind]Step{
	ArtifactSchema:   StepSchema,
	ArtifactCohort:   StepCohort,
	ArtifactAnalysis: StepAnalysis,
	ArtifactReport:   StepReport,
}

// State is the full workflow position: current step, per-step status,
// article selections and the session mode. Values are never mutated in
// place; reducers copy.
type State struct {
	Current          Step            `json:"current"`
	Steps            map[Step]Status `json:"steps"`
	StepErrors       map[Step]string `json:"stepErrors,omitempty"`
	SelectedArticles []string        `json:"selectedArticles"`
	ExcludedArticles []string        `json:"excludedArticles"`
	Mode             Mode            `json:"mode"`
}

// NewState returns the initial state: every step pending, normal mode.
func NewState() State {
	steps := make(map[Step]Status, len(Order))
	for _, s := range Order {
		steps[s] = StatusPending
	}
	return State{
		Current:          StepSearch,
		Steps:            steps,
		StepErrors:       map[Step]string{},
		SelectedArticles: []string{},
		ExcludedArticles: []string{},
		Mode:             ModeNormal,
	}
}

// Clone copies the state deeply enough that reducers never alias maps or
// slices with their input.
func (st State) Clone() State {
	out := st
	out.Steps = make(map[Step]Status, len(st.Steps))
	for k, v := range st.Steps {
		out.Steps[k] = v
	}
	out.StepErrors = make(map[Step]string, len(st.StepErrors))
	for k, v := range st.StepErrors {
		out.StepErrors[k] = v
	}
	out.SelectedArticles = copyStrings(st.SelectedArticles)
	out.ExcludedArticles = copyStrings(st.ExcludedArticles)
	return out
}

// copyStrings preserves the nil/empty distinction so cloned states keep
// serializing empty selections as [] rather than null.
func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// StatusOf returns the status of a step, defaulting to pending for steps
// absent from a rehydrated map.
func (st State) StatusOf(step Step) Status {
	if s, ok := st.Steps[step]; ok {
		return s
	}
	return StatusPending
}

// CanAccess reports whether the step's workspace may run: the first step is
// always open, later steps require the immediately preceding step to be
// done. Demo mode bypasses gating unconditionally. Gating is advisory; no
// reducer rejects a transition because of it.
func (st State) CanAccess(step Step) bool {
	if st.Mode == ModeDemo {
		return true
	}
	prev, ok := step.Prev()
	if !ok {
		return step.Index() == 0
	}
	return st.StatusOf(prev) == StatusDone
}

// MarkDone sets a step's status to done. Idempotent.
func MarkDone(st State, step Step) State {
	out := st.Clone()
	out.Steps[step] = StatusDone
	delete(out.StepErrors, step)
	return out
}

// MarkError sets a step's status to error with a message. The step stays
// locked for dependents until it is reset.
func MarkError(st State, step Step, message string) State {
	out := st.Clone()
	out.Steps[step] = StatusError
	out.StepErrors[step] = message
	return out
}

// SetInProgress sets a step's status to in-progress.
func SetInProgress(st State, step Step) State {
	out := st.Clone()
	out.Steps[step] = StatusInProgress
	delete(out.StepErrors, step)
	return out
}

// SetCurrent moves the workflow cursor to the given step.
func SetCurrent(st State, step Step) State {
	out := st.Clone()
	out.Current = step
	return out
}

// ResetStep returns a step to pending and reports the downstream artifact
// kinds now potentially stale. Discarding them is the caller's decision;
// the reducer itself never cascades.
func ResetStep(st State, step Step) (State, []ArtifactKind) {
	out := st.Clone()
	out.Steps[step] = StatusPending
	delete(out.StepErrors, step)

	var stale []ArtifactKind
	for _, kind := range []ArtifactKind{ArtifactSchema, ArtifactCohort, ArtifactAnalysis, ArtifactReport} {
		if artifactOwner[kind].Index() > step.Index() {
			stale = append(stale, kind)
		}
	}
	return out, stale
}

// ResetFlow returns every step to pending, clears selections and errors,
// and returns the mode to normal.
func ResetFlow(st State) State {
	return NewState()
}

// SetMode switches between normal and demo sessions.
func SetMode(st State, mode Mode) State {
	out := st.Clone()
	out.Mode = mode
	return out
}

// SelectArticle adds an article ID to the selection set, removing it from
// the exclusion set. Duplicates are ignored.
func SelectArticle(st State, id string) State {
	out := st.Clone()
	out.ExcludedArticles = remove(out.ExcludedArticles, id)
	if !contains(out.SelectedArticles, id) {
		out.SelectedArticles = append(out.SelectedArticles, id)
	}
	return out
}

// ExcludeArticle moves an article ID to the exclusion set.
func ExcludeArticle(st State, id string) State {
	out := st.Clone()
	out.SelectedArticles = remove(out.SelectedArticles, id)
	if !contains(out.ExcludedArticles, id) {
		out.ExcludedArticles = append(out.ExcludedArticles, id)
	}
	return out
}

func contains(items []string, id string) bool {
	for _, v := range items {
		if v == id {
			return true
		}
	}
	return false
}

func remove(items []string, id string) []string {
	out := items[:0]
	for _, v := range items {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
