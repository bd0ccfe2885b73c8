package analysis

import (
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
)

// Template ids with a dedicated synthesis recipe. Anything else falls
// through to the difference-in-means default.
const (
	TemplatePropensityScore   = "propensity-score"
	TemplateHazardRatio       = "hazard-ratio"
	TemplateDifferenceInMeans = "difference-in-means"
)

// TemplateMeta identifies which synthesis recipe an analysis run applies.
type TemplateMeta struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// TableKind tags the fixed column set a table carries.
type TableKind string

const (
	TableBalance TableKind = "balance"
	TableHazard  TableKind = "hazard"
	TableOutcome TableKind = "outcome"
)

// Group labels used across tables and narratives.
const (
	GroupTreatment = "Treatment"
	GroupControl   = "Control"
)

// BalanceRow is one covariate of a propensity-score balance table.
type BalanceRow struct {
	Covariate string  `json:"covariate"`
	Treated   float64 `json:"treated"`
	Control   float64 `json:"control"`
	StdDiff   float64 `json:"stdDiff"`
}

// HazardRow is one group of a Cox-style hazard-ratio table. PValue is nil
// for the reference group.
type HazardRow struct {
	Group       string   `json:"group"`
	HazardRatio float64  `json:"hazardRatio"`
	CILower     float64  `json:"ciLower"`
	CIUpper     float64  `json:"ciUpper"`
	PValue      *float64 `json:"pValue,omitempty"`
}

// OutcomeRow is one group of a difference-in-means outcome table.
type OutcomeRow struct {
	Group  string  `json:"group"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	N      int     `json:"n"`
}

// Table is a tagged union: exactly one of the row slices is populated,
// selected by Kind. Fixed column sets per kind replace the loosely typed
// row maps a dynamic implementation would use.
type Table struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Kind    TableKind    `json:"kind"`
	Columns []string     `json:"columns"`
	Balance []BalanceRow `json:"balance,omitempty"`
	Hazard  []HazardRow  `json:"hazard,omitempty"`
	Outcome []OutcomeRow `json:"outcome,omitempty"`
}

// Point is one chart coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is one named line/bar of a chart.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// ChartType distinguishes rendering styles for the host UI.
type ChartType string

const (
	ChartLine ChartType = "line"
	ChartBar  ChartType = "bar"
)

// Chart is a synthetic statistical figure.
type Chart struct {
	ID     string    `json:"id"`
	Type   ChartType `json:"type"`
	Title  string    `json:"title"`
	XLabel string    `json:"xLabel"`
	YLabel string    `json:"yLabel"`
	Series []Series  `json:"series"`
}

// RunResult is the immutable artifact of one analysis run. The run history
// kept by the workflow is an append-only ordered sequence of these.
type RunResult struct {
	RunID        string         `json:"runId"`
	TemplateID   string         `json:"templateId"`
	StartedAt    core.Timestamp `json:"startedAt"`
	FinishedAt   core.Timestamp `json:"finishedAt"`
	DurationMs   int            `json:"durationMs"`
	Tables       []Table        `json:"tables"`
	Charts       []Chart        `json:"charts"`
	UsedFallback bool           `json:"usedFallback,omitempty"`
	Fingerprint  core.Hash      `json:"fingerprint"`
}

// FindTable returns the table with the given kind, if present.
func (r RunResult) FindTable(kind TableKind) (Table, bool) {
	for _, tbl := range r.Tables {
		if tbl.Kind == kind {
			return tbl, true
		}
	}
	return Table{}, false
}
