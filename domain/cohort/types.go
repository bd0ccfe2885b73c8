package cohort

import (
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
)

// PatientRecord is one synthetic patient. Records are owned by the
// synthesizer during generation and immutable once summarised.
type PatientRecord struct {
	ID     string             `json:"id"`
	Age    int                `json:"age"`
	Sex    string             `json:"sex"` // "M" | "F"
	Fields map[string]float64 `json:"fields,omitempty"`
}

// AgeBucket is one fixed-width histogram bucket.
type AgeBucket struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Count int `json:"count"`
}

// AgeStats summarises the age vector of a cohort.
type AgeStats struct {
	Mean      float64     `json:"mean"`
	Median    float64     `json:"median"`
	Min       int         `json:"min"`
	Max       int         `json:"max"`
	StdDev    float64     `json:"stdDev"`
	Skewness  float64     `json:"skewness"`
	Histogram []AgeBucket `json:"histogram"`
}

// SexCounts holds exact per-sex counts.
type SexCounts struct {
	M int `json:"M"`
	F int `json:"F"`
}

// SexProportions holds per-sex shares rounded to 2 decimals.
type SexProportions struct {
	M float64 `json:"M"`
	F float64 `json:"F"`
}

// SexStats summarises the sex distribution of a cohort.
type SexStats struct {
	Counts      SexCounts      `json:"counts"`
	Proportions SexProportions `json:"proportions"`
}

// Summary is the derived descriptive summary of a cohort. Never mutated
// after creation. Invariants: sum of histogram counts equals Size;
// proportions sum to 1.00 within rounding for any nonzero cohort.
type Summary struct {
	Size int      `json:"size"`
	Age  AgeStats `json:"age"`
	Sex  SexStats `json:"sex"`
}

// Result is the cohort artifact held by the workflow: one active result per
// session, replaced wholesale on regeneration.
type Result struct {
	Summary     Summary        `json:"summary"`
	Seed        string         `json:"seed"`
	DatasetID   string         `json:"datasetId"`
	CreatedAt   core.Timestamp `json:"createdAt"`
	Fingerprint core.Hash      `json:"fingerprint"`
}
