package report

import (
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
)

// Sections are the narrative parts of the assembled report. Every sentence
// is derived from structured upstream fields, never free-form generation.
type Sections struct {
	Abstract   string `json:"abstract"`
	Methods    string `json:"methods"`
	Cohort     string `json:"cohort"`
	Results    string `json:"results"`
	Discussion string `json:"discussion"`
}

// Data is the assembled report artifact. It is regenerated wholesale when
// any upstream artifact is newer, never patched field by field. The JSON
// shape of this struct is the export contract for the download affordance:
// authors and references are ordered lists.
type Data struct {
	Title      string         `json:"title"`
	Authors    []string       `json:"authors"`
	Sections   Sections       `json:"sections"`
	References []string       `json:"references"`
	CreatedAt  core.Timestamp `json:"createdAt"`
}
