// Package schema holds the trial-schema and literature types supplied by
// the extraction and search steps. The engine treats them as read-only
// inputs.
package schema

import (
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
)

// VariableType classifies a schema variable.
type VariableType string

const (
	VariableNumeric     VariableType = "numeric"
	VariableCategorical VariableType = "categorical"
	VariableBoolean     VariableType = "boolean"
)

// Variable is one extracted study variable to be mapped onto dataset columns.
type Variable struct {
	Name     string       `json:"name"`
	Label    string       `json:"label,omitempty"`
	Type     VariableType `json:"type"`
	Unit     string       `json:"unit,omitempty"`
	Required bool         `json:"required,omitempty"`
}

// Version records who produced a schema revision and when. The timestamp
// participates in report staleness checks.
type Version struct {
	Author    string         `json:"author"`
	Timestamp core.Timestamp `json:"timestamp"`
}

// TrialSchema is the structured description of the emulated trial extracted
// from the selected literature.
type TrialSchema struct {
	Population        string     `json:"population"`
	Objective         string     `json:"objective"`
	InclusionCriteria []string   `json:"inclusionCriteria"`
	ExclusionCriteria []string   `json:"exclusionCriteria"`
	Variables         []Variable `json:"variables"`
	Outcomes          []string   `json:"outcomes"`
	Version           Version    `json:"version"`
}

// Article is one literature-search result. Selected articles feed the
// report's reference list.
type Article struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	LeadAuthor string `json:"leadAuthor"`
	Journal    string `json:"journal"`
	Year       int    `json:"year"`
}
