// Package snapshot defines the serialized form of a workflow session. The
// engine persists nothing itself; snapshots are handed to an external store
// by the host and rehydrated in any order.
package snapshot

import (
	"time"

	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/analysis"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/cohort"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/flow"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/report"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/schema"
)

// Snapshot captures one workflow session wholesale. Artifact fields are
// pointers so partially complete sessions round-trip without sentinels.
type Snapshot struct {
	Flow        flow.State           `json:"flow"`
	Schema      *schema.TrialSchema  `json:"schema,omitempty"`
	Articles    []schema.Article     `json:"articles,omitempty"`
	Cohort      *cohort.Result       `json:"cohort,omitempty"`
	Runs        []analysis.RunResult `json:"runs,omitempty"`
	Report      *report.Data         `json:"report,omitempty"`
	ReportAt    *time.Time           `json:"reportAt,omitempty"`
	PersistedAt time.Time            `json:"persistedAt"`
}
