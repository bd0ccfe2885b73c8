package excel

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/analysis"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/cohort"
)

func TestExport_WritesOneSheetPerTable(t *testing.T) {
	syn := analysis.NewSynthesizer()
	c := cohort.Result{Summary: cohort.Summary{Size: 100}, Seed: "seed-A"}
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	runs := []analysis.RunResult{
		syn.Run(analysis.TemplateMeta{ID: analysis.TemplateHazardRatio}, c, "run-1", started),
		syn.Run(analysis.TemplateMeta{ID: analysis.TemplatePropensityScore}, c, "run-2", started),
	}

	path := filepath.Join(t.TempDir(), "tables.xlsx")
	require.NoError(t, NewExporter().Export(path, runs))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "hazard-table run-1")
	assert.Contains(t, sheets, "balance-table run-2")

	title, err := f.GetCellValue("hazard-table run-1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Cox Proportional Hazards", title)

	group, err := f.GetCellValue("hazard-table run-1", "A3")
	require.NoError(t, err)
	assert.Equal(t, analysis.GroupControl, group)
}

func TestExport_EmptyRunsStillSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, NewExporter().Export(path, nil))
}

func TestExport_TruncatedSheetNamesStayUnique(t *testing.T) {
	syn := analysis.NewSynthesizer()
	c := cohort.Result{Summary: cohort.Summary{Size: 100}, Seed: "seed-A"}
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Both ids share the same first 31 chars after the table prefix.
	runs := []analysis.RunResult{
		syn.Run(analysis.TemplateMeta{ID: analysis.TemplateHazardRatio}, c, "sensitivity-replication-attempt-alpha", started),
		syn.Run(analysis.TemplateMeta{ID: analysis.TemplateHazardRatio}, c, "sensitivity-replication-attempt-beta", started),
	}

	path := filepath.Join(t.TempDir(), "collide.xlsx")
	require.NoError(t, NewExporter().Export(path, runs))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	wantTables := len(runs[0].Tables) + len(runs[1].Tables)
	assert.Len(t, sheets, wantTables)
	seen := make(map[string]bool)
	for _, s := range sheets {
		assert.LessOrEqual(t, len(s), 31)
		assert.False(t, seen[s], "duplicate sheet %q", s)
		seen[s] = true
	}
}
