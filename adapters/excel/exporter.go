// Package excel exports analysis run tables to an xlsx workbook, one sheet
// per table, for the download affordance.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/analysis"
	"github.com/SNUH-NSTRI/kcd2025-sub001/ports"
)

// Exporter writes run tables with excelize.
type Exporter struct{}

// NewExporter creates a workbook exporter.
func NewExporter() ports.TableExporter {
	return &Exporter{}
}

// Export writes one sheet per table across all runs. Sheet names carry the
// run id so repeated templates stay distinguishable.
func (e *Exporter) Export(path string, runs []analysis.RunResult) error {
	f := excelize.NewFile()
	defer f.Close()

	wroteSheet := false
	used := make(map[string]bool)
	for _, run := range runs {
		for _, table := range run.Tables {
			sheet := sheetName(run.RunID, table.ID, used)
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("create sheet %s: %w", sheet, err)
			}
			if err := writeTable(f, sheet, table); err != nil {
				return err
			}
			wroteSheet = true
		}
	}
	if wroteSheet {
		// Drop the default empty sheet.
		_ = f.DeleteSheet("Sheet1")
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// sheetName keeps within the 31-char xlsx limit. Truncation can make two
// long run ids collide, so collisions get a numeric suffix.
func sheetName(runID, tableID string, used map[string]bool) string {
	base := fmt.Sprintf("%s %s", tableID, runID)
	if len(base) > 31 {
		base = base[:31]
	}
	name := base
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf(" %d", i)
		name = base
		if len(name)+len(suffix) > 31 {
			name = name[:31-len(suffix)]
		}
		name += suffix
	}
	used[name] = true
	return name
}

func writeTable(f *excelize.File, sheet string, table analysis.Table) error {
	if err := f.SetCellValue(sheet, "A1", table.Title); err != nil {
		return fmt.Errorf("write title on %s: %w", sheet, err)
	}
	for col, header := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 2)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("write header on %s: %w", sheet, err)
		}
	}

	switch table.Kind {
	case analysis.TableBalance:
		for i, row := range table.Balance {
			if err := writeRow(f, sheet, i+3, row.Covariate, row.Treated, row.Control, row.StdDiff); err != nil {
				return err
			}
		}
	case analysis.TableHazard:
		for i, row := range table.Hazard {
			p := any("")
			if row.PValue != nil {
				p = *row.PValue
			}
			if err := writeRow(f, sheet, i+3, row.Group, row.HazardRatio, row.CILower, row.CIUpper, p); err != nil {
				return err
			}
		}
	case analysis.TableOutcome:
		for i, row := range table.Outcome {
			if err := writeRow(f, sheet, i+3, row.Group, row.Mean, row.StdDev, row.N); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowIdx int, values ...any) error {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write row %d on %s: %w", rowIdx, sheet, err)
		}
	}
	return nil
}
