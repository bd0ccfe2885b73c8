package ports

import (
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/analysis"
)

// TableExporter writes analysis run artifacts to an external document
// format (e.g. a spreadsheet workbook) for download.
type TableExporter interface {
	Export(path string, runs []analysis.RunResult) error
}
