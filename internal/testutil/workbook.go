// Package testutil builds spreadsheet fixtures for tests.
package testutil

import (
	"math"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Option adjusts a workbook before it is written.
type Option func(f *excelize.File) error

// Date1904 switches the workbook to the 1904 date system.
func Date1904() Option {
	return func(f *excelize.File) error {
		on := true
		return f.SetWorkbookProps(&excelize.WorkbookPropsOptions{Date1904: &on})
	}
}

// Workbook returns the bytes of an .xlsx file with one worksheet. A nil cell is
// left empty.
func Workbook(t *testing.T, sheet string, rows [][]any, opts ...Option) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for _, opt := range opts {
		if err := opt(f); err != nil {
			t.Fatalf("failed to apply workbook option: %v", err)
		}
	}

	if sheet != f.GetSheetName(0) {
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			t.Fatalf("failed to rename sheet: %v", err)
		}
	}

	for r, row := range rows {
		for c, value := range row {
			if value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("invalid cell coordinates: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("failed to write %s: %v", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to write workbook: %v", err)
	}
	return buf.Bytes()
}

// LevelWorkbook returns a Hoja1 workbook with Fecha and NivelEmbalse columns.
// NaN levels are written as empty cells.
func LevelWorkbook(t *testing.T, times []string, levels []float64) []byte {
	t.Helper()

	rows := [][]any{{"Fecha", "NivelEmbalse"}}
	for i, ts := range times {
		row := []any{ts, nil}
		if !math.IsNaN(levels[i]) {
			row[1] = levels[i]
		}
		rows = append(rows, row)
	}
	return Workbook(t, "Hoja1", rows)
}
