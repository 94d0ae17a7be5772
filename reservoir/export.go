package reservoir

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	exportBaseName    = "nivel_embalse"
	exportDateFormat  = "yyyy-mm-dd hh:mm:ss"
	exportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportFilename generates the download name, stamped to the minute.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", exportBaseName, now.Format("20060102_1504"))
}

// Export writes the series to a single-sheet workbook: the Fecha index in column A
// and the level in column B. Missing values are left as empty cells. The sheet is
// named Hoja1 so the download can be uploaded again.
func Export(s Series, now time.Time) (*Artifact, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, &ExportError{Err: fmt.Errorf("failed to name worksheet: %w", err)}
	}
	if err := f.SetSheetRow(SheetName, "A1", &[]interface{}{DateColumn, LevelColumn}); err != nil {
		return nil, &ExportError{Err: fmt.Errorf("failed to write header: %w", err)}
	}

	for i, p := range s {
		row := i + 2
		dateCell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, &ExportError{Err: err}
		}
		if err := f.SetCellValue(SheetName, dateCell, p.Time); err != nil {
			return nil, &ExportError{Err: fmt.Errorf("failed to write %s at row %d: %w", DateColumn, row, err)}
		}
		if p.Missing() {
			continue
		}
		valueCell, err := excelize.CoordinatesToCellName(2, row)
		if err != nil {
			return nil, &ExportError{Err: err}
		}
		if err := f.SetCellFloat(SheetName, valueCell, p.Value, -1, 64); err != nil {
			return nil, &ExportError{Err: fmt.Errorf("failed to write %s at row %d: %w", LevelColumn, row, err)}
		}
	}

	if len(s) > 0 {
		dateFormat := exportDateFormat
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
		if err != nil {
			return nil, &ExportError{Err: fmt.Errorf("failed to create date style: %w", err)}
		}
		lastCell, err := excelize.CoordinatesToCellName(1, len(s)+1)
		if err != nil {
			return nil, &ExportError{Err: err}
		}
		if err := f.SetCellStyle(SheetName, "A2", lastCell, style); err != nil {
			return nil, &ExportError{Err: fmt.Errorf("failed to apply date style: %w", err)}
		}
	}
	if err := f.SetColWidth(SheetName, "A", "A", 20); err != nil {
		return nil, &ExportError{Err: err}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, &ExportError{Err: fmt.Errorf("failed to serialize workbook: %w", err)}
	}

	return &Artifact{
		Filename:    ExportFilename(now),
		ContentType: exportContentType,
		Content:     buf.Bytes(),
	}, nil
}
