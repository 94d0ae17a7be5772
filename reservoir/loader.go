package reservoir

import (
	"archive/zip"
	"bytes"
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kaireichart/embalse-analysis/internal/biff"
)

const (
	extLegacy = ".xls"
	extOOXML  = ".xlsx"
)

// Load reads the Hoja1 worksheet of an uploaded workbook. The format is chosen by
// the file extension; .xlsx content must be a valid zip container before it is parsed.
func Load(filename string, content []byte) (*RawTable, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))

	switch ext {
	case extLegacy:
		return loadLegacy(content)
	case extOOXML:
		if err := checkContainer(content); err != nil {
			return nil, &CorruptFileError{Filename: filename, Err: err}
		}
		return loadOOXML(content)
	default:
		return nil, &UnsupportedFormatError{Filename: filename, Extension: ext}
	}
}

// checkContainer verifies the zip end-of-central-directory record and directory entries.
func checkContainer(content []byte) error {
	if len(content) == 0 {
		return errors.New("empty file")
	}
	_, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	return err
}

func loadOOXML(content []byte) (*RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, &ParseError{Op: "open workbook", Err: err}
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(SheetName)
	if err != nil || idx < 0 {
		return nil, &SheetNotFoundError{Sheet: SheetName, Available: f.GetSheetList()}
	}

	// Raw values keep dates as serial numbers instead of the cell's display format.
	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Op: "read worksheet " + SheetName, Err: err}
	}
	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, &ParseError{Op: "read workbook properties", Err: err}
	}

	table, err := newRawTable(rows)
	if err != nil {
		return nil, err
	}
	table.Date1904 = props.Date1904 != nil && *props.Date1904
	return table, nil
}

func loadLegacy(content []byte) (*RawTable, error) {
	wb, err := biff.Read(content)
	if err != nil {
		return nil, &ParseError{Op: "open legacy workbook", Err: err}
	}
	sheet, ok := wb.Sheet(SheetName)
	if !ok {
		return nil, &SheetNotFoundError{Sheet: SheetName, Available: wb.SheetNames()}
	}

	// Stored values, like the raw .xlsx read: dates stay serial numbers and
	// formulas give their cached result.
	rows := make([][]string, len(sheet.Rows))
	for i, cells := range sheet.Rows {
		rows[i] = make([]string, len(cells))
		for j, c := range cells {
			rows[i][j] = c.String()
		}
	}

	table, err := newRawTable(trimTrailingBlankRows(rows))
	if err != nil {
		return nil, err
	}
	table.Date1904 = wb.Date1904
	return table, nil
}

func trimTrailingBlankRows(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && blankRow(rows[end-1]) {
		end--
	}
	return rows[:end]
}

// newRawTable takes the first row as header, like a spreadsheet read with header=0.
func newRawTable(rows [][]string) (*RawTable, error) {
	if len(rows) == 0 {
		return nil, &ParseError{Op: "read worksheet " + SheetName, Err: errors.New("worksheet is empty")}
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if strings.TrimSpace(h) == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		header[i] = h
	}
	return &RawTable{
		Sheet:  SheetName,
		Header: header,
		Rows:   rows[1:],
	}, nil
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}
