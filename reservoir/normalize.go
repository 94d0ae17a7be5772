package reservoir

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cell texts read as missing, the same markers spreadsheet readers treat as NA.
var missingMarkers = map[string]bool{
	"":         true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

func isMissing(text string) bool {
	return missingMarkers[text]
}

type indexedRow struct {
	time  time.Time
	cells []string
}

// Normalize trims the column labels, parses Fecha into the time index and splits
// the remaining columns into typed columns. Rows are ordered by timestamp; rows
// sharing a timestamp keep their sheet order. Slash dates are read day first when
// the column shows it, otherwise month first.
func Normalize(raw *RawTable) (*Frame, error) {
	header := make([]string, len(raw.Header))
	for i, h := range raw.Header {
		header[i] = strings.TrimSpace(h)
	}

	dateIdx := indexOf(header, DateColumn)
	if dateIdx < 0 {
		return nil, &MissingColumnError{Column: DateColumn, Available: header}
	}
	if indexOf(header, LevelColumn) < 0 {
		return nil, &MissingColumnError{Column: LevelColumn, Available: header}
	}

	dates := make([]string, len(raw.Rows))
	for i, cells := range raw.Rows {
		dates[i] = strings.TrimSpace(cellAt(cells, dateIdx))
	}
	parser := TimestampParser{Date1904: raw.Date1904, DayFirst: InferDayFirst(dates)}

	rows := make([]indexedRow, 0, len(raw.Rows))
	for i, cells := range raw.Rows {
		if blankRow(cells) {
			continue
		}
		t, err := parser.Parse(dates[i])
		if err != nil {
			// +2: one for the header row, one for 1-based sheet rows.
			return nil, &DateParseError{Row: i + 2, Value: dates[i]}
		}
		rows = append(rows, indexedRow{time: t, cells: cells})
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].time.Before(rows[b].time)
	})

	frame := &Frame{Index: make([]time.Time, len(rows))}
	for i, r := range rows {
		frame.Index[i] = r.time
	}

	seen := make(map[string]bool, len(header))
	for ci, name := range header {
		if ci == dateIdx || seen[name] {
			continue
		}
		seen[name] = true

		col, bad := buildColumn(name, ci, rows)
		if name == LevelColumn && !col.Numeric() {
			return nil, &ParseError{
				Op:  "parse " + LevelColumn,
				Err: fmt.Errorf("non-numeric value %q", bad),
			}
		}
		frame.Columns = append(frame.Columns, col)
	}

	return frame, nil
}

// buildColumn returns the column and, when it is not numeric, the first offending cell.
func buildColumn(name string, idx int, rows []indexedRow) (Column, string) {
	col := Column{
		Name:    name,
		Text:    make([]string, len(rows)),
		Missing: make([]bool, len(rows)),
	}
	values := make([]float64, len(rows))
	numeric := true
	bad := ""

	for i, r := range rows {
		text := strings.TrimSpace(cellAt(r.cells, idx))
		if isMissing(text) {
			col.Missing[i] = true
			values[i] = math.NaN()
			continue
		}
		col.Text[i] = text
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			if numeric {
				bad = text
			}
			numeric = false
			continue
		}
		values[i] = v
	}

	if numeric {
		col.Values = values
	}
	return col, bad
}

func indexOf(labels []string, name string) int {
	for i, l := range labels {
		if l == name {
			return i
		}
	}
	return -1
}
