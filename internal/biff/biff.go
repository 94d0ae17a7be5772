// Package biff reads worksheet cells from legacy Excel 97-2003 (.xls) workbooks.
//
// Cells come back with their stored values: numbers are never rendered through
// the cell's number format, so a date cell yields its serial and a formula cell
// yields its cached result.
package biff

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/richardlehane/mscfb"
)

var (
	ErrNoWorkbook = errors.New("compound file has no Workbook stream")
	ErrBIFF5      = errors.New("BIFF5 (Excel 5.0/95) workbooks are not supported")
	ErrTruncated  = errors.New("truncated record")
)

// CellKind is the type of a stored cell value.
type CellKind uint8

const (
	Empty CellKind = iota
	Number
	Text
	Bool
	Error
)

// Cell is one stored value. Number holds numeric and boolean values, Text holds
// strings and error codes.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
}

// String returns the raw cell text: numbers in their shortest exact decimal form,
// booleans as TRUE or FALSE and errors as their code (#N/A, #DIV/0!, ...).
func (c Cell) String() string {
	switch c.Kind {
	case Number:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case Text, Error:
		return c.Text
	case Bool:
		if c.Number != 0 {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// Sheet is a worksheet as a dense grid. Rows and cells past the last stored value
// are omitted.
type Sheet struct {
	Name string
	Rows [][]Cell
}

// Workbook holds the worksheets in tab order.
type Workbook struct {
	// Date1904 is set when serial dates count from 1904-01-01.
	Date1904 bool
	Sheets   []Sheet
}

// Sheet looks up a worksheet by name.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i], true
		}
	}
	return nil, false
}

// SheetNames lists the worksheet names in tab order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

// Read opens a compound file and parses its Workbook stream.
func Read(content []byte) (*Workbook, error) {
	doc, err := mscfb.New(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open compound file: %w", err)
	}
	stream, err := workbookStream(doc)
	if err != nil {
		return nil, err
	}
	return Parse(stream)
}

func workbookStream(doc *mscfb.Reader) ([]byte, error) {
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		switch {
		case strings.EqualFold(entry.Name, "Workbook"):
			buf := make([]byte, entry.Size)
			if _, err := io.ReadFull(entry, buf); err != nil {
				return nil, fmt.Errorf("read Workbook stream: %w", err)
			}
			return buf, nil
		case strings.EqualFold(entry.Name, "Book"):
			return nil, ErrBIFF5
		}
	}
	return nil, ErrNoWorkbook
}

// Parse reads a BIFF8 Workbook stream: the globals substream first, then every
// worksheet substream it points to.
func Parse(stream []byte) (*Workbook, error) {
	bof, off, err := readRecord(stream, 0)
	if err != nil {
		return nil, err
	}
	if bof.typ != recBOF || len(bof.data) < 4 {
		return nil, errors.New("stream does not start with a BOF record")
	}
	if v := le16(bof.data); v != biff8 {
		return nil, fmt.Errorf("unsupported BIFF version %#04x", v)
	}

	wb := &Workbook{}
	var (
		sheets []boundSheet
		sst    []string
	)
globals:
	for {
		var rec record
		rec, off, err = readRecord(stream, off)
		if err != nil {
			return nil, err
		}
		switch rec.typ {
		case recEOF:
			break globals
		case recDateMode:
			wb.Date1904 = len(rec.data) >= 2 && le16(rec.data) == 1
		case recBoundSheet:
			bs, err := parseBoundSheet(rec.data)
			if err != nil {
				return nil, err
			}
			sheets = append(sheets, bs)
		case recSST:
			segments := [][]byte{rec.data}
			for {
				next, end, err := readRecord(stream, off)
				if err != nil || next.typ != recContinue {
					break
				}
				segments = append(segments, next.data)
				off = end
			}
			if sst, err = parseSST(segments); err != nil {
				return nil, fmt.Errorf("shared strings: %w", err)
			}
		}
	}

	for _, bs := range sheets {
		if bs.kind != sheetWorksheet {
			continue
		}
		rows, err := parseSheet(stream, bs.pos, sst)
		if err != nil {
			return nil, fmt.Errorf("worksheet %q: %w", bs.name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: bs.name, Rows: rows})
	}
	return wb, nil
}

type boundSheet struct {
	pos  int
	kind byte
	name string
}

func parseBoundSheet(data []byte) (boundSheet, error) {
	if len(data) < 8 {
		return boundSheet{}, ErrTruncated
	}
	name, _, err := decodeChars(data[8:], int(data[6]), data[7]&0x01 != 0)
	if err != nil {
		return boundSheet{}, err
	}
	return boundSheet{pos: int(le32(data)), kind: data[5], name: name}, nil
}

func parseSheet(stream []byte, pos int, sst []string) ([][]Cell, error) {
	bof, off, err := readRecord(stream, pos)
	if err != nil {
		return nil, err
	}
	if bof.typ != recBOF {
		return nil, fmt.Errorf("no BOF record at offset %d", pos)
	}

	var (
		g       grid
		depth   int // embedded chart substreams
		pending *cellRef
	)
	for {
		var rec record
		rec, off, err = readRecord(stream, off)
		if err != nil {
			return nil, err
		}
		switch rec.typ {
		case recBOF:
			depth++
			continue
		case recEOF:
			if depth == 0 {
				return g.rows, nil
			}
			depth--
			continue
		}
		if depth > 0 {
			continue
		}

		if rec.typ == recString {
			if pending != nil {
				s, _, err := decodeString16(rec.data)
				if err != nil {
					return nil, err
				}
				g.set(pending.row, pending.col, Cell{Kind: Text, Text: s})
				pending = nil
			}
			continue
		}

		switch rec.typ {
		case recNumber, recRK, recLabelSST, recLabel, recBoolErr, recFormula, recMulRK:
		default:
			continue
		}
		if len(rec.data) < 6 {
			return nil, ErrTruncated
		}
		row, col := int(le16(rec.data)), int(le16(rec.data[2:]))
		body := rec.data[6:]

		switch rec.typ {
		case recNumber:
			if len(body) < 8 {
				return nil, ErrTruncated
			}
			g.set(row, col, Cell{Kind: Number, Number: math.Float64frombits(le64(body))})
		case recRK:
			if len(body) < 4 {
				return nil, ErrTruncated
			}
			g.set(row, col, Cell{Kind: Number, Number: decodeRK(le32(body))})
		case recMulRK:
			// rw, colFirst, then (ixfe, rk) pairs, then colLast
			pairs := rec.data[4 : len(rec.data)-2]
			for i := 0; i+6 <= len(pairs); i += 6 {
				g.set(row, col+i/6, Cell{Kind: Number, Number: decodeRK(le32(pairs[i+2:]))})
			}
		case recLabelSST:
			if len(body) < 4 {
				return nil, ErrTruncated
			}
			idx := int(le32(body))
			if idx >= len(sst) {
				return nil, fmt.Errorf("shared string %d out of range (%d strings)", idx, len(sst))
			}
			g.set(row, col, Cell{Kind: Text, Text: sst[idx]})
		case recLabel:
			s, _, err := decodeString16(body)
			if err != nil {
				return nil, err
			}
			g.set(row, col, Cell{Kind: Text, Text: s})
		case recBoolErr:
			if len(body) < 2 {
				return nil, ErrTruncated
			}
			g.set(row, col, boolOrError(body[0], body[1] != 0))
		case recFormula:
			if len(body) < 8 {
				return nil, ErrTruncated
			}
			c, isString := formulaResult(body[:8])
			if isString {
				pending = &cellRef{row: row, col: col}
				continue
			}
			g.set(row, col, c)
		}
	}
}

// formulaResult decodes the cached value of a FORMULA record. A string result is
// stored in the STRING record that follows.
func formulaResult(b []byte) (Cell, bool) {
	if b[6] != 0xFF || b[7] != 0xFF {
		return Cell{Kind: Number, Number: math.Float64frombits(le64(b))}, false
	}
	switch b[0] {
	case 0x00:
		return Cell{}, true
	case 0x01:
		return boolOrError(b[2], false), false
	case 0x02:
		return boolOrError(b[2], true), false
	default:
		return Cell{}, false
	}
}

func boolOrError(v byte, isError bool) Cell {
	if !isError {
		n := 0.0
		if v != 0 {
			n = 1
		}
		return Cell{Kind: Bool, Number: n}
	}
	code, ok := errorCodes[v]
	if !ok {
		code = "#ERR!"
	}
	return Cell{Kind: Error, Text: code}
}

var errorCodes = map[byte]string{
	0x00: "#NULL!",
	0x07: "#DIV/0!",
	0x0F: "#VALUE!",
	0x17: "#REF!",
	0x1D: "#NAME?",
	0x24: "#NUM!",
	0x2A: "#N/A",
	0x2B: "#GETTING_DATA",
}

// decodeRK unpacks the compressed number format: a 30-bit integer or the high
// 30 bits of a float64, optionally scaled by 1/100.
func decodeRK(rk uint32) float64 {
	var v float64
	if rk&0x02 != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x01 != 0 {
		v /= 100
	}
	return v
}

type cellRef struct {
	row, col int
}

type grid struct {
	rows [][]Cell
}

func (g *grid) set(row, col int, c Cell) {
	for len(g.rows) <= row {
		g.rows = append(g.rows, nil)
	}
	r := g.rows[row]
	for len(r) <= col {
		r = append(r, Cell{})
	}
	r[col] = c
	g.rows[row] = r
}
