package reservoir

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Worksheet and column labels an uploaded workbook must carry.
const (
	SheetName   = "Hoja1"
	DateColumn  = "Fecha"
	LevelColumn = "NivelEmbalse"
)

// RawTable is the content of the worksheet as read from the file: the first row
// as header and every following row as raw cell text.
type RawTable struct {
	Sheet  string
	Header []string
	Rows   [][]string
	// Date1904 is set when numeric dates count from 1904-01-01.
	Date1904 bool
}

// Column is one non-date column of a normalized table.
type Column struct {
	Name    string
	Text    []string  // trimmed cell text, empty when missing
	Values  []float64 // NaN when missing; nil when the column is not numeric
	Missing []bool
}

// Numeric reports whether every present cell of the column parsed as a number.
func (c *Column) Numeric() bool {
	return c.Values != nil
}

// Frame is the uploaded table re-keyed by the parsed Fecha column.
type Frame struct {
	Index   []time.Time
	Columns []Column
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Index)
}

// Column looks up a column by its trimmed label.
func (f *Frame) Column(name string) (*Column, bool) {
	for i := range f.Columns {
		if f.Columns[i].Name == name {
			return &f.Columns[i], true
		}
	}
	return nil, false
}

// Series returns the named numeric column paired with the time index.
func (f *Frame) Series(name string) (Series, error) {
	col, ok := f.Column(name)
	if !ok {
		return nil, &MissingColumnError{Column: name, Available: f.columnNames()}
	}
	if !col.Numeric() {
		return nil, &ParseError{Op: "read " + name, Err: errNotNumeric}
	}
	s := make(Series, f.Len())
	for i, t := range f.Index {
		s[i] = Point{Time: t, Value: col.Values[i]}
	}
	return s, nil
}

func (f *Frame) columnNames() []string {
	names := make([]string, 0, len(f.Columns)+1)
	names = append(names, DateColumn)
	for _, c := range f.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Point is a single reading. A NaN value marks a missing reading.
type Point struct {
	Time  time.Time
	Value float64
}

// Missing reports whether the reading is absent.
func (p Point) Missing() bool {
	return math.IsNaN(p.Value)
}

// MarshalJSON encodes missing values as null.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Time  time.Time `json:"time"`
		Value Number    `json:"value"`
	}{p.Time, Number(p.Value)})
}

// Series is an ordered sequence of readings.
type Series []Point

// Values returns the present values in order.
func (s Series) Values() []float64 {
	out := make([]float64, 0, len(s))
	for _, p := range s {
		if !p.Missing() {
			out = append(out, p.Value)
		}
	}
	return out
}

// Number is a float64 that encodes NaN and infinities as JSON null.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// Artifact is a generated file offered for download.
type Artifact struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Report holds everything derived from one pipeline run.
type Report struct {
	RunID         string
	Filename      string
	Frequency     Frequency
	Frame         *Frame
	MissingCounts []ColumnCount
	Summaries     []Summary
	Histogram     Histogram
	NullMask      []bool
	Original      Series
	Cleaned       Series
	Resampled     Series
	Artifact      *Artifact
}
