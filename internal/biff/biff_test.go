package biff

import (
	"encoding/binary"
	"math"
	"os"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(typ uint16, body ...[]byte) []byte {
	var data []byte
	for _, b := range body {
		data = append(data, b...)
	}
	out := binary.LittleEndian.AppendUint16(nil, typ)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(data)))
	return append(out, data...)
}

func u16(v uint16) []byte  { return binary.LittleEndian.AppendUint16(nil, v) }
func u32(v uint32) []byte  { return binary.LittleEndian.AppendUint32(nil, v) }
func f64(v float64) []byte { return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)) }

func bofRecord(dt uint16) []byte {
	return rec(recBOF, u16(biff8), u16(dt), u16(0), u16(0), u32(0), u32(0))
}

func cellHead(row, col uint16) []byte {
	return append(append(u16(row), u16(col)...), u16(15)...)
}

// compressed encodes s as single-byte Latin-1 characters.
func compressed(s string) []byte {
	r := []rune(s)
	out := append(u16(uint16(len(r))), 0x00)
	for _, c := range r {
		out = append(out, byte(c))
	}
	return out
}

func wide(s string) []byte {
	u := utf16.Encode([]rune(s))
	out := append(u16(uint16(len(u))), 0x01)
	for _, c := range u {
		out = binary.LittleEndian.AppendUint16(out, c)
	}
	return out
}

type testSheet struct {
	name  string
	cells [][]byte
}

// buildStream lays out a globals substream followed by one substream per sheet.
func buildStream(globals [][]byte, sheets ...testSheet) []byte {
	head := bofRecord(0x0005)
	for _, g := range globals {
		head = append(head, g...)
	}
	tail := rec(recEOF)

	boundLen := 0
	for _, s := range sheets {
		boundLen += 4 + 8 + len(s.name)
	}
	pos := len(head) + boundLen + len(tail)

	var bounds, bodies []byte
	for _, s := range sheets {
		name := append([]byte{byte(len(s.name)), 0x00}, s.name...)
		bounds = append(bounds, rec(recBoundSheet, u32(uint32(pos)), []byte{0, sheetWorksheet}, name)...)
		body := bofRecord(0x0010)
		for _, c := range s.cells {
			body = append(body, c...)
		}
		body = append(body, rec(recEOF)...)
		bodies = append(bodies, body...)
		pos += len(body)
	}

	out := append(head, bounds...)
	out = append(out, tail...)
	return append(out, bodies...)
}

func rkInt(v int32, cents bool) uint32 {
	rk := uint32(v<<2) | 0x02
	if cents {
		rk |= 0x01
	}
	return rk
}

func TestReadCompoundFile(t *testing.T) {
	content, err := os.ReadFile("testdata/test.xls")
	require.NoError(t, err)

	wb, err := Read(content)
	require.NoError(t, err)
	assert.False(t, wb.Date1904)
	assert.Equal(t, []string{"Test sheet 1", "Test sheet 2", "Sheet3"}, wb.SheetNames())

	sheet, ok := wb.Sheet("Test sheet 1")
	require.True(t, ok)
	require.Len(t, sheet.Rows, 4)
	assert.Equal(t, "Test1", sheet.Rows[0][0].String())
	assert.Equal(t, "Avocado", sheet.Rows[1][0].String())

	// numeric cells keep their stored values
	want := [][2]float64{{1, 2}, {3, 5}, {4, 7}}
	for i, w := range want {
		row := sheet.Rows[i+1]
		assert.Equal(t, Cell{Kind: Number, Number: w[0]}, row[1])
		assert.Equal(t, Cell{Kind: Number, Number: w[1]}, row[2])
	}
	assert.Equal(t, "1", sheet.Rows[1][1].String())

	empty, ok := wb.Sheet("Sheet3")
	require.True(t, ok)
	assert.Empty(t, empty.Rows)

	_, ok = wb.Sheet("Hoja1")
	assert.False(t, ok)
}

func TestReadRejectsNonCompoundContent(t *testing.T) {
	for name, content := range map[string][]byte{
		"empty":    nil,
		"text":     []byte("Fecha;NivelEmbalse\n2024-01-01;10\n"),
		"zip like": append([]byte("PK\x03\x04"), make([]byte, 600)...),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Read(content)
			assert.Error(t, err)
		})
	}
}

func TestParseCellValues(t *testing.T) {
	stream := buildStream(
		[][]byte{rec(recSST, u32(2), u32(2), compressed("Presa"), compressed("Norte"))},
		testSheet{name: "Hoja1", cells: [][]byte{
			rec(recNumber, cellHead(0, 0), f64(45292.010416666664)),
			rec(recRK, cellHead(0, 1), u32(rkInt(10, false))),
			rec(recRK, cellHead(0, 2), u32(rkInt(3050, true))),
			rec(recRK, cellHead(0, 3), u32(rkInt(-3, false))),
			rec(recRK, cellHead(0, 4), u32(uint32(math.Float64bits(1.5)>>32))),
			rec(recMulRK, u16(1), u16(1), u16(15), u32(rkInt(7, false)), u16(15), u32(rkInt(8, false)), u16(2)),
			rec(recLabelSST, cellHead(2, 0), u32(1)),
			rec(recLabel, cellHead(2, 1), wide("Año")),
			rec(recLabel, cellHead(2, 2), compressed("Estación")),
			rec(recBoolErr, cellHead(3, 0), []byte{1, 0}),
			rec(recBoolErr, cellHead(3, 1), []byte{0x2A, 1}),
			rec(recBoolErr, cellHead(3, 2), []byte{0x07, 1}),
			rec(recFormula, cellHead(4, 0), f64(25), u16(0), u32(0), u16(0)),
			rec(recFormula, cellHead(4, 1), []byte{0, 0, 0, 0, 0, 0, 0xFF, 0xFF}, u16(0), u32(0), u16(0)),
			rec(recString, compressed("calculado")),
			rec(recFormula, cellHead(4, 2), []byte{1, 0, 1, 0, 0, 0, 0xFF, 0xFF}, u16(0), u32(0), u16(0)),
			rec(recFormula, cellHead(4, 3), []byte{3, 0, 0, 0, 0, 0, 0xFF, 0xFF}, u16(0), u32(0), u16(0)),
			rec(0x0201, cellHead(5, 0)),
		}},
	)

	wb, err := Parse(stream)
	require.NoError(t, err)
	sheet, ok := wb.Sheet("Hoja1")
	require.True(t, ok)

	text := make([][]string, len(sheet.Rows))
	for i, row := range sheet.Rows {
		for _, c := range row {
			text[i] = append(text[i], c.String())
		}
	}
	assert.Equal(t, [][]string{
		{"45292.010416666664", "10", "30.5", "-3", "1.5"},
		{"", "7", "8"},
		{"Norte", "Año", "Estación"},
		{"TRUE", "#N/A", "#DIV/0!"},
		{"25", "calculado", "TRUE", ""},
	}, text)
}

func TestParseSharedStringsAcrossContinue(t *testing.T) {
	// "Embalse del Ebro" split after "Embalse ", the rest continued as UTF-16
	first := append(append(u32(2), u32(2)...), compressed("Fecha")...)
	first = append(first, u16(16)...)
	first = append(first, 0x00)
	first = append(first, "Embalse "...)
	rest := []byte{0x01}
	for _, c := range utf16.Encode([]rune("del Ebro")) {
		rest = binary.LittleEndian.AppendUint16(rest, c)
	}

	stream := buildStream(
		[][]byte{rec(recSST, first), rec(recContinue, rest)},
		testSheet{name: "Hoja1", cells: [][]byte{
			rec(recLabelSST, cellHead(0, 0), u32(0)),
			rec(recLabelSST, cellHead(0, 1), u32(1)),
		}},
	)

	wb, err := Parse(stream)
	require.NoError(t, err)
	sheet, _ := wb.Sheet("Hoja1")
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "Fecha", sheet.Rows[0][0].Text)
	assert.Equal(t, "Embalse del Ebro", sheet.Rows[0][1].Text)
}

func TestParseDateMode(t *testing.T) {
	stream := buildStream([][]byte{rec(recDateMode, u16(1))}, testSheet{name: "Hoja1"})
	wb, err := Parse(stream)
	require.NoError(t, err)
	assert.True(t, wb.Date1904)

	wb, err = Parse(buildStream(nil, testSheet{name: "Hoja1"}))
	require.NoError(t, err)
	assert.False(t, wb.Date1904)
}

func TestParseSkipsEmbeddedCharts(t *testing.T) {
	stream := buildStream(nil, testSheet{name: "Hoja1", cells: [][]byte{
		rec(recNumber, cellHead(0, 0), f64(1)),
		bofRecord(0x0020),
		rec(recNumber, cellHead(9, 9), f64(99)),
		rec(recEOF),
		rec(recNumber, cellHead(1, 0), f64(2)),
	}})

	wb, err := Parse(stream)
	require.NoError(t, err)
	sheet, _ := wb.Sheet("Hoja1")
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, 2.0, sheet.Rows[1][0].Number)
}

func TestParseErrors(t *testing.T) {
	valid := buildStream(nil, testSheet{name: "Hoja1", cells: [][]byte{rec(recNumber, cellHead(0, 0), f64(1))}})

	tests := []struct {
		name   string
		stream []byte
	}{
		{name: "empty", stream: nil},
		{name: "no bof", stream: rec(recEOF)},
		{name: "biff5 version", stream: append(rec(recBOF, u16(0x0500), u16(0x0005), u32(0)), rec(recEOF)...)},
		{name: "truncated", stream: valid[:len(valid)-6]},
		{name: "missing shared string", stream: buildStream(nil, testSheet{name: "Hoja1", cells: [][]byte{
			rec(recLabelSST, cellHead(0, 0), u32(3)),
		}})},
		{name: "short number", stream: buildStream(nil, testSheet{name: "Hoja1", cells: [][]byte{
			rec(recNumber, cellHead(0, 0), u32(1)),
		}})},
		{name: "implausible shared string count", stream: buildStream(
			[][]byte{rec(recSST, u32(1<<30), u32(1<<30))},
			testSheet{name: "Hoja1"},
		)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.stream)
			assert.Error(t, err)
		})
	}
}

func TestDecodeRK(t *testing.T) {
	tests := []struct {
		rk   uint32
		want float64
	}{
		{rkInt(0, false), 0},
		{rkInt(42, false), 42},
		{rkInt(-42, false), -42},
		{rkInt(1234, true), 12.34},
		{uint32(math.Float64bits(0.5) >> 32), 0.5},
		{uint32(math.Float64bits(250) >> 32), 250},
		{uint32(math.Float64bits(250)>>32) | 0x01, 2.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, decodeRK(tt.rk), 1e-12, "rk %#08x", tt.rk)
	}
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", Cell{}.String())
	assert.Equal(t, "0.1", Cell{Kind: Number, Number: 0.1}.String())
	assert.Equal(t, "1000000", Cell{Kind: Number, Number: 1e6}.String())
	assert.Equal(t, "FALSE", Cell{Kind: Bool}.String())
	assert.Equal(t, "#REF!", Cell{Kind: Error, Text: "#REF!"}.String())
}
