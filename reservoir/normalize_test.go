package reservoir

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC)
}

func TestNormalizeTrimsLabels(t *testing.T) {
	raw := &RawTable{
		Header: []string{"  Fecha", "NivelEmbalse  ", " Observaciones "},
		Rows: [][]string{
			{"2024-01-01 00:00:00", "10.5", "ok"},
			{"2024-01-01 00:15:00", "11", ""},
		},
	}

	frame, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{at(0, 0), at(0, 15)}, frame.Index)
	require.Len(t, frame.Columns, 2)

	level, ok := frame.Column(LevelColumn)
	require.True(t, ok)
	assert.Equal(t, []float64{10.5, 11}, level.Values)

	notes, ok := frame.Column("Observaciones")
	require.True(t, ok)
	assert.False(t, notes.Numeric())
	assert.Equal(t, []string{"ok", ""}, notes.Text)
	assert.Equal(t, []bool{false, true}, notes.Missing)
}

func TestNormalizeMissingColumn(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   string
	}{
		{name: "no date", header: []string{"Fecha hora", "NivelEmbalse"}, want: DateColumn},
		{name: "no level", header: []string{"Fecha", "Nivel"}, want: LevelColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(&RawTable{Header: tt.header})

			var target *MissingColumnError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, tt.want, target.Column)
			assert.Equal(t, "missing_column", ErrorKind(err))
		})
	}
}

func TestNormalizeDateParseError(t *testing.T) {
	raw := &RawTable{
		Header: []string{"Fecha", "NivelEmbalse"},
		Rows: [][]string{
			{"2024-01-01 00:00:00", "1"},
			{"ayer", "2"},
		},
	}

	_, err := Normalize(raw)

	var target *DateParseError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 3, target.Row)
	assert.Equal(t, "ayer", target.Value)
	assert.Contains(t, err.Error(), "ayer")
}

func TestNormalizeEmptyDateInDataRow(t *testing.T) {
	raw := &RawTable{
		Header: []string{"Fecha", "NivelEmbalse"},
		Rows:   [][]string{{"", "2"}},
	}

	_, err := Normalize(raw)

	var target *DateParseError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 2, target.Row)
}

func TestNormalizeSkipsBlankRows(t *testing.T) {
	raw := &RawTable{
		Header: []string{"Fecha", "NivelEmbalse"},
		Rows: [][]string{
			{"2024-01-01 00:00:00", "1"},
			{"", ""},
			nil,
			{"2024-01-01 00:15:00", "2"},
		},
	}

	frame, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, frame.Len())
}

func TestNormalizeMissingMarkers(t *testing.T) {
	raw := &RawTable{
		Header: []string{"Fecha", "NivelEmbalse"},
		Rows: [][]string{
			{"2024-01-01 00:00:00", "1"},
			{"2024-01-01 00:15:00", "NA"},
			{"2024-01-01 00:30:00", "#N/A"},
			{"2024-01-01 00:45:00"},
			{"2024-01-01 01:00:00", " nan "},
		},
	}

	frame, err := Normalize(raw)
	require.NoError(t, err)

	level, _ := frame.Column(LevelColumn)
	assert.Equal(t, []bool{false, true, true, true, true}, level.Missing)
	assert.Equal(t, 1.0, level.Values[0])
	for _, v := range level.Values[1:] {
		assert.True(t, math.IsNaN(v))
	}
}

func TestNormalizeRejectsNonNumericLevel(t *testing.T) {
	raw := &RawTable{
		Header: []string{"Fecha", "NivelEmbalse"},
		Rows: [][]string{
			{"2024-01-01 00:00:00", "1"},
			{"2024-01-01 00:15:00", "alto"},
		},
	}

	_, err := Normalize(raw)

	var target *ParseError
	require.ErrorAs(t, err, &target)
	assert.Contains(t, err.Error(), "alto")
	assert.Equal(t, "parse", ErrorKind(err))
}

func TestNormalizeSortsByTimestamp(t *testing.T) {
	raw := &RawTable{
		Header: []string{"Fecha", "NivelEmbalse"},
		Rows: [][]string{
			{"2024-01-01 01:00:00", "3"},
			{"2024-01-01 00:00:00", "1"},
			{"2024-01-01 00:30:00", "2"},
			{"2024-01-01 00:30:00", "2.5"},
		},
	}

	frame, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{at(0, 0), at(0, 30), at(0, 30), at(1, 0)}, frame.Index)
	level, _ := frame.Column(LevelColumn)
	assert.Equal(t, []float64{1, 2, 2.5, 3}, level.Values)
}

func TestNormalizeExcelSerialDates(t *testing.T) {
	raw := &RawTable{
		Header: []string{"Fecha", "NivelEmbalse"},
		Rows: [][]string{
			{"45292", "1"},
			{"45292.5", "2"},
		},
	}

	frame, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(0, 0), at(12, 0)}, frame.Index)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-01T06:30:00Z", at(6, 30)},
		{"2024-01-01 06:30", at(6, 30)},
		{"2024-01-01", at(0, 0)},
		{"2024/01/01 06:30:00", at(6, 30)},
		{"1/1/2024 6:30", at(6, 30)},
		{"1/1/2024 6:30 PM", at(18, 30)},
		{" 45292.25 ", at(6, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	for _, bad := range []string{
		"", "   ", "mañana", "2024-13-45",
		"NaN", "Inf", "-Inf", "1e300", "-1",
		"1600-01-01", "2300-01-01 00:00:00",
		"15/01/2024 10:00",
	} {
		_, err := ParseTimestamp(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimestampParserOptions(t *testing.T) {
	dayFirst := TimestampParser{DayFirst: true}
	got, err := dayFirst.Parse("15/01/2024 10:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), got)

	got, err = dayFirst.Parse("02/01/2024")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got)

	// ISO dates do not depend on the slash order
	got, err = dayFirst.Parse("2024-01-15 10:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), got)

	mac := TimestampParser{Date1904: true}
	got, err = mac.Parse("43830.25")
	require.NoError(t, err)
	assert.Equal(t, at(6, 0), got)
}

func TestInferDayFirst(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   bool
	}{
		{name: "ambiguous only", values: []string{"01/02/2024", "03/04/2024"}, want: false},
		{name: "day first", values: []string{"01/02/2024", "15/02/2024 10:00"}, want: true},
		{name: "month first", values: []string{"02/15/2024", "15/02/2024"}, want: false},
		{name: "first unambiguous wins", values: []string{"", "13/01/24", "01/13/24"}, want: true},
		{name: "iso dates", values: []string{"2024/01/15", "2024-01-15"}, want: false},
		{name: "serials", values: []string{"45292", "45292.5"}, want: false},
		{name: "empty", values: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferDayFirst(tt.values))
		})
	}
}

func TestNormalizeDayFirstDates(t *testing.T) {
	raw := &RawTable{
		Header: []string{"Fecha", "NivelEmbalse"},
		Rows: [][]string{
			{"01/02/2024 00:00", "1"},
			{"15/02/2024 00:00", "2"},
		},
	}

	frame, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	}, frame.Index)
}

func TestNormalizeMixedSlashOrder(t *testing.T) {
	raw := &RawTable{
		Header: []string{"Fecha", "NivelEmbalse"},
		Rows: [][]string{
			{"02/15/2024", "1"},
			{"15/02/2024", "2"},
		},
	}

	_, err := Normalize(raw)

	var target *DateParseError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 3, target.Row)
}

func TestNormalizeRejectsOutOfRangeDates(t *testing.T) {
	for _, value := range []string{"NaN", "1e300", "1500-06-01"} {
		raw := &RawTable{
			Header: []string{"Fecha", "NivelEmbalse"},
			Rows:   [][]string{{"2024-01-01", "1"}, {value, "2"}},
		}

		_, err := Normalize(raw)
		assert.Equal(t, "date_parse", ErrorKind(err), value)
	}
}

func TestNormalizeDate1904Serials(t *testing.T) {
	raw := &RawTable{
		Header:   []string{"Fecha", "NivelEmbalse"},
		Rows:     [][]string{{"43830", "1"}, {"43830.5", "2"}},
		Date1904: true,
	}

	frame, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(0, 0), at(12, 0)}, frame.Index)
}

func TestFrameSeries(t *testing.T) {
	frame := &Frame{
		Index: []time.Time{at(0, 0), at(0, 15)},
		Columns: []Column{
			{Name: LevelColumn, Values: []float64{1, math.NaN()}, Missing: []bool{false, true}},
			{Name: "Notas", Text: []string{"a", "b"}, Missing: []bool{false, false}},
		},
	}

	s, err := frame.Series(LevelColumn)
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, 1.0, s[0].Value)
	assert.True(t, s[1].Missing())

	_, err = frame.Series("Notas")
	assert.Equal(t, "parse", ErrorKind(err))

	_, err = frame.Series("Caudal")
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{DateColumn, LevelColumn, "Notas"}, missing.Available)
}
