package reservoir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	raw := &RawTable{
		Header: []string{"Fecha", "NivelEmbalse", "Notas"},
		Rows: [][]string{
			{"2024-01-01 00:00:00", "10", "a"},
			{"2024-01-01 00:15:00", "", "b"},
			{"2024-01-01 00:30:00", "20", "c"},
			{"2024-01-01 00:45:00", "30", "d"},
		},
	}
	frame, err := Normalize(raw)
	require.NoError(t, err)

	summaries := Describe(frame)
	require.Len(t, summaries, 1, "non-numeric columns are skipped")

	s := summaries[0]
	assert.Equal(t, LevelColumn, s.Column)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 20, float64(s.Mean), 1e-12)
	assert.InDelta(t, 10, float64(s.StdDev), 1e-12)
	assert.Equal(t, Number(10), s.Min)
	assert.Equal(t, Number(15), s.Q25)
	assert.Equal(t, Number(20), s.Median)
	assert.Equal(t, Number(25), s.Q75)
	assert.Equal(t, Number(30), s.Max)
}

func TestDescribeValuesEdges(t *testing.T) {
	one := describeValues([]float64{7})
	assert.Equal(t, 1, one.Count)
	assert.Equal(t, Number(7), one.Mean)
	assert.True(t, math.IsNaN(float64(one.StdDev)))
	assert.Equal(t, Number(7), one.Median)

	none := describeValues(nil)
	assert.Equal(t, 0, none.Count)
	assert.True(t, math.IsNaN(float64(none.Mean)))
	assert.True(t, math.IsNaN(float64(none.Max)))
}

func TestQuantileInterpolates(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, quantile(sorted, 0.25), 1e-12)
	assert.InDelta(t, 2.5, quantile(sorted, 0.5), 1e-12)
	assert.InDelta(t, 3.25, quantile(sorted, 0.75), 1e-12)
	assert.Equal(t, 4.0, quantile(sorted, 1))
}

func TestNewHistogram(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	h := NewHistogram(values, 5)
	require.Len(t, h, 5)
	assert.Equal(t, 0.0, h[0].Lower)
	assert.Equal(t, 9.0, h[4].Upper)

	total := 0
	for _, b := range h {
		assert.Equal(t, 2, b.Count)
		total += b.Count
	}
	assert.Equal(t, len(values), total)
}

func TestNewHistogramConstantValues(t *testing.T) {
	h := NewHistogram([]float64{5, 5, 5}, 4)
	require.Len(t, h, 4)
	assert.Equal(t, 4.5, h[0].Lower)
	assert.Equal(t, 5.5, h[3].Upper)
	assert.Equal(t, 3, h[2].Count)
}

func TestNewHistogramEmpty(t *testing.T) {
	assert.Empty(t, NewHistogram(nil, HistogramBins))
	assert.Empty(t, NewHistogram([]float64{1}, 0))
}

func TestNumberMarshalJSON(t *testing.T) {
	b, err := Number(math.NaN()).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	b, err = Number(12.5).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "12.5", string(b))

	b, err = Point{Time: at(0, 0), Value: math.NaN()}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"time":"2024-01-01T00:00:00Z","value":null}`, string(b))
}
