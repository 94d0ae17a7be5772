package reservoir

import (
	"math"
	"sort"
)

// Summary holds the descriptive statistics of one numeric column.
type Summary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Mean   Number `json:"mean"`
	StdDev Number `json:"std"`
	Min    Number `json:"min"`
	Q25    Number `json:"q25"`
	Median Number `json:"median"`
	Q75    Number `json:"q75"`
	Max    Number `json:"max"`
}

// Describe summarises every numeric column of the frame, ignoring missing cells.
func Describe(f *Frame) []Summary {
	var out []Summary
	for _, c := range f.Columns {
		if !c.Numeric() {
			continue
		}
		data := make([]float64, 0, len(c.Values))
		for _, v := range c.Values {
			if !math.IsNaN(v) {
				data = append(data, v)
			}
		}
		s := describeValues(data)
		s.Column = c.Name
		out = append(out, s)
	}
	return out
}

// describeValues computes count, mean, sample standard deviation, quartiles and
// extremes. Quartiles interpolate linearly between the closest ranks.
func describeValues(data []float64) Summary {
	nan := Number(math.NaN())
	count := len(data)
	if count == 0 {
		return Summary{Mean: nan, StdDev: nan, Min: nan, Q25: nan, Median: nan, Q75: nan, Max: nan}
	}

	sorted := make([]float64, count)
	copy(sorted, data)
	sort.Float64s(sorted)

	sum := 0.0
	for _, value := range data {
		sum += value
	}
	mean := sum / float64(count)

	variance := math.NaN()
	if count > 1 {
		sumSquaredDiff := 0.0
		for _, value := range data {
			diff := value - mean
			sumSquaredDiff += diff * diff
		}
		variance = sumSquaredDiff / float64(count-1)
	}

	return Summary{
		Count:  count,
		Mean:   Number(mean),
		StdDev: Number(math.Sqrt(variance)),
		Min:    Number(sorted[0]),
		Q25:    Number(quantile(sorted, 0.25)),
		Median: Number(quantile(sorted, 0.5)),
		Q75:    Number(quantile(sorted, 0.75)),
		Max:    Number(sorted[count-1]),
	}
}

// quantile expects sorted, non-empty input.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Bin is one histogram bar. Lower is inclusive, Upper exclusive except for the last bin.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is a value distribution over equal-width bins.
type Histogram []Bin

// HistogramBins is the number of bins used for the level distribution.
const HistogramBins = 50

// NewHistogram spreads the values over n equal-width bins between their minimum
// and maximum. When all values are equal the bins span one unit around them.
func NewHistogram(values []float64, n int) Histogram {
	if len(values) == 0 || n <= 0 {
		return Histogram{}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	width := (hi - lo) / float64(n)
	h := make(Histogram, n)
	for i := range h {
		h[i].Lower = lo + float64(i)*width
		h[i].Upper = lo + float64(i+1)*width
	}
	h[n-1].Upper = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		h[i].Count++
	}
	return h
}
