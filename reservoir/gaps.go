package reservoir

import "slices"

// ColumnCount is the number of missing cells in one column.
type ColumnCount struct {
	Column  string `json:"column"`
	Missing int    `json:"missing"`
	Total   int    `json:"total"`
}

// MissingCounts reports the missing cells of every non-index column, in column order.
func MissingCounts(f *Frame) []ColumnCount {
	counts := make([]ColumnCount, 0, len(f.Columns))
	for _, c := range f.Columns {
		n := 0
		for _, m := range c.Missing {
			if m {
				n++
			}
		}
		counts = append(counts, ColumnCount{Column: c.Name, Missing: n, Total: len(c.Missing)})
	}
	return counts
}

// ValidSpan drops the rows before the first present reading and keeps everything
// after it, missing readings included. A series with no present reading yields an
// empty span.
func ValidSpan(s Series) Series {
	for i, p := range s {
		if !p.Missing() {
			return slices.Clone(s[i:])
		}
	}
	return Series{}
}

// NullMask marks, row by row, whether the reading is missing.
func NullMask(s Series) []bool {
	mask := make([]bool, len(s))
	for i, p := range s {
		mask[i] = p.Missing()
	}
	return mask
}
