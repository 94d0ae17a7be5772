package reservoir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Textual layouts accepted for Fecha regardless of field order.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
}

var monthFirstLayouts = []string{
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"1/2/06 15:04:05",
	"1/2/06 15:04",
	"1/2/06",
}

var dayFirstLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006 3:04:05 PM",
	"2/1/2006 3:04 PM",
	"2/1/2006",
	"2/1/06 15:04:05",
	"2/1/06 15:04",
	"2/1/06",
}

// Bounds of a nanosecond timestamp index. Anything outside is a typo, not a reading.
var (
	MinTimestamp = time.Date(1677, 9, 21, 0, 12, 44, 0, time.UTC)
	MaxTimestamp = time.Date(2262, 4, 11, 23, 47, 16, 0, time.UTC)
)

// maxSerial is 9999-12-31 in the 1900 date system.
const maxSerial = 2958465

// TimestampParser reads Fecha cells of one column.
type TimestampParser struct {
	// Date1904 selects the 1904 date system for numeric cells.
	Date1904 bool
	// DayFirst reads slash dates as day/month/year.
	DayFirst bool
}

// ParseTimestamp reads a Fecha cell with the default parser: 1900 serials and
// month-first slash dates.
func ParseTimestamp(s string) (time.Time, error) {
	return TimestampParser{}.Parse(s)
}

// Parse reads a Fecha cell. Numeric cells are Excel serial dates; everything else
// must match one of the textual layouts. The result is always UTC.
func (p TimestampParser) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return p.fromSerial(serial)
	}

	layouts := monthFirstLayouts
	if p.DayFirst {
		layouts = dayFirstLayouts
	}
	for _, set := range [][]string{isoLayouts, layouts} {
		for _, layout := range set {
			if t, err := time.Parse(layout, s); err == nil {
				return checkBounds(t.UTC())
			}
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func (p TimestampParser) fromSerial(serial float64) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 || serial > maxSerial {
		return time.Time{}, fmt.Errorf("serial date %v out of range", serial)
	}
	t, err := excelize.ExcelDateToTime(serial, p.Date1904)
	if err != nil {
		return time.Time{}, err
	}
	// Serial fractions carry float noise well below a millisecond.
	return checkBounds(t.UTC().Round(time.Millisecond))
}

func checkBounds(t time.Time) (time.Time, error) {
	if t.Before(MinTimestamp) || t.After(MaxTimestamp) {
		return time.Time{}, fmt.Errorf("timestamp %s outside %d-%d", t.Format(time.RFC3339), MinTimestamp.Year(), MaxTimestamp.Year())
	}
	return t, nil
}

// InferDayFirst decides the field order of slash dates in a column. The first
// value whose leading field cannot be a month makes the column day first, the
// first whose second field cannot be a month makes it month first. A column of
// ambiguous values is month first.
func InferDayFirst(values []string) bool {
	for _, v := range values {
		first, second, ok := slashFields(v)
		if !ok {
			continue
		}
		switch {
		case first > 12 && second <= 12:
			return true
		case second > 12 && first <= 12:
			return false
		}
	}
	return false
}

// slashFields returns the two leading fields of a d/m/y or m/d/y date.
func slashFields(s string) (int, int, bool) {
	a, rest, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || len(a) > 2 {
		return 0, 0, false
	}
	b, _, ok := strings.Cut(rest, "/")
	if !ok || len(b) > 2 {
		return 0, 0, false
	}
	first, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, false
	}
	second, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, false
	}
	return first, second, true
}
