package reservoir

import (
	"strings"
	"time"
)

// Frequency is one of the fixed resampling widths offered to the user.
type Frequency struct {
	Label string        `json:"label"`
	Code  string        `json:"code"`
	Width time.Duration `json:"width"`
}

// Frequencies lists the selectable widths in display order. The first entry is the default.
var Frequencies = []Frequency{
	{Label: "15 minutos", Code: "15T", Width: 15 * time.Minute},
	{Label: "30 minutos", Code: "30T", Width: 30 * time.Minute},
	{Label: "1 hora", Code: "H", Width: time.Hour},
	{Label: "1 día", Code: "D", Width: 24 * time.Hour},
}

// DefaultFrequency is preselected when a request carries none.
var DefaultFrequency = Frequencies[0]

// ParseFrequency resolves a display label (or its short code) to a Frequency.
func ParseFrequency(label string) (Frequency, error) {
	l := strings.TrimSpace(label)
	for _, f := range Frequencies {
		if l == f.Label || strings.EqualFold(l, f.Code) {
			return f, nil
		}
	}
	return Frequency{}, &UnsupportedFrequencyError{Label: label}
}

// FrequencyLabels returns the display labels in order.
func FrequencyLabels() []string {
	labels := make([]string, len(Frequencies))
	for i, f := range Frequencies {
		labels[i] = f.Label
	}
	return labels
}
