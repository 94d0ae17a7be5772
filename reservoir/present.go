package reservoir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Section groups display surfaces the way the page lays them out.
type Section string

const (
	SectionLoad     Section = "carga"
	SectionNulls    Section = "nulos"
	SectionExplore  Section = "exploratorio"
	SectionResample Section = "resampleo"
	SectionExport   Section = "exportar"
)

// Sections lists the sections in page order.
var Sections = []Section{SectionLoad, SectionNulls, SectionExplore, SectionResample, SectionExport}

// ChartKind selects how a chart is drawn.
type ChartKind string

const (
	ChartLine      ChartKind = "line"
	ChartHistogram ChartKind = "histogram"
	ChartHeatmap   ChartKind = "heatmap"
)

// Table is a grid of preformatted cells.
type Table struct {
	Section Section    `json:"section"`
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Chart is one plotted series. X holds labels (timestamps or bin ranges), Y the
// values; a null Y is a gap.
type Chart struct {
	Section Section   `json:"section"`
	Kind    ChartKind `json:"kind"`
	Title   string    `json:"title"`
	XLabel  string    `json:"x_label"`
	YLabel  string    `json:"y_label"`
	X       []string  `json:"x"`
	Y       []Number  `json:"y"`
}

// Download is a file offered to the user.
type Download struct {
	Section     Section `json:"section"`
	Label       string  `json:"label"`
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
	Content     []byte  `json:"content"`
}

// Renderer is the display collaborator of the pipeline.
type Renderer interface {
	RenderTable(t Table) error
	RenderChart(c Chart) error
	OfferDownload(d Download) error
}

// PreviewRows is the number of rows shown in preview tables.
const PreviewRows = 5

const timestampLayout = "2006-01-02 15:04:05"

// Present hands a finished report to the renderer, section by section. It stops
// at the first rendering error.
func Present(r Renderer, rep *Report) error {
	steps := []func() error{
		func() error { return r.RenderTable(previewTable(rep.Frame)) },
		func() error { return r.RenderTable(describeTable(rep.Summaries)) },
		func() error { return r.RenderTable(missingTable(rep.MissingCounts)) },
		func() error { return r.RenderChart(nullHeatmap(rep.Original, rep.NullMask)) },
		func() error { return r.RenderChart(histogramChart(rep.Histogram)) },
		func() error {
			return r.RenderChart(lineChart(SectionExplore, "Nivel del Embalse (Original)", rep.Original))
		},
		func() error {
			return r.RenderChart(lineChart(SectionResample, "Resampleado cada "+rep.Frequency.Label, rep.Resampled))
		},
		func() error { return r.RenderTable(resampledPreview(rep.Resampled)) },
		func() error {
			return r.OfferDownload(Download{
				Section:     SectionExport,
				Label:       "Descargar Excel",
				Filename:    rep.Artifact.Filename,
				ContentType: rep.Artifact.ContentType,
				Content:     rep.Artifact.Content,
			})
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("render report: %w", err)
		}
	}
	return nil
}

func previewTable(f *Frame) Table {
	t := Table{Section: SectionLoad, Title: "Vista previa de los datos", Columns: []string{DateColumn}}
	for _, c := range f.Columns {
		t.Columns = append(t.Columns, c.Name)
	}
	for i := 0; i < f.Len() && i < PreviewRows; i++ {
		row := []string{FormatTimestamp(f.Index[i])}
		for _, c := range f.Columns {
			if c.Missing[i] {
				row = append(row, "NaN")
				continue
			}
			row = append(row, c.Text[i])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func describeTable(summaries []Summary) Table {
	t := Table{Section: SectionLoad, Title: "Estadísticas básicas", Columns: []string{""}}
	for _, s := range summaries {
		t.Columns = append(t.Columns, s.Column)
	}
	stats := []struct {
		name  string
		value func(Summary) float64
	}{
		{"count", func(s Summary) float64 { return float64(s.Count) }},
		{"mean", func(s Summary) float64 { return float64(s.Mean) }},
		{"std", func(s Summary) float64 { return float64(s.StdDev) }},
		{"min", func(s Summary) float64 { return float64(s.Min) }},
		{"25%", func(s Summary) float64 { return float64(s.Q25) }},
		{"50%", func(s Summary) float64 { return float64(s.Median) }},
		{"75%", func(s Summary) float64 { return float64(s.Q75) }},
		{"max", func(s Summary) float64 { return float64(s.Max) }},
	}
	for _, st := range stats {
		row := []string{st.name}
		for _, s := range summaries {
			row = append(row, FormatValue(st.value(s)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func missingTable(counts []ColumnCount) Table {
	t := Table{Section: SectionNulls, Title: "Valores nulos", Columns: []string{"Columna", "Nulos"}}
	for _, c := range counts {
		t.Rows = append(t.Rows, []string{c.Column, strconv.Itoa(c.Missing)})
	}
	return t
}

func nullHeatmap(s Series, mask []bool) Chart {
	c := Chart{
		Section: SectionNulls,
		Kind:    ChartHeatmap,
		Title:   "Mapa de calor de valores nulos",
		XLabel:  DateColumn,
		YLabel:  LevelColumn,
		X:       make([]string, len(s)),
		Y:       make([]Number, len(mask)),
	}
	for i, p := range s {
		c.X[i] = FormatTimestamp(p.Time)
	}
	for i, missing := range mask {
		if missing {
			c.Y[i] = 1
		}
	}
	return c
}

func histogramChart(h Histogram) Chart {
	c := Chart{
		Section: SectionExplore,
		Kind:    ChartHistogram,
		Title:   "Distribución del Nivel del Embalse",
		XLabel:  LevelColumn,
		YLabel:  "count",
		X:       make([]string, len(h)),
		Y:       make([]Number, len(h)),
	}
	for i, b := range h {
		c.X[i] = fmt.Sprintf("%s – %s", FormatValue(b.Lower), FormatValue(b.Upper))
		c.Y[i] = Number(b.Count)
	}
	return c
}

func lineChart(section Section, title string, s Series) Chart {
	c := Chart{
		Section: section,
		Kind:    ChartLine,
		Title:   title,
		XLabel:  DateColumn,
		YLabel:  LevelColumn,
		X:       make([]string, len(s)),
		Y:       make([]Number, len(s)),
	}
	for i, p := range s {
		c.X[i] = FormatTimestamp(p.Time)
		c.Y[i] = Number(p.Value)
	}
	return c
}

func resampledPreview(s Series) Table {
	t := Table{Section: SectionResample, Title: "Vista previa del resampleo", Columns: []string{DateColumn, LevelColumn}}
	for i := 0; i < len(s) && i < PreviewRows; i++ {
		t.Rows = append(t.Rows, []string{FormatTimestamp(s[i].Time), FormatValue(s[i].Value)})
	}
	return t
}

// FormatTimestamp renders an index timestamp for display.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// FormatValue renders a number with at most six decimals; missing values print as NaN.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
