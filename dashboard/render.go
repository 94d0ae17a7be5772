package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/a-h/templ"

	"github.com/kaireichart/embalse-analysis/reservoir"
)

var errNoFilename = errors.New("download has no filename")

// pageRenderer collects the report surfaces as HTML components, grouped by section.
type pageRenderer struct {
	sections map[reservoir.Section][]templ.Component
}

func newPageRenderer() *pageRenderer {
	return &pageRenderer{sections: make(map[reservoir.Section][]templ.Component)}
}

func (p *pageRenderer) RenderTable(t reservoir.Table) error {
	p.sections[t.Section] = append(p.sections[t.Section], tableView(t))
	return nil
}

func (p *pageRenderer) RenderChart(c reservoir.Chart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode chart %q: %w", c.Title, err)
	}
	p.sections[c.Section] = append(p.sections[c.Section], chartView(c.Title, data))
	return nil
}

func (p *pageRenderer) OfferDownload(d reservoir.Download) error {
	if d.Filename == "" {
		return errNoFilename
	}
	p.sections[d.Section] = append(p.sections[d.Section], downloadView(d))
	return nil
}

// Component lays the collected sections out in page order.
func (p *pageRenderer) Component(rep *reservoir.Report) templ.Component {
	return reportView(rep, p.sections)
}

type apiItem struct {
	Type     string              `json:"type"`
	Table    *reservoir.Table    `json:"table,omitempty"`
	Chart    *reservoir.Chart    `json:"chart,omitempty"`
	Download *reservoir.Download `json:"download,omitempty"`
}

// apiRenderer collects the report surfaces for the JSON API.
type apiRenderer struct {
	items []apiItem
}

func (a *apiRenderer) RenderTable(t reservoir.Table) error {
	a.items = append(a.items, apiItem{Type: "table", Table: &t})
	return nil
}

func (a *apiRenderer) RenderChart(c reservoir.Chart) error {
	a.items = append(a.items, apiItem{Type: "chart", Chart: &c})
	return nil
}

func (a *apiRenderer) OfferDownload(d reservoir.Download) error {
	if d.Filename == "" {
		return errNoFilename
	}
	a.items = append(a.items, apiItem{Type: "download", Download: &d})
	return nil
}
