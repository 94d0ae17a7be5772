package dashboard

import (
	"encoding/base64"
	"fmt"

	"github.com/a-h/templ"

	"github.com/kaireichart/embalse-analysis/reservoir"
)

//go:generate go tool templ generate

var sectionTitles = map[reservoir.Section]string{
	reservoir.SectionLoad:     "1. Carga y estructura de los datos",
	reservoir.SectionNulls:    "2. Análisis de valores nulos",
	reservoir.SectionExplore:  "3. Análisis exploratorio",
	reservoir.SectionResample: "4. Resampleo",
	reservoir.SectionExport:   "5. Exportar",
}

func sourceLine(rep *reservoir.Report) string {
	return fmt.Sprintf("%s · %d filas", rep.Filename, rep.Frame.Len())
}

// downloadURL inlines the file as a data URL.
func downloadURL(d reservoir.Download) templ.SafeURL {
	return templ.SafeURL("data:" + d.ContentType + ";base64," + base64.StdEncoding.EncodeToString(d.Content))
}
