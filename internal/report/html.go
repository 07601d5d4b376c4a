package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/report.html
var templateFS embed.FS

var page = template.Must(template.New("report.html").Funcs(template.FuncMap{
	"datetime": func(r Report) string { return r.GeneratedAt.Format("02/01/2006 15:04:05") },
}).ParseFS(templateFS, "templates/report.html"))

// RenderHTML writes the printable report page.
func RenderHTML(w io.Writer, r Report) error {
	if err := page.Execute(w, r); err != nil {
		return fmt.Errorf("render report %s: %w", r.ID, err)
	}
	return nil
}
