package report

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/banshee-data/spm.report/internal/security"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"num0":  func(v float64) string { return fmt.Sprintf("%.0f", v) },
	"num1":  func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"num2":  func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"clock": func(t time.Time) string { return t.Format(timeLayout) },
}).ParseFS(templateFS, "templates/report.html.tmpl"))

type htmlData struct {
	Report *Report
	Chart  template.URL
}

// RenderHTML writes rep as a standalone HTML document. A non-empty chartPNG
// is inlined as a data URI so the file has no external references.
func RenderHTML(w io.Writer, rep *Report, chartPNG []byte) error {
	data := htmlData{Report: rep}
	if len(chartPNG) > 0 {
		data.Chart = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(chartPNG))
	}
	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// Filename returns the download name for rep with the given extension,
// e.g. SPM_Report_22657.html. Characters unsafe in a file name are replaced.
func Filename(rep *Report, ext string) string {
	loco := security.SanitizeFilename(rep.Trip.LocoNumber)
	name := "SPM_Report"
	if loco != "" {
		name += "_" + loco
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}
