package report

import (
	_ "embed"
	"html/template"
	"io"
	"path/filepath"
	"time"
)

//go:embed templates/report.html.tmpl
var reportTemplate string

// HTMLFormatter renders a standalone page linking the diff images
type HTMLFormatter struct {
	tmpl *template.Template
}

// NewHTMLFormatter parses the embedded template
func NewHTMLFormatter() (*HTMLFormatter, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"percent": Percent,
		"inc":     func(i int) int { return i + 1 },
		"base":    filepath.Base,
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "N/A"
			}
			return t.Format(time.RFC3339)
		},
	}).Parse(reportTemplate)
	if err != nil {
		return nil, err
	}
	return &HTMLFormatter{tmpl: tmpl}, nil
}

func (f *HTMLFormatter) Format(w io.Writer, r *Report) error {
	return f.tmpl.Execute(w, r)
}
