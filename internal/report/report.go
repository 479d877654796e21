// Package report renders self-contained HTML documents for cases and the
// CSV case export.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/starford/casedesk/internal/models"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"longDate": longDate,
	"stamp":    func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"money":    func(f float64) string { return fmt.Sprintf("$%.2f", f) },
	"orNA": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "N/A"
		}
		return s
	},
}).ParseFS(templateFS, "templates/*.gohtml"))

func render(name string, data any) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := templates.ExecuteTemplate(buf, name, data); err != nil {
		return nil, fmt.Errorf("report: execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// longDate formats a YYYY-MM-DD date as "March 01, 2024". Other input is
// returned unchanged.
func longDate(s string) string {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("January 02, 2006")
}

// Bar is one row of a CSS bar chart.
type Bar struct {
	Label   string
	Count   int
	Percent float64
}

const maxBars = 6

// bars turns counts into at most six bars, largest first, scaled to the
// largest count.
func bars(counts map[string]int) []Bar {
	out := make([]Bar, 0, len(counts))
	top := 0
	for label, n := range counts {
		out = append(out, Bar{Label: label, Count: n})
		top = max(top, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > maxBars {
		out = out[:maxBars]
	}
	for i := range out {
		if top > 0 {
			out[i].Percent = float64(out[i].Count) / float64(top) * 100
		}
	}
	return out
}

func officerNames(officers []models.Officer) map[string]string {
	out := make(map[string]string, len(officers))
	for _, o := range officers {
		out[o.ID] = o.Name
	}
	return out
}
