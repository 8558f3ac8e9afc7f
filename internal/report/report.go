// Package report renders a completed inspection as a printable HTML
// document.
package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/erazemk/inspecasa/internal/inspection"
	"github.com/erazemk/inspecasa/internal/model"
	"github.com/erazemk/inspecasa/web"
)

// Renderer renders reports with the embedded report template.
type Renderer struct {
	tmpl *template.Template
}

type page struct {
	Report      *model.Report
	Categories  []inspection.NormalizedCategory
	GeneratedAt time.Time
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"humanize":       Humanize,
		"conditionLabel": conditionLabel,
		"statusColor":    statusColor,
		"conditionColor": conditionColor,
		"formatDate":     formatDate,
		"inc":            func(i int) int { return i + 1 },
	}
}

// NewRenderer parses the report template.
func NewRenderer() (*Renderer, error) {
	src, err := web.Template("report.html")
	if err != nil {
		return nil, fmt.Errorf("reading report template: %w", err)
	}
	tmpl, err := template.New("report.html").Funcs(FuncMap()).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the HTML document for r.
func (rd *Renderer) Render(w io.Writer, r *model.Report, generatedAt time.Time) error {
	err := rd.tmpl.Execute(w, &page{
		Report:      r,
		Categories:  inspection.Normalize(r.Categories),
		GeneratedAt: generatedAt,
	})
	if err != nil {
		return fmt.Errorf("rendering report %s: %w", r.ID, err)
	}
	return nil
}

// Humanize turns a camelCase category key into a title, e.g.
// "masterBedroom" becomes "Master Bedroom".
func Humanize(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case i == 0:
			r = unicode.ToUpper(r)
		case unicode.IsUpper(r):
			b.WriteByte(' ')
		case r == '_' || r == '-':
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func conditionLabel(c string) string {
	if c == "" {
		return "N/A"
	}
	return Humanize(c)
}

func statusColor(status string) template.CSS {
	switch strings.ToLower(status) {
	case "completed":
		return "#4CAF50"
	case model.PropertyStatusInProgress:
		return "#FFC107"
	case model.PropertyStatusPending:
		return "#9E9E9E"
	default:
		return "#2196F3"
	}
}

func conditionColor(condition string) template.CSS {
	switch condition {
	case model.ConditionDamaged:
		return "#D73038"
	case model.ConditionNeedsRepair:
		return "#FF9800"
	default:
		return "#4CAF50"
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("Jan 02, 2006")
}
