package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/inspecasa/internal/model"
)

func TestHumanize(t *testing.T) {
	tests := map[string]string{
		"masterBedroom": "Master Bedroom",
		"kitchen":       "Kitchen",
		"needsRepair":   "Needs Repair",
		"living_room":   "Living room",
		"":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Humanize(in), "Humanize(%q)", in)
	}
}

func sampleReport() *model.Report {
	at := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	return &model.Report{
		ID:               "r1",
		Name:             "Seaside <flat>",
		Address:          "1 Harbour Road",
		Status:           model.PropertyStatusCompleted,
		OverallCondition: model.ConditionNeedsRepair,
		Images:           []string{"https://cdn.example.com/front.jpg"},
		Categories: []model.CategoryGroup{
			{
				"masterBedroom": {Subcategories: []model.Subcategory{
					{Name: "window", InspectionStatus: model.ConditionDamaged, Comment: "cracked", Images: []string{"https://cdn.example.com/w.jpg"}},
				}},
				"bathroom": {Subcategories: []model.Subcategory{
					{Name: "sink", InspectionStatus: model.ConditionGood, Comment: "fine"},
				}},
			},
		},
		UpdateAt:             at,
		LastDateOfInspection: at,
	}
}

func TestRenderUnsignedReport(t *testing.T) {
	rd, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rd.Render(&buf, sampleReport(), time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)))
	out := buf.String()

	assert.Contains(t, out, "Property Inspection Report")
	assert.Contains(t, out, "Seaside &lt;flat&gt;")
	assert.Contains(t, out, "Master Bedroom")
	assert.Contains(t, out, "Needs Repair")
	assert.Contains(t, out, "cracked")
	assert.Contains(t, out, "https://cdn.example.com/w.jpg")
	assert.Contains(t, out, "Mar 14, 2026")
	assert.Contains(t, out, "2026 Property Inspection System")
	assert.NotContains(t, out, "Inspector&#39;s Signature")
	assert.NotContains(t, out, "Inspector's Signature")

	// Categories inside a group are listed alphabetically.
	assert.Less(t, strings.Index(out, "Bathroom"), strings.Index(out, "Master Bedroom"))
}

func TestRenderSignedReport(t *testing.T) {
	rd, err := NewRenderer()
	require.NoError(t, err)

	r := sampleReport()
	r.Signature = &model.Signature{
		URL:        "https://cdn.example.com/sig.png",
		Timestamp:  r.UpdateAt,
		SignedDate: "Mar 14, 2026, 10:30 AM",
	}

	var buf bytes.Buffer
	require.NoError(t, rd.Render(&buf, r, time.Now()))
	out := buf.String()

	assert.Contains(t, out, "https://cdn.example.com/sig.png")
	assert.Contains(t, out, "Mar 14, 2026, 10:30 AM")
}

func TestRenderEmptyReport(t *testing.T) {
	rd, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rd.Render(&buf, &model.Report{ID: "empty"}, time.Now()))
	assert.Contains(t, buf.String(), "No inspection categories found")
	assert.Contains(t, buf.String(), "No property images available")
}
