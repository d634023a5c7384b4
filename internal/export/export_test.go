package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/planinsta/internal/apperr"
	"github.com/starford/planinsta/internal/models"
	"github.com/starford/planinsta/internal/parser"
)

func samplePlan() *models.BusinessPlan {
	return &models.BusinessPlan{
		ID:               "p1",
		Name:             "My  Coffee\tShop",
		CompanyName:      "Bean Co",
		Language:         "es",
		FullPlanMarkdown: "## Resumen\n\nHola <script>alert(1)</script> mundo.\n\n\n## Mercado\n\nGrande.",
		UpdatedAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFilename(t *testing.T) {
	cases := []struct{ name, lang, ext, want string }{
		{"My Coffee Shop", "en", "md", "My_Coffee_Shop_en.md"},
		{"Tabs\tand\n lines", "fr", "html", "Tabs_and_lines_fr.html"},
		{" My Plan ", "en", "md", "_My_Plan__en.md"},
		{"", "de", "json", "business_plan_de.json"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Filename(tc.name, tc.lang, tc.ext))
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatMarkdown, "md": FormatMarkdown, "HTML": FormatHTML, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestExport_Markdown(t *testing.T) {
	a, err := New().Export(samplePlan(), FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "My_Coffee_Shop_es.md", a.Filename)
	assert.Contains(t, a.ContentType, "text/markdown")

	fm, body := parser.SplitFrontmatter(a.Body)
	assert.Equal(t, "My  Coffee\tShop", parser.FrontmatterString(fm, "name"))
	assert.Equal(t, "es", parser.FrontmatterString(fm, "language"))
	assert.Equal(t, "Bean Co", parser.FrontmatterString(fm, "company_name"))

	sections := parser.ParseSections(body)
	require.Len(t, sections, 2)
	assert.Equal(t, "Resumen", sections[0].Title)
	assert.Equal(t, "Mercado", sections[1].Title)
}

func TestExport_HTMLSanitized(t *testing.T) {
	a, err := New().Export(samplePlan(), FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "My_Coffee_Shop_es.html", a.Filename)

	doc := string(a.Body)
	assert.Contains(t, doc, `<html lang="es">`)
	assert.Contains(t, doc, `<h2 id="resumen">Resumen</h2>`)
	assert.NotContains(t, doc, "<script>")
	assert.True(t, strings.HasSuffix(doc, "</html>\n"))
}

func TestExport_JSON(t *testing.T) {
	a, err := New().Export(samplePlan(), FormatJSON)
	require.NoError(t, err)
	var got models.BusinessPlan
	require.NoError(t, json.Unmarshal(a.Body, &got))
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "application/json", a.ContentType)
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := New().Export(samplePlan(), Format("pdf"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
