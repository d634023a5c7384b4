// Package export renders a plan into a downloadable file.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"

	"github.com/starford/planinsta/internal/apperr"
	"github.com/starford/planinsta/internal/models"
)

// Format is an export file format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name; empty selects Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", apperr.ErrValidation, s)
	}
}

// Artifact is a rendered export.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Frontmatter is the YAML header of a Markdown export. Import reads the same keys.
type Frontmatter struct {
	Name        string    `yaml:"name"`
	CompanyName string    `yaml:"company_name,omitempty"`
	Industry    string    `yaml:"industry,omitempty"`
	Language    string    `yaml:"language"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

// Exporter renders plans. It is safe for concurrent use.
type Exporter struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New creates an Exporter.
func New() *Exporter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithXHTML(),
		),
	)
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("id").Matching(bluemonday.SpaceSeparatedTokens).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return &Exporter{md: md, policy: policy}
}

// Export renders p in format f.
func (e *Exporter) Export(p *models.BusinessPlan, f Format) (*Artifact, error) {
	switch f {
	case FormatMarkdown:
		body, err := e.markdown(p)
		if err != nil {
			return nil, err
		}
		return &Artifact{Filename: Filename(p.Name, p.Language, "md"), ContentType: "text/markdown; charset=utf-8", Body: body}, nil
	case FormatHTML:
		body, err := e.HTML(p)
		if err != nil {
			return nil, err
		}
		return &Artifact{Filename: Filename(p.Name, p.Language, "html"), ContentType: "text/html; charset=utf-8", Body: body}, nil
	case FormatJSON:
		body, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("export: encode json: %w", err)
		}
		return &Artifact{Filename: Filename(p.Name, p.Language, "json"), ContentType: "application/json", Body: body}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", apperr.ErrValidation, f)
	}
}

func (e *Exporter) markdown(p *models.BusinessPlan) ([]byte, error) {
	fm, err := yaml.Marshal(Frontmatter{
		Name:        p.Name,
		CompanyName: p.CompanyName,
		Industry:    p.Industry,
		Language:    p.Language,
		UpdatedAt:   p.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("export: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString(p.FullPlanMarkdown)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// HTML renders the plan Markdown as a sanitized standalone document.
func (e *Exporter) HTML(p *models.BusinessPlan) ([]byte, error) {
	var rendered bytes.Buffer
	if err := e.md.Convert([]byte(p.FullPlanMarkdown), &rendered); err != nil {
		return nil, fmt.Errorf("export: render markdown: %w", err)
	}
	body := e.policy.SanitizeBytes(rendered.Bytes())

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<!DOCTYPE html>\n<html lang=\"%s\">\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n",
		html.EscapeString(p.Language), html.EscapeString(p.Name))
	buf.Write(body)
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename builds "{name}_{language}.{ext}" with every whitespace run in the
// name replaced by an underscore, leading and trailing runs included.
func Filename(name, language, ext string) string {
	name = whitespaceRun.ReplaceAllString(name, "_")
	if name == "" {
		name = "business_plan"
	}
	return name + "_" + language + "." + ext
}
