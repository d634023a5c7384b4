// Package parser converts plan Markdown into flat titled sections and back,
// and splits optional YAML frontmatter from imported documents.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/starford/planinsta/internal/models"
)

// Fallback titles used when the input has content outside any heading.
const (
	IntroductionTitle = "Introduction"
	OverviewTitle     = "Business Plan Overview"
)

var headingRe = regexp.MustCompile(`^(#+)\s+(.*)`)

// Heading is a Markdown heading as it appears in the source.
type Heading struct {
	Level int    `json:"level"`
	Title string `json:"title"`
}

// newID is swapped in tests that need stable identifiers.
var newID = uuid.NewString

// ParseSections splits markdown into an ordered list of flat sections.
// Every heading, whatever its level, starts a new section. Content before the
// first heading goes into an "Introduction" section. Input without any heading
// becomes a single overview section holding the trimmed text, and blank input
// yields an empty list. ParseSections never fails.
func ParseSections(markdown string) []models.PlanSection {
	lines := strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n")

	var (
		sections   []models.PlanSection
		current    *models.PlanSection
		buf        []string
		sawHeading bool
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(buf, "\n"))
		sections = append(sections, *current)
		buf = buf[:0]
	}

	for _, line := range lines {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			sawHeading = true
			current = &models.PlanSection{ID: newID(), Title: strings.TrimSpace(m[2])}
			continue
		}
		if current != nil {
			buf = append(buf, line)
			continue
		}
		if len(sections) == 0 && strings.TrimSpace(line) != "" {
			current = &models.PlanSection{ID: newID(), Title: IntroductionTitle}
			buf = append(buf, line)
		}
	}
	flush()

	// Pre-heading text only becomes an Introduction when a real heading follows.
	if !sawHeading || len(sections) == 0 {
		if trimmed := strings.TrimSpace(markdown); trimmed != "" {
			return []models.PlanSection{{ID: newID(), Title: OverviewTitle, Content: trimmed}}
		}
		return []models.PlanSection{}
	}

	out := sections[:0]
	for _, s := range sections {
		if s.Title != "" || s.Content != "" {
			out = append(out, s)
		}
	}
	return out
}

// Headings lists the headings of markdown with their levels, in order.
func Headings(markdown string) []Heading {
	var out []Heading
	for _, line := range strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n") {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			out = append(out, Heading{Level: len(m[1]), Title: strings.TrimSpace(m[2])})
		}
	}
	return out
}

// Serialize renders sections as the plan's full Markdown: each section becomes
// "## {title}\n\n{content}" and sections are separated by blank lines.
func Serialize(sections []models.PlanSection) string {
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = "## " + s.Title + "\n\n" + s.Content
	}
	return strings.Join(parts, "\n\n\n")
}

// SplitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func SplitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: treat the whole input as body.
		return nil, string(data)
	}
	return fm, body
}

// FrontmatterString returns the string value of key, or "".
func FrontmatterString(fm map[string]any, key string) string {
	if fm == nil {
		return ""
	}
	if s, ok := fm[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
