package gateway

import (
	"strings"
	"text/template"
)

var generateTmpl = template.Must(template.New("generate").Parse(`You are an expert business plan writer. Generate a comprehensive and investor-ready business plan based on the following information:

Company Name: {{.CompanyName}}
Industry: {{.Industry}}
Mission Statement: {{.MissionStatement}}
Value Proposition: {{.ValueProposition}}
Target Market: {{.TargetMarket}}
Competitive Landscape: {{.CompetitiveLandscape}}
Financial Projections: {{.FinancialProjections}}
Management Team: {{.ManagementTeam}}
Funding Request: {{.FundingRequest}}

Ensure the business plan is well-structured, clear, and persuasive. Include sections such as executive summary, company description, market analysis, organization and management, service or product line, marketing and sales strategy, funding request, and financial projections.

Important: Do not use asterisks (*) for formatting, such as for bold text. Use plain text for emphasis if needed or rely on markdown sectioning for structure. The entire output should be suitable for rendering as markdown.`))

var alterTmpl = template.Must(template.New("alter").Parse(`You are an expert business plan editor. The user will provide a section of their business plan and a command to modify it. Your task is to modify the plan section according to the user's command and return the modified plan section.

Plan Section:
{{.Section}}

User Command:
{{.Command}}`))

var translateTmpl = template.Must(template.New("translate").Parse(`Translate the following business plan into {{.Language}}. Keep every Markdown heading as a heading.

Business Plan:
{{.Plan}}`))

// systemPrompt pins the response to one JSON object carrying field.
func systemPrompt(field string) string {
	return `Respond with a single JSON object of the form {"` + field + `": "<markdown text>"} and nothing else.`
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
