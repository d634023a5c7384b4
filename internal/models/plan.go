// Package models defines the domain types for PlanInsta.
package models

import "time"

// DefaultLanguage is the language every generated plan starts in.
const DefaultLanguage = "en"

// PlanSection is one titled block of a plan, delimited by a Markdown heading.
type PlanSection struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// BusinessPlan is a stored plan record.
//
// FullPlanMarkdown is derived from Sections and the two never diverge after a
// successful mutation. Revision increments on every mutation and is the
// optimistic-locking token exposed as the HTTP ETag.
type BusinessPlan struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	CompanyName          string        `json:"companyName"`
	Industry             string        `json:"industry"`
	MissionStatement     string        `json:"missionStatement"`
	ValueProposition     string        `json:"valueProposition"`
	TargetMarket         string        `json:"targetMarket"`
	CompetitiveLandscape string        `json:"competitiveLandscape"`
	FinancialProjections string        `json:"financialProjections"`
	ManagementTeam       string        `json:"managementTeam"`
	FundingRequest       string        `json:"fundingRequest"`
	Language             string        `json:"language"`
	Sections             []PlanSection `json:"sections"`
	FullPlanMarkdown     string        `json:"fullPlanMarkdown"`
	Revision             int64         `json:"revision"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate sections without touching the original.
func (p *BusinessPlan) Clone() *BusinessPlan {
	cp := *p
	cp.Sections = append([]PlanSection(nil), p.Sections...)
	return &cp
}

// SectionIndex returns the position of the section with the given id, or -1.
func (p *BusinessPlan) SectionIndex(id string) int {
	for i, s := range p.Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// PredefinedInputs are the form prefill values of an industry template.
type PredefinedInputs struct {
	Industry             string `json:"industry,omitempty" yaml:"industry"`
	MissionStatement     string `json:"missionStatement,omitempty" yaml:"mission_statement"`
	ValueProposition     string `json:"valueProposition,omitempty" yaml:"value_proposition"`
	TargetMarket         string `json:"targetMarket,omitempty" yaml:"target_market"`
	CompetitiveLandscape string `json:"competitiveLandscape,omitempty" yaml:"competitive_landscape"`
	FinancialProjections string `json:"financialProjections,omitempty" yaml:"financial_projections"`
	ManagementTeam       string `json:"managementTeam,omitempty" yaml:"management_team"`
	FundingRequest       string `json:"fundingRequest,omitempty" yaml:"funding_request"`
}

// IndustryTemplate is read-only seed data for the generation form.
type IndustryTemplate struct {
	ID               string           `json:"id" yaml:"id"`
	Name             string           `json:"name" yaml:"name"`
	Description      string           `json:"description" yaml:"description"`
	PredefinedInputs PredefinedInputs `json:"predefinedInputs" yaml:"predefined_inputs"`
}

// Language is a supported plan language.
type Language struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}
