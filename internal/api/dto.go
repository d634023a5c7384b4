package api

import (
	"time"

	"github.com/starford/planinsta/internal/models"
	"github.com/starford/planinsta/internal/parser"
	"github.com/starford/planinsta/internal/planservice"
)

// GeneratePlanRequest is the generation form (aliased from the domain layer).
type GeneratePlanRequest = planservice.GenerateForm

// ImportPlanRequest creates a plan from Markdown (aliased from the domain layer).
type ImportPlanRequest = planservice.ImportInput

// PlanView is a plan as shown to the caller (aliased from the domain layer).
type PlanView = planservice.View

// PlanStatus reports in-flight work (aliased from the domain layer).
type PlanStatus = planservice.Status

// UpdateSectionRequest is the request body for a manual section edit.
type UpdateSectionRequest struct {
	Content string `json:"content" example:"Revised executive summary." validate:"required"`
}

// AlterSectionRequest is the request body for an AI-assisted section edit.
type AlterSectionRequest struct {
	Command string `json:"command" example:"Make it more concise" validate:"required"`
}

// TranslateRequest is the request body for a translation.
type TranslateRequest struct {
	Language string `json:"language" example:"es" validate:"required"`
}

// ParseRequest is the request body for a Markdown preview parse.
type ParseRequest struct {
	Markdown string `json:"markdown" example:"## Summary\n\nText" validate:"required"`
}

// ParseResponse lists the sections found in a Markdown body and the source
// headings with their levels. Sections are flat whatever the level.
type ParseResponse struct {
	Sections []models.PlanSection `json:"sections" validate:"required"`
	Headings []parser.Heading     `json:"headings"`
}

// PlanSummary is a lightweight item in a plan listing.
type PlanSummary struct {
	ID          string    `json:"id" validate:"required"`
	Name        string    `json:"name" example:"Coffee Plan" validate:"required"`
	CompanyName string    `json:"companyName" example:"Bean Co"`
	Industry    string    `json:"industry" example:"Cafe/Restaurant"`
	Language    string    `json:"language" example:"en" validate:"required"`
	Sections    int       `json:"sections" example:"8"`
	Revision    int64     `json:"revision" example:"3"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlanListResponse wraps a plan listing.
type PlanListResponse struct {
	Plans []PlanSummary `json:"plans" validate:"required"`
	Total int           `json:"total" example:"2" validate:"required"`
}

// ThemeRequest is the request and response body of the theme preference.
type ThemeRequest struct {
	Theme string `json:"theme" example:"dark" validate:"required"`
}

// TokenRequest asks for a tier token.
type TokenRequest struct {
	Tier string `json:"tier" example:"paid" validate:"required"`
}

// TokenResponse carries a signed tier token.
type TokenResponse struct {
	Token     string     `json:"token" validate:"required"`
	Tier      string     `json:"tier" example:"paid" validate:"required"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func summarize(p *models.BusinessPlan) PlanSummary {
	return PlanSummary{
		ID:          p.ID,
		Name:        p.Name,
		CompanyName: p.CompanyName,
		Industry:    p.Industry,
		Language:    p.Language,
		Sections:    len(p.Sections),
		Revision:    p.Revision,
		UpdatedAt:   p.UpdatedAt,
	}
}
