package planservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/planinsta/internal/apperr"
	"github.com/starford/planinsta/internal/gateway"
	"github.com/starford/planinsta/internal/models"
	"github.com/starford/planinsta/internal/parser"
	"github.com/starford/planinsta/internal/seed"
)

// GenerateForm is the plan generation form.
type GenerateForm struct {
	PlanName             string `json:"planName"`
	CompanyName          string `json:"companyName"`
	IndustryTemplateID   string `json:"industryTemplateId"`
	MissionStatement     string `json:"missionStatement"`
	ValueProposition     string `json:"valueProposition"`
	TargetMarket         string `json:"targetMarket"`
	CompetitiveLandscape string `json:"competitiveLandscape"`
	FinancialProjections string `json:"financialProjections"`
	ManagementTeam       string `json:"managementTeam"`
	FundingRequest       string `json:"fundingRequest"`
}

// Validate checks the form the way the generation page does.
func (f GenerateForm) Validate() error {
	narrative := []validation.Rule{validation.Required, validation.RuneLength(10, 500)}
	return validation.ValidateStruct(&f,
		validation.Field(&f.PlanName, validation.Required, validation.RuneLength(3, 0)),
		validation.Field(&f.CompanyName, validation.Required, validation.RuneLength(2, 0)),
		validation.Field(&f.IndustryTemplateID, validation.Required, validation.By(knownTemplate)),
		validation.Field(&f.MissionStatement, narrative...),
		validation.Field(&f.ValueProposition, narrative...),
		validation.Field(&f.TargetMarket, narrative...),
		validation.Field(&f.CompetitiveLandscape, narrative...),
		validation.Field(&f.FinancialProjections, narrative...),
		validation.Field(&f.ManagementTeam, narrative...),
		validation.Field(&f.FundingRequest, narrative...),
	)
}

func knownTemplate(v interface{}) error {
	id, _ := v.(string)
	if _, ok := seed.Industry(id); !ok {
		return fmt.Errorf("unknown industry template %q", id)
	}
	return nil
}

// Generate asks the model for a new plan and stores it.
func (s *Service) Generate(ctx context.Context, form GenerateForm) (*models.BusinessPlan, error) {
	const title = "Generation Failed"
	if err := form.Validate(); err != nil {
		return nil, s.fail("", title, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
	}
	tpl, _ := seed.Industry(form.IndustryTemplateID)
	industry := tpl.PredefinedInputs.Industry
	if industry == "" {
		industry = tpl.ID
	}

	markdown, err := s.ai.GeneratePlan(ctx, gateway.GeneratePlanInput{
		CompanyName:          form.CompanyName,
		Industry:             industry,
		MissionStatement:     form.MissionStatement,
		ValueProposition:     form.ValueProposition,
		TargetMarket:         form.TargetMarket,
		CompetitiveLandscape: form.CompetitiveLandscape,
		FinancialProjections: form.FinancialProjections,
		ManagementTeam:       form.ManagementTeam,
		FundingRequest:       form.FundingRequest,
	})
	if err != nil {
		return nil, s.fail("", title, err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sections := parser.ParseSections(markdown)
	p, err := s.store.Create(ctx, &models.BusinessPlan{
		Name:                 form.PlanName,
		CompanyName:          form.CompanyName,
		Industry:             tpl.Name,
		MissionStatement:     form.MissionStatement,
		ValueProposition:     form.ValueProposition,
		TargetMarket:         form.TargetMarket,
		CompetitiveLandscape: form.CompetitiveLandscape,
		FinancialProjections: form.FinancialProjections,
		ManagementTeam:       form.ManagementTeam,
		FundingRequest:       form.FundingRequest,
		Language:             models.DefaultLanguage,
		Sections:             sections,
		FullPlanMarkdown:     parser.Serialize(sections),
	})
	if err != nil {
		return nil, s.fail("", title, err)
	}
	s.logger.Info("plan generated", slog.String("plan_id", p.ID), slog.Int("sections", len(p.Sections)))
	s.events.PublishPlanEvent(EventCreated, p.ID)
	s.notify(models.NoticeSuccess, p.ID, "Success!", "Your new business plan has been generated.")
	return p, nil
}

// ImportInput creates a plan from existing Markdown. Empty fields are filled
// from the document's YAML frontmatter (name, company_name, industry, language).
type ImportInput struct {
	Markdown    string `json:"markdown"`
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
	Industry    string `json:"industry"`
	Language    string `json:"language"`
}

// Import stores a plan parsed from Markdown without calling the model.
func (s *Service) Import(ctx context.Context, in ImportInput) (*models.BusinessPlan, error) {
	const title = "Import Failed"
	fm, body := parser.SplitFrontmatter([]byte(in.Markdown))
	pick := func(v, key string) string {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
		return parser.FrontmatterString(fm, key)
	}
	name := pick(in.Name, "name")
	lang := pick(in.Language, "language")
	if lang == "" {
		lang = models.DefaultLanguage
	}

	body = strings.TrimSpace(body)
	sections := parser.ParseSections(body)
	switch {
	case name == "":
		return nil, s.fail("", title, fmt.Errorf("%w: plan name is required", apperr.ErrValidation))
	case len(sections) == 0:
		return nil, s.fail("", title, fmt.Errorf("%w: document has no content", apperr.ErrValidation))
	}
	l, ok := seed.LookupLanguage(lang)
	if !ok {
		return nil, s.fail("", title, fmt.Errorf("%w: unsupported language %q", apperr.ErrValidation, lang))
	}

	p, err := s.store.Create(ctx, &models.BusinessPlan{
		Name:             name,
		CompanyName:      pick(in.CompanyName, "company_name"),
		Industry:         pick(in.Industry, "industry"),
		Language:         l.Code,
		Sections:         sections,
		FullPlanMarkdown: parser.Serialize(sections),
	})
	if err != nil {
		return nil, s.fail("", title, err)
	}
	s.events.PublishPlanEvent(EventCreated, p.ID)
	s.notify(models.NoticeSuccess, p.ID, "Plan Imported", fmt.Sprintf("%q was imported with %d sections.", p.Name, len(p.Sections)))
	return p, nil
}
