package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/planinsta/internal/access"
	"github.com/starford/planinsta/internal/planservice"
	"github.com/starford/planinsta/internal/prefs"
)

// Deps are the collaborators of the API.
type Deps struct {
	Plans  *planservice.Service
	Theme  *prefs.Theme
	Issuer *access.Issuer
	// DefaultTier applies to requests without a token.
	DefaultTier access.Tier
	// DemoTokens enables POST /access/token, which signs a token for any tier.
	DemoTokens bool
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Plans, d.Theme)

	r := chi.NewRouter()
	r.Use(TierMiddleware(d.Issuer, d.DefaultTier))

	// Seed data.
	r.Get("/industries", h.ListIndustries)
	r.Get("/languages", h.ListLanguages)

	// Plans.
	r.Get("/plans", h.ListPlans)
	r.Post("/plans", h.GeneratePlan)
	r.Post("/plans/import", h.ImportPlan)
	r.Get("/plans/{id}", h.GetPlan)
	r.Get("/plans/{id}/status", h.GetStatus)
	r.Put("/plans/{id}/sections/{sectionID}", h.UpdateSection)
	r.Post("/plans/{id}/sections/{sectionID}/alter", h.AlterSection)
	r.Post("/plans/{id}/translate", h.TranslatePlan)
	r.Get("/plans/{id}/export", h.ExportPlan)

	// Markdown preview.
	r.Post("/parse", h.ParseMarkdown)

	// Preferences.
	r.Get("/preferences/theme", h.GetTheme)
	r.Put("/preferences/theme", h.PutTheme)

	if d.DemoTokens {
		th := NewTokenHandler(d.Issuer)
		r.Post("/access/token", th.Issue)
	}

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
