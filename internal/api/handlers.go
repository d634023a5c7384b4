package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/planinsta/internal/parser"
	"github.com/starford/planinsta/internal/planservice"
	"github.com/starford/planinsta/internal/prefs"
	"github.com/starford/planinsta/internal/seed"
)

// Handler holds API route handlers.
type Handler struct {
	svc   *planservice.Service
	theme *prefs.Theme
}

// NewHandler creates a new Handler.
func NewHandler(svc *planservice.Service, theme *prefs.Theme) *Handler {
	return &Handler{svc: svc, theme: theme}
}

func setETag(w http.ResponseWriter, revision int64) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(revision, 10)))
}

// ListIndustries handles GET /api/industries.
//
//	@Summary		List industry templates for the generation form
//	@Tags			seed
//	@Produce		json
//	@Success		200	{array}	models.IndustryTemplate
//	@Router			/industries [get]
func (h *Handler) ListIndustries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, seed.Industries())
}

// ListLanguages handles GET /api/languages.
//
//	@Summary		List supported plan languages
//	@Tags			seed
//	@Produce		json
//	@Success		200	{array}	models.Language
//	@Router			/languages [get]
func (h *Handler) ListLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, seed.Languages())
}

// ListPlans handles GET /api/plans.
//
//	@Summary		List plans, most recently updated first
//	@Tags			plans
//	@Produce		json
//	@Param			q	query		string	false	"Filter by name or company"
//	@Success		200	{object}	PlanListResponse
//	@Security		BearerAuth
//	@Router			/plans [get]
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "list plans", err)
		return
	}
	items := make([]PlanSummary, len(plans))
	for i, p := range plans {
		items[i] = summarize(p)
	}
	writeJSON(w, http.StatusOK, PlanListResponse{Plans: items, Total: len(items)})
}

// GeneratePlan handles POST /api/plans.
//
//	@Summary		Generate a new plan with the language model
//	@Tags			plans
//	@Accept			json
//	@Produce		json
//	@Param			body	body		GeneratePlanRequest	true	"Generation form"
//	@Success		201		{object}	models.BusinessPlan
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans [post]
func (h *Handler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req GeneratePlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.Generate(r.Context(), req)
	if err != nil {
		writeError(w, "generate plan", err)
		return
	}
	setETag(w, p.Revision)
	writeJSON(w, http.StatusCreated, p)
}

// ImportPlan handles POST /api/plans/import.
//
//	@Summary		Create a plan from Markdown without the language model
//	@Tags			plans
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportPlanRequest	true	"Markdown document"
//	@Success		201		{object}	models.BusinessPlan
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans/import [post]
func (h *Handler) ImportPlan(w http.ResponseWriter, r *http.Request) {
	var req ImportPlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.Import(r.Context(), req)
	if err != nil {
		writeError(w, "import plan", err)
		return
	}
	setETag(w, p.Revision)
	writeJSON(w, http.StatusCreated, p)
}

// GetPlan handles GET /api/plans/{id}.
//
//	@Summary		Get a plan as the caller may see it
//	@Tags			plans
//	@Produce		json
//	@Param			id	path		string	true	"Plan ID"
//	@Success		200	{object}	PlanView
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans/{id} [get]
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get plan", err)
		return
	}
	setETag(w, v.Plan.Revision)
	writeJSON(w, http.StatusOK, v)
}

// GetStatus handles GET /api/plans/{id}/status.
//
//	@Summary		Report in-flight AI work on a plan
//	@Tags			plans
//	@Produce		json
//	@Param			id	path		string	true	"Plan ID"
//	@Success		200	{object}	PlanStatus
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans/{id}/status [get]
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "plan status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// UpdateSection handles PUT /api/plans/{id}/sections/{sectionID}.
//
//	@Summary		Replace a section's content with optimistic concurrency
//	@Tags			plans
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string					true	"Plan ID"
//	@Param			sectionID	path		string					true	"Section ID"
//	@Param			If-Match	header		string					false	"Plan revision (ETag)"
//	@Param			body		body		UpdateSectionRequest	true	"New content"
//	@Success		200			{object}	models.BusinessPlan
//	@Failure		400			{object}	errResponse
//	@Failure		403			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans/{id}/sections/{sectionID} [put]
func (h *Handler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	var req UpdateSectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var ifRevision int64
	// Strip surrounding quotes if present (standard ETag format).
	if ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`); ifMatch != "" {
		rev, err := strconv.ParseInt(ifMatch, 10, 64)
		if err != nil || rev <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("If-Match must be a plan revision"))
			return
		}
		ifRevision = rev
	}

	p, err := h.svc.EditSection(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "sectionID"), req.Content, ifRevision)
	if err != nil {
		writeError(w, "update section", err)
		return
	}
	setETag(w, p.Revision)
	writeJSON(w, http.StatusOK, p)
}

// AlterSection handles POST /api/plans/{id}/sections/{sectionID}/alter.
//
//	@Summary		Rewrite a section with a natural-language command
//	@Tags			plans
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Plan ID"
//	@Param			sectionID	path		string				true	"Section ID"
//	@Param			body		body		AlterSectionRequest	true	"Command"
//	@Success		200			{object}	models.BusinessPlan
//	@Failure		403			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		502			{object}	errResponse
//	@Failure		503			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans/{id}/sections/{sectionID}/alter [post]
func (h *Handler) AlterSection(w http.ResponseWriter, r *http.Request) {
	var req AlterSectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.AlterSection(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "sectionID"), req.Command)
	if err != nil {
		writeError(w, "alter section", err)
		return
	}
	setETag(w, p.Revision)
	writeJSON(w, http.StatusOK, p)
}

// TranslatePlan handles POST /api/plans/{id}/translate.
//
//	@Summary		Translate a plan into another supported language
//	@Tags			plans
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Plan ID"
//	@Param			body	body		TranslateRequest	true	"Target language"
//	@Success		200		{object}	models.BusinessPlan
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans/{id}/translate [post]
func (h *Handler) TranslatePlan(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.Translate(r.Context(), chi.URLParam(r, "id"), req.Language)
	if err != nil {
		writeError(w, "translate plan", err)
		return
	}
	setETag(w, p.Revision)
	writeJSON(w, http.StatusOK, p)
}

// ParseMarkdown handles POST /api/parse.
//
//	@Summary		Split Markdown into plan sections
//	@Tags			plans
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ParseRequest	true	"Markdown"
//	@Success		200		{object}	ParseResponse
//	@Failure		400		{object}	errResponse
//	@Router			/parse [post]
func (h *Handler) ParseMarkdown(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, ParseResponse{
		Sections: parser.ParseSections(req.Markdown),
		Headings: parser.Headings(req.Markdown),
	})
}

// GetTheme handles GET /api/preferences/theme.
//
//	@Summary		Get the colour theme preference
//	@Tags			preferences
//	@Produce		json
//	@Success		200	{object}	ThemeRequest
//	@Router			/preferences/theme [get]
func (h *Handler) GetTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ThemeRequest{Theme: h.theme.Get()})
}

// PutTheme handles PUT /api/preferences/theme.
//
//	@Summary		Set the colour theme preference
//	@Tags			preferences
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ThemeRequest	true	"Theme"
//	@Success		200		{object}	ThemeRequest
//	@Failure		422		{object}	errResponse
//	@Router			/preferences/theme [put]
func (h *Handler) PutTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.theme.Set(r.Context(), req.Theme); err != nil {
		writeError(w, "set theme", err)
		return
	}
	writeJSON(w, http.StatusOK, ThemeRequest{Theme: h.theme.Get()})
}
