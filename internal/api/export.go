package api

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/planinsta/internal/access"
)

// ExportPlan handles GET /api/plans/{id}/export.
//
//	@Summary		Download a plan as Markdown, HTML, or JSON
//	@Tags			plans
//	@Produce		text/markdown,text/html,application/json
//	@Param			id		path		string	true	"Plan ID"
//	@Param			format	query		string	false	"Export format"	Enums(markdown, html, json)
//	@Success		200		{file}		file
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans/{id}/export [get]
func (h *Handler) ExportPlan(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Export(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, "export plan", err)
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Body)
}

// TokenHandler signs tier tokens in demo mode.
type TokenHandler struct {
	issuer *access.Issuer
}

// NewTokenHandler creates a TokenHandler.
func NewTokenHandler(issuer *access.Issuer) *TokenHandler {
	return &TokenHandler{issuer: issuer}
}

// Issue handles POST /api/access/token.
//
//	@Summary		Issue a tier token (demo mode only)
//	@Tags			access
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TokenRequest	true	"Requested tier"
//	@Success		201		{object}	TokenResponse
//	@Failure		400		{object}	errResponse
//	@Router			/access/token [post]
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tier, err := access.ParseTier(req.Tier)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	tok, exp, err := h.issuer.Issue(tier)
	if err != nil {
		writeError(w, "issue token", err)
		return
	}
	resp := TokenResponse{Token: tok, Tier: string(tier)}
	if !exp.IsZero() {
		resp.ExpiresAt = &exp
	}
	writeJSON(w, http.StatusCreated, resp)
}
