package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitelet/sitelet/internal/errs"
	"github.com/sitelet/sitelet/internal/subdomain"
)

// issueViewToken handles POST /v1/subdomains/{name}/token.  Only the
// owner can mint view tokens, and only for a private subdomain; public
// ones need no token at all.
func (h *Handler) issueViewToken(w http.ResponseWriter, r *http.Request) {
	ownerID := TenantID(r.Context())
	name := subdomain.Fold(chi.URLParam(r, "name"))

	rec, err := subdomain.ByName(r.Context(), h.db, name)
	if err != nil {
		writeError(w, err)
		return
	}
	if rec.OwnerID != ownerID {
		writeError(w, errs.Authorization.New("tenant %d does not own %q", ownerID, name))
		return
	}
	if rec.Visibility != subdomain.VisibilityPrivate {
		writeError(w, errs.Validation.New("%q is public; no view token needed", name))
		return
	}

	tok, err := h.issuer.IssueViewToken(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"token": tok,
		"url":   h.issuer.ViewURL(name, tok),
	})
}
