package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sitelet/sitelet/internal/errs"
	"github.com/sitelet/sitelet/internal/tenant"
)

// recomputeLedger handles POST /v1/tenants/{id}/recompute: rebuilds the
// tenant's byte counters from the persisted asset and subdomain rows.
// This is the corrective for the documented concurrent-upload race; a
// tenant can only recompute its own ledger.
func (h *Handler) recomputeLedger(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, errs.Validation.New("invalid tenant id"))
		return
	}
	if id != TenantID(r.Context()) {
		writeError(w, errs.Authorization.New("cannot recompute another tenant's ledger"))
		return
	}

	if err := tenant.Recompute(r.Context(), h.db, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recomputed"})
}
