// Package web is the thin HTTP surface over the hosting domain.
//
// Context
// -------
// Handlers parse input, call exactly one domain operation, and translate
// the result through the shared error taxonomy.  No business rules live
// here; anything worth testing beyond status mapping belongs to the
// packages the handlers call.
package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sitelet/sitelet/internal/store"
	"github.com/sitelet/sitelet/internal/subdomain"
	"github.com/sitelet/sitelet/internal/token"
	"github.com/sitelet/sitelet/internal/upload"
)

// Handler bundles the domain collaborators the routes need.
type Handler struct {
	db        *sqlx.DB
	workflow  *upload.Workflow
	publisher *upload.Publisher
	registry  *subdomain.Registry
	issuer    *token.Issuer
	media     *store.MediaStore
	tokens    TokenStore
	log       *zap.SugaredLogger
}

// NewHandler wires the HTTP surface.
func NewHandler(db *sqlx.DB, wf *upload.Workflow, pub *upload.Publisher,
	reg *subdomain.Registry, iss *token.Issuer, media *store.MediaStore,
	tokens TokenStore, log *zap.SugaredLogger) *Handler {
	return &Handler{
		db:        db,
		workflow:  wf,
		publisher: pub,
		registry:  reg,
		issuer:    iss,
		media:     media,
		tokens:    tokens,
		log:       log,
	}
}

// Routes builds the route tree.  /resolve and the media webhook are
// public; everything under /v1 except the webhook requires a tenant
// bearer token.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/resolve/{name}", h.resolve)
	r.Post("/v1/webhooks/media", h.mediaWebhook)

	r.Group(func(r chi.Router) {
		r.Use(TenantAuth(h.tokens))

		r.Post("/v1/assets", h.uploadAsset)
		r.Get("/v1/assets", h.listAssets)
		r.Delete("/v1/assets", h.deleteAllAssets)
		r.Put("/v1/assets/{id}", h.uploadAssetVersion)
		r.Delete("/v1/assets/{id}", h.deleteAsset)
		r.Get("/v1/assets/{id}/transform", h.transformAsset)

		r.Post("/v1/subdomains", h.publishSite)
		r.Get("/v1/subdomains", h.listSubdomains)
		r.Put("/v1/subdomains/{name}/contents", h.replaceContents)
		r.Patch("/v1/subdomains/{name}", h.patchSubdomain)
		r.Delete("/v1/subdomains/{name}", h.deleteSubdomain)
		r.Post("/v1/subdomains/{name}/token", h.issueViewToken)

		r.Post("/v1/tenants/{id}/recompute", h.recomputeLedger)
	})

	return r
}
