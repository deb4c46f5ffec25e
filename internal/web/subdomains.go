package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitelet/sitelet/internal/errs"
	"github.com/sitelet/sitelet/internal/subdomain"
	"github.com/sitelet/sitelet/internal/upload"
)

// subdomainDTO is the wire shape of one subdomain record.
type subdomainDTO struct {
	Name            string `json:"name"`
	Visibility      string `json:"visibility"`
	ContentByteSize int64  `json:"contentByteSize"`
}

func toSubdomainDTO(rec *subdomain.Record) subdomainDTO {
	return subdomainDTO{
		Name:            rec.Name,
		Visibility:      rec.Visibility,
		ContentByteSize: rec.ContentByteSize,
	}
}

// parseSiteFiles reads the multipart file set for publish and replace.
// Each part's filename is its path within the site.
func parseSiteFiles(r *http.Request) ([]upload.SiteFile, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, errs.Validation.New("malformed multipart form: %v", err)
	}
	if r.MultipartForm == nil {
		return nil, errs.Validation.New("no site content supplied")
	}

	var files []upload.SiteFile
	for _, hdr := range r.MultipartForm.File["files"] {
		f, err := hdr.Open()
		if err != nil {
			return nil, errs.Validation.Wrap(err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errs.Validation.Wrap(err)
		}
		files = append(files, upload.SiteFile{
			Path:        hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

// publishSite handles POST /v1/subdomains: upload a site and claim its
// name in one request.
func (h *Handler) publishSite(w http.ResponseWriter, r *http.Request) {
	files, err := parseSiteFiles(r)
	if err != nil {
		writeError(w, err)
		return
	}
	name := r.FormValue("name")
	if name == "" {
		writeError(w, errs.Validation.New("missing subdomain name"))
		return
	}

	rec, err := h.publisher.PublishSite(r.Context(), TenantID(r.Context()), name, files)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubdomainDTO(rec))
}

// replaceContents handles PUT /v1/subdomains/{name}/contents.
func (h *Handler) replaceContents(w http.ResponseWriter, r *http.Request) {
	files, err := parseSiteFiles(r)
	if err != nil {
		writeError(w, err)
		return
	}
	name := chi.URLParam(r, "name")

	if err := h.publisher.ReplaceContents(r.Context(), TenantID(r.Context()), name, files); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": subdomain.Fold(name)})
}

// listSubdomains handles GET /v1/subdomains.
func (h *Handler) listSubdomains(w http.ResponseWriter, r *http.Request) {
	recs, err := subdomain.ByOwner(r.Context(), h.db, TenantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]subdomainDTO, 0, len(recs))
	for i := range recs {
		out = append(out, toSubdomainDTO(&recs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subdomains": out})
}

// patchSubdomain handles PATCH /v1/subdomains/{name}: rename and/or
// visibility change.
func (h *Handler) patchSubdomain(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewName    string `json:"newName"`
		Visibility string `json:"visibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errs.Validation.New("malformed JSON body: %v", err))
		return
	}
	if body.NewName == "" && body.Visibility == "" {
		writeError(w, errs.Validation.New("nothing to change"))
		return
	}

	ownerID := TenantID(r.Context())
	name := chi.URLParam(r, "name")

	if body.NewName != "" {
		rec, err := h.registry.Rename(r.Context(), name, body.NewName, ownerID)
		if err != nil {
			writeError(w, err)
			return
		}
		name = rec.Name
	}
	if body.Visibility != "" {
		if err := h.registry.SetVisibility(r.Context(), name, ownerID, body.Visibility); err != nil {
			writeError(w, err)
			return
		}
	}

	rec, err := subdomain.ByName(r.Context(), h.db, subdomain.Fold(name))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubdomainDTO(rec))
}

// deleteSubdomain handles DELETE /v1/subdomains/{name}: best-effort
// remote teardown followed by unconditional local cleanup.
func (h *Handler) deleteSubdomain(w http.ResponseWriter, r *http.Request) {
	out, err := h.publisher.DeleteSubdomain(r.Context(), TenantID(r.Context()), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"warnings": out.Warnings})
}

// resolve handles GET /resolve/{name}: the public cache-aside read path.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	entry, err := h.registry.Resolve(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"namespaceId": entry.NamespaceID,
		"visibility":  entry.Visibility,
	})
}
