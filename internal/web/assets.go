package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitelet/sitelet/internal/asset"
	"github.com/sitelet/sitelet/internal/errs"
	"github.com/sitelet/sitelet/internal/upload"
)

// maxUploadBytes caps a single multipart upload in memory.
const maxUploadBytes = 64 << 20

// assetDTO is the wire shape of one asset row.
type assetDTO struct {
	ID                string `json:"id"`
	Filename          string `json:"filename"`
	Kind              string `json:"kind"`
	CurrentVersion    int    `json:"currentVersion"`
	PreviousVersion   int    `json:"previousVersion"`
	Size              int64  `json:"size"`
	Backend           string `json:"backend"`
	URL               string `json:"url"`
	Pending           bool   `json:"pending"`
	TransformEnabled  bool   `json:"transformEnabled"`
	TransformUseCount int64  `json:"transformUseCount"`
}

func toAssetDTO(a *asset.Asset) assetDTO {
	return assetDTO{
		ID:                a.ID,
		Filename:          a.Filename,
		Kind:              string(a.Kind),
		CurrentVersion:    a.CurrentVersion,
		PreviousVersion:   a.PreviousVersion,
		Size:              a.Size,
		Backend:           a.Backend,
		URL:               a.LocatorURL,
		Pending:           a.Pending,
		TransformEnabled:  a.TransformEnabled,
		TransformUseCount: a.TransformUseCount,
	}
}

// parseUploadForm reads the multipart upload form shared by create and
// new-version requests.
func parseUploadForm(r *http.Request) (upload.Request, error) {
	var req upload.Request

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return req, errs.Validation.New("malformed multipart form: %v", err)
	}

	if f, hdr, err := r.FormFile("file"); err == nil {
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return req, errs.Validation.Wrap(err)
		}
		req.Data = data
		req.Filename = hdr.Filename
		req.ContentType = hdr.Header.Get("Content-Type")
	}

	if meta := r.FormValue("metadata"); meta != "" {
		if !json.Valid([]byte(meta)) {
			return req, errs.Validation.New("metadata is not valid JSON")
		}
		req.Metadata = json.RawMessage(meta)
	}
	req.Transform = r.FormValue("transform") == "true"

	return req, nil
}

// uploadAsset handles POST /v1/assets: first upload of a new asset.
func (h *Handler) uploadAsset(w http.ResponseWriter, r *http.Request) {
	req, err := parseUploadForm(r)
	if err != nil {
		writeError(w, err)
		return
	}
	req.OwnerID = TenantID(r.Context())

	res, err := h.workflow.Run(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssetDTO(res.Asset))
}

// uploadAssetVersion handles PUT /v1/assets/{id}: stores a new version
// of an existing asset.
func (h *Handler) uploadAssetVersion(w http.ResponseWriter, r *http.Request) {
	req, err := parseUploadForm(r)
	if err != nil {
		writeError(w, err)
		return
	}
	req.OwnerID = TenantID(r.Context())
	req.AssetID = chi.URLParam(r, "id")

	res, err := h.workflow.Run(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetDTO(res.Asset))
}

// listAssets handles GET /v1/assets.
func (h *Handler) listAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := asset.ByOwner(r.Context(), h.db, TenantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]assetDTO, 0, len(assets))
	for i := range assets {
		out = append(out, toAssetDTO(&assets[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assets": out})
}

// deleteAsset handles DELETE /v1/assets/{id}.  Warnings from the
// best-effort saga surface in the response body, never in the status.
func (h *Handler) deleteAsset(w http.ResponseWriter, r *http.Request) {
	out, err := h.workflow.DeleteAsset(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"warnings": out.Warnings})
}

// deleteAllAssets handles DELETE /v1/assets: tenant-wide fan-out.
func (h *Handler) deleteAllAssets(w http.ResponseWriter, r *http.Request) {
	out, err := h.workflow.DeleteAllAssets(r.Context(), TenantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"warnings": out.Warnings})
}

// transformAsset handles GET /v1/assets/{id}/transform?t=w_400,h_300 and
// returns a provider transform URL, counting each generated URL.
func (h *Handler) transformAsset(w http.ResponseWriter, r *http.Request) {
	ownerID := TenantID(r.Context())
	id := chi.URLParam(r, "id")

	a, err := asset.ByID(r.Context(), h.db, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if a.OwnerID != ownerID {
		writeError(w, errs.Authorization.New("tenant %d does not own asset %s", ownerID, id))
		return
	}

	transform := r.URL.Query().Get("t")
	if transform == "" {
		writeError(w, errs.Validation.New("missing transform parameter t"))
		return
	}

	if err := asset.BumpTransformUse(r.Context(), h.db, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"url": h.media.TransformURL(a.LocatorKey, transform),
	})
}
