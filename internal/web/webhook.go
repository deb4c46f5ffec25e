package web

import (
	"io"
	"net/http"

	"github.com/sitelet/sitelet/internal/asset"
	"github.com/sitelet/sitelet/internal/errs"
)

// signatureHeader carries the provider's HMAC over the raw body.
const signatureHeader = "X-Media-Signature"

// mediaWebhook handles POST /v1/webhooks/media: the provider's async
// ingestion confirmation.  Signature verification happens before the
// payload is even parsed; a replayed or late notification for an asset
// that is no longer pending is a 404 the provider can drop.
func (h *Handler) mediaWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, errs.Validation.Wrap(err))
		return
	}

	n, err := h.media.VerifyNotification(body, r.Header.Get(signatureHeader))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := asset.ConfirmIngestion(r.Context(), h.db, n.PublicID, n.URL); err != nil {
		writeError(w, err)
		return
	}

	h.log.Infow("media ingestion confirmed", "publicId", n.PublicID, "resourceType", n.ResourceType)
	writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}
