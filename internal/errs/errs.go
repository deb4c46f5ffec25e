// internal/errs/errs.go
//
// Error taxonomy shared by every hosting component.
//
// Context
// -------
// Handlers, the upload workflow, and the registries all speak the same
// seven error classes.  A class tells the HTTP layer which status to
// emit and tells the workflow whether a compensating rollback is worth
// attempting.  Classes wrap freely, so `Storage.Wrap(err)` keeps the
// underlying cause available to errors.Is / errors.As.
package errs

import (
	"net/http"

	"github.com/zeebo/errs"
)

var (
	// Validation covers missing or malformed caller input.
	Validation = errs.Class("validation")

	// UnsupportedMedia is raised when content cannot be classified into
	// a known asset kind.
	UnsupportedMedia = errs.Class("unsupported media")

	// QuotaExceeded is raised before any remote call when a tier byte or
	// slot budget would be exceeded.
	QuotaExceeded = errs.Class("quota exceeded")

	// NotFound covers unknown subdomains and assets.
	NotFound = errs.Class("not found")

	// Authorization is raised when a tenant does not own the target.
	Authorization = errs.Class("authorization")

	// Configuration marks fatal misconfiguration, e.g. a missing tier
	// policy row.  Never a user error.
	Configuration = errs.Class("configuration")

	// Storage wraps backend put/delete/transform failures.  Retry is at
	// the caller's discretion, never automatic.
	Storage = errs.Class("storage")
)

// HTTPStatus maps an error to the status code the thin HTTP surface
// should emit.  Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case Validation.Has(err), UnsupportedMedia.Has(err), QuotaExceeded.Has(err):
		return http.StatusBadRequest
	case NotFound.Has(err):
		return http.StatusNotFound
	case Authorization.Has(err):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
