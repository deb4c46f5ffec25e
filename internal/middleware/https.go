// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sitelet/sitelet/internal/subdomain"
)

// Resolver is the slice of the subdomain registry ForceHTTPS needs.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*subdomain.Entry, error)
}

// ForceHTTPS wraps h.  If the request is plain HTTP, the host is a
// registered subdomain of the platform domain, and the request is not a
// dev host, the wrapper issues a 308 Permanent Redirect to the HTTPS
// version of the same URL.  Otherwise it calls the next handler
// unchanged.
func ForceHTTPS(platformDomain string, resolver Resolver, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := stripPort(r.Host)

		// Already HTTPS or dev host → continue.
		if r.TLS != nil || host == "localhost" {
			h.ServeHTTP(w, r)
			return
		}

		// Only redirect hosts that actually resolve.
		if name, ok := SubdomainFromHost(host, platformDomain); ok {
			if _, err := resolver.Resolve(r.Context(), name); err == nil {
				target := "https://" + r.Host + r.URL.RequestURI()
				http.Redirect(w, r, target, http.StatusPermanentRedirect)
				return
			}
		}

		// Unknown host → keep normal flow (likely 404 later).
		h.ServeHTTP(w, r)
	})
}

// SubdomainFromHost extracts the left-most label when host is a direct
// child of platformDomain ("name.sitelet.page" → "name").  The apex and
// hosts outside the platform domain report ok=false.
func SubdomainFromHost(host, platformDomain string) (string, bool) {
	host = stripPort(host)
	suffix := "." + platformDomain
	if !strings.HasSuffix(host, suffix) {
		return "", false
	}
	name := strings.TrimSuffix(host, suffix)
	if name == "" || strings.Contains(name, ".") {
		return "", false
	}
	return name, true
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if i := strings.IndexByte(h, ':'); i != -1 {
		return h[:i]
	}
	return h
}
