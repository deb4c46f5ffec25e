// internal/middleware/security.go
//
// Security-header middleware for the API and the public resolve path:
//
//   • Strict-Transport-Security  –  forces HTTPS (2 years + preload)
//   • X-Frame-Options            –  click-jacking defence
//   • X-Content-Type-Options     –  MIME-sniffing defence; matters for a
//     host that serves tenant-uploaded script and style assets
//   • Referrer-Policy            –  drops path/query from Referer
//
// Headers are set before next.ServeHTTP runs; once a handler calls
// WriteHeader the header map is sealed, so setting them afterwards would
// silently drop them.
package middleware

import "net/http"

// Security sets security headers on every response.
func Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
