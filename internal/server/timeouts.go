// Package server builds the hardened *http.Server the entry point runs.
//
// Timeouts are the defence against slow clients: ReadHeaderTimeout kills
// slow-loris header dribbles, ReadTimeout bounds a whole upload body,
// WriteTimeout caps the response, and IdleTimeout closes keep-alives on
// idle connections.  Uploads are in-memory multiparts, so ReadTimeout is
// sized for the largest accepted payload on a slow link rather than for
// a typical API call.
package server

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 2 * time.Minute
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	maxHeaderBytes    = 1 << 20
)

// New constructs the server with Sitelet's defaults.  Callers may still
// adjust fields (e.g. TLSConfig) before ListenAndServe.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}
}
