// internal/store/classify.go
//
// MIME classification of incoming assets.
//
// The declared Content-Type wins when it maps cleanly onto a kind.
// Otherwise we sniff the payload with gabriel-vasile/mimetype, and as a
// last resort fall back to the filename extension, because CSS and
// JavaScript frequently sniff as plain text.  Anything still ambiguous
// is rejected with errs.UnsupportedMedia before any remote call.
package store

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/sitelet/sitelet/internal/errs"
)

// Classify maps a payload to its asset kind.
func Classify(data []byte, filename, declared string) (Kind, error) {
	if k, ok := kindForMIME(declared); ok {
		return k, nil
	}

	if k, ok := kindForMIME(mimetype.Detect(data).String()); ok {
		return k, nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".js", ".mjs":
		return KindScript, nil
	case ".css":
		return KindStyle, nil
	}

	return "", errs.UnsupportedMedia.New("cannot classify %q (declared %q)", filename, declared)
}

func kindForMIME(mime string) (Kind, bool) {
	// Strip parameters such as "; charset=utf-8".
	if i := strings.IndexByte(mime, ';'); i != -1 {
		mime = mime[:i]
	}
	mime = strings.TrimSpace(strings.ToLower(mime))

	switch {
	case mime == "text/javascript", mime == "application/javascript",
		mime == "application/x-javascript":
		return KindScript, true
	case mime == "text/css":
		return KindStyle, true
	case strings.HasPrefix(mime, "image/"):
		return KindImage, true
	case strings.HasPrefix(mime, "video/"):
		return KindVideo, true
	}
	return "", false
}
