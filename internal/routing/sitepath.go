// internal/routing/sitepath.go
//
// Site-path normalization.
//
// Tenant site files arrive with caller-chosen paths that become object
// keys under the namespace prefix.  Keys are flat strings to the store,
// so nothing downstream would stop "../" from climbing out of the
// namespace; this is the single choke point that guarantees a cleaned,
// relative, slash-separated path.
//
// Rules (NormalizePath)
// ---------------------
// 1. Backslashes become forward slashes (Windows upload tools).
// 2. The path is cleaned: "." and ".." segments resolved, duplicate
//    slashes collapsed.
// 3. A leading "/" is dropped; the result is always relative.
// 4. Anything that still starts with ".." escapes the namespace and is
//    rejected, as are empty results and control characters.

package routing

import (
	"path"
	"strings"

	"github.com/sitelet/sitelet/internal/errs"
)

// NormalizePath returns the canonical relative form of a site file path,
// or errs.Validation when the path cannot be contained.
func NormalizePath(p string) (string, error) {
	raw := p
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "/")

	if p == "" || p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", errs.Validation.New("invalid site path %q", raw)
	}
	for _, r := range p {
		if r < 0x20 || r == 0x7f {
			return "", errs.Validation.New("control character in site path %q", raw)
		}
	}
	return p, nil
}
