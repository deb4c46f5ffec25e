// internal/subdomain/reserved.go
//
// Name validation and the reserved-name deny-list.
//
// The deny-list holds infrastructure-significant words that must never
// become tenant subdomains.  It is consulted on every register and
// rename, before the cache-aside uniqueness probe.
package subdomain

import (
	"regexp"
	"strings"

	"github.com/sitelet/sitelet/internal/errs"
)

var namePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

var reserved = map[string]struct{}{
	"admin":     {},
	"api":       {},
	"app":       {},
	"assets":    {},
	"billing":   {},
	"blog":      {},
	"cdn":       {},
	"dashboard": {},
	"dev":       {},
	"docs":      {},
	"ftp":       {},
	"help":      {},
	"imap":      {},
	"internal":  {},
	"localhost": {},
	"mail":      {},
	"metrics":   {},
	"ns1":       {},
	"ns2":       {},
	"root":      {},
	"smtp":      {},
	"staging":   {},
	"static":    {},
	"status":    {},
	"support":   {},
	"test":      {},
	"vpn":       {},
	"webmail":   {},
	"www":       {},
}

// Fold canonicalizes a subdomain name.  All lookups and writes go
// through the folded form.
func Fold(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsReserved reports whether a folded name is on the deny-list.
func IsReserved(name string) bool {
	_, ok := reserved[name]
	return ok
}

// ValidateName rejects reserved or malformed names.  The caller passes
// the folded form.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return errs.Validation.New("invalid subdomain name %q", name)
	}
	if IsReserved(name) {
		return errs.Validation.New("subdomain name %q is reserved", name)
	}
	return nil
}
