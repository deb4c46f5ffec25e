// internal/token/issuer.go
//
// Signed view tokens for private subdomains.
//
// Context
// -------
// A private subdomain is served only with a bearer token whose single
// claim is the subdomain name.  Tokens are HS256 JWTs with a fixed
// expiry and a `kid` header, so signing keys can rotate: the issuer
// always signs with the active key while verification accepts any key
// the provider still knows.  Verification itself happens at the serving
// edge; Verify here defines that contract and backs the tests.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sitelet/sitelet/internal/errs"
)

// KeyProvider resolves signing keys.  The static implementation reads
// config; the Vault implementation fetches and caches KV-v2 secrets.
type KeyProvider interface {
	// Active returns the key ID and secret new tokens are signed with.
	Active() (kid string, key []byte, err error)
	// ByID returns the secret for a key ID seen in a token header.
	ByID(kid string) ([]byte, error)
}

// StaticKeys is a fixed in-memory key set.
type StaticKeys struct {
	ActiveID string
	Keys     map[string][]byte
}

func (s StaticKeys) Active() (string, []byte, error) {
	key, ok := s.Keys[s.ActiveID]
	if !ok {
		return "", nil, errs.Configuration.New("active signing key %q missing", s.ActiveID)
	}
	return s.ActiveID, key, nil
}

func (s StaticKeys) ByID(kid string) ([]byte, error) {
	key, ok := s.Keys[kid]
	if !ok {
		return nil, errs.Authorization.New("unknown signing key %q", kid)
	}
	return key, nil
}

// Issuer mints and verifies view tokens.
type Issuer struct {
	keys           KeyProvider
	expiry         time.Duration
	platformDomain string
}

// NewIssuer wires an issuer.
func NewIssuer(keys KeyProvider, expiry time.Duration, platformDomain string) *Issuer {
	return &Issuer{keys: keys, expiry: expiry, platformDomain: platformDomain}
}

// IssueViewToken signs a token whose only claim is the subdomain name.
func (i *Issuer) IssueViewToken(name string) (string, error) {
	kid, key, err := i.keys.Active()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   name,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["kid"] = kid
	return tok.SignedString(key)
}

// Verify checks signature and expiry and returns the subdomain name.
func (i *Issuer) Verify(tokenString string) (string, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errs.Authorization.New("unexpected signing method %v", t.Header["alg"])
			}
			kid, _ := t.Header["kid"].(string)
			return i.keys.ByID(kid)
		})
	if err != nil {
		return "", errs.Authorization.Wrap(err)
	}
	claims, ok := tok.Claims.(*jwt.RegisteredClaims)
	if !ok || !tok.Valid || claims.Subject == "" {
		return "", errs.Authorization.New("invalid view token")
	}
	return claims.Subject, nil
}

// ViewURL builds the tokenized URL for a private subdomain.
func (i *Issuer) ViewURL(name, tok string) string {
	return "https://" + name + "." + i.platformDomain + "/?token=" + tok
}
