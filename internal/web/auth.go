// internal/web/auth.go
//
// Bearer-token tenant authentication.
//
// Tokens are opaque API keys; only their SHA-256 digest is stored, so a
// database leak does not leak usable credentials.  The middleware
// resolves the digest to a tenant ID and stashes it in the request
// context for handlers.
package web

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
)

type tenantKey struct{}

// TenantID returns the authenticated tenant, or 0 when the auth
// middleware has not run (public routes).
func TenantID(ctx context.Context) uint64 {
	v, _ := ctx.Value(tenantKey{}).(uint64)
	return v
}

// TokenStore resolves an API token digest to a tenant ID.
type TokenStore interface {
	TenantByTokenHash(ctx context.Context, hash string) (uint64, error)
}

// SQLTokenStore reads the tenant_token table.
type SQLTokenStore struct {
	DB *sqlx.DB
}

func (s SQLTokenStore) TenantByTokenHash(ctx context.Context, hash string) (uint64, error) {
	var id uint64
	const q = `SELECT tenant_id FROM tenant_token WHERE token_hash = ? LIMIT 1`
	if err := s.DB.GetContext(ctx, &id, q, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return id, nil
}

// TenantAuth rejects requests without a valid bearer token and attaches
// the resolved tenant ID to the context.
func TenantAuth(tokens TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := r.Header.Get("Authorization")
			token := strings.TrimPrefix(authorization, "Bearer ")
			if token == "" || token == authorization {
				writeErrorStatus(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			sum := sha256.Sum256([]byte(token))
			tenantID, err := tokens.TenantByTokenHash(r.Context(), hex.EncodeToString(sum[:]))
			if err != nil {
				writeErrorStatus(w, http.StatusInternalServerError, "token lookup failed")
				return
			}
			if tenantID == 0 {
				writeErrorStatus(w, http.StatusUnauthorized, "unknown token")
				return
			}

			ctx := context.WithValue(r.Context(), tenantKey{}, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
