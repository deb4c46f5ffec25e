// internal/subdomain/model.go
//
// Subdomain row and visibility states.
package subdomain

import "time"

// Visibility values.  Public subdomains resolve and serve with no token;
// private ones require a signed view token issued by internal/token.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Record mirrors one row in the `subdomain` table.  Name is globally
// unique and case-folded; NamespaceID is the opaque storage prefix
// generated once at registration and never reused.
type Record struct {
	ID              uint64    `db:"id"`
	Name            string    `db:"name"`
	OwnerID         uint64    `db:"owner_id"`
	NamespaceID     string    `db:"namespace_id"`
	Visibility      string    `db:"visibility"`
	ContentByteSize int64     `db:"content_byte_size"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}
