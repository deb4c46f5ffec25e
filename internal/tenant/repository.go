package tenant

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/sitelet/sitelet/internal/errs"
)

// ByID fetches a single tenant row.  The caller supplies a context so the
// lookup respects request deadlines.
func ByID(ctx context.Context, db *sqlx.DB, id uint64) (*Tenant, error) {
	const q = `
        SELECT id, tier, subdomain_slots_remaining,
               file_bytes_used, cssjs_bytes_used, media_bytes_used,
               created_at, updated_at
        FROM   tenant
        WHERE  id = ?
        LIMIT  1`
	var t Tenant
	if err := db.GetContext(ctx, &t, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound.New("tenant %d", id)
		}
		return nil, err
	}
	return &t, nil
}
