// internal/tier/policy.go
//
// Tier policy lookup.
//
// Context
// -------
// Every subscription tier maps to one row in `tier_policy` describing the
// byte and slot budgets quota enforcement works from.  The table is tiny
// and operator-maintained; a tier without a row is a deployment mistake,
// so the lookup surfaces errs.Configuration rather than a user error.
package tier

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/sitelet/sitelet/internal/errs"
)

// Policy mirrors one row in `tier_policy`.  All limits are absolute
// ceilings; used bytes are tracked on the tenant row.
type Policy struct {
	Tier               string `db:"tier"`
	SubdomainSlotLimit int    `db:"subdomain_slot_limit"`
	FileByteLimit      int64  `db:"file_byte_limit"`
	CSSJSByteLimit     int64  `db:"cssjs_byte_limit"`
	MediaByteLimit     int64  `db:"media_byte_limit"`
}

// ByTier fetches the policy row for a tier.  A missing row is fatal
// misconfiguration, not NotFound.
func ByTier(ctx context.Context, db *sqlx.DB, tier string) (*Policy, error) {
	const q = `
        SELECT tier, subdomain_slot_limit, file_byte_limit,
               cssjs_byte_limit, media_byte_limit
        FROM   tier_policy
        WHERE  tier = ?
        LIMIT  1`
	var p Policy
	if err := db.GetContext(ctx, &p, q, tier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.Configuration.New("no policy for tier %q", tier)
		}
		return nil, err
	}
	return &p, nil
}
