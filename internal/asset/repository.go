package asset

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/sitelet/sitelet/internal/errs"
)

// Create inserts a fresh asset row at version one.
func Create(ctx context.Context, db *sqlx.DB, a *Asset) error {
	const q = `
        INSERT INTO cdn_asset
            (id, owner_id, namespace_id, filename, kind,
             current_version, previous_version, size, backend,
             locator_key, locator_url, pending,
             transform_enabled, transform_use_count)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q,
		a.ID, a.OwnerID, a.NamespaceID, a.Filename, a.Kind,
		a.CurrentVersion, a.PreviousVersion, a.Size, a.Backend,
		a.LocatorKey, a.LocatorURL, a.Pending,
		a.TransformEnabled, a.TransformUseCount)
	return err
}

// ByID fetches one asset row.
func ByID(ctx context.Context, db *sqlx.DB, id string) (*Asset, error) {
	const q = `
        SELECT id, owner_id, namespace_id, filename, kind,
               current_version, previous_version, size, backend,
               locator_key, locator_url, pending,
               transform_enabled, transform_use_count,
               created_at, updated_at
        FROM   cdn_asset
        WHERE  id = ?
        LIMIT  1`
	var a Asset
	if err := db.GetContext(ctx, &a, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound.New("asset %s", id)
		}
		return nil, err
	}
	return &a, nil
}

// ByOwner lists every asset a tenant owns.
func ByOwner(ctx context.Context, db *sqlx.DB, ownerID uint64) ([]Asset, error) {
	const q = `
        SELECT id, owner_id, namespace_id, filename, kind,
               current_version, previous_version, size, backend,
               locator_key, locator_url, pending,
               transform_enabled, transform_use_count,
               created_at, updated_at
        FROM   cdn_asset
        WHERE  owner_id = ?
        ORDER BY created_at`
	var out []Asset
	if err := db.SelectContext(ctx, &out, q, ownerID); err != nil {
		return nil, err
	}
	return out, nil
}

// SetVersion writes the version pointers, size, and locator of one row.
// Used both to advance to a freshly stored version and to revert to the
// prior pointer when the ledger update fails afterwards.
func SetVersion(ctx context.Context, db *sqlx.DB, a *Asset) error {
	const q = `
        UPDATE cdn_asset
        SET    current_version = ?, previous_version = ?, size = ?,
               locator_key = ?, locator_url = ?, pending = ?
        WHERE  id = ?`
	_, err := db.ExecContext(ctx, q,
		a.CurrentVersion, a.PreviousVersion, a.Size,
		a.LocatorKey, a.LocatorURL, a.Pending, a.ID)
	return err
}

// Delete removes the metadata row.
func Delete(ctx context.Context, db *sqlx.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM cdn_asset WHERE id = ?`, id)
	return err
}

// ConfirmIngestion resolves a pending locator once the provider webhook
// arrives.  Matching is by locator key since the webhook carries the
// provider public ID, not our asset ID.
func ConfirmIngestion(ctx context.Context, db *sqlx.DB, locatorKey, url string) error {
	const q = `
        UPDATE cdn_asset
        SET    locator_url = ?, pending = FALSE
        WHERE  locator_key = ?
          AND  pending = TRUE`
	res, err := db.ExecContext(ctx, q, url, locatorKey)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound.New("no pending asset for locator %s", locatorKey)
	}
	return nil
}

// BumpTransformUse increments the transform counter for a media asset.
func BumpTransformUse(ctx context.Context, db *sqlx.DB, id string) error {
	const q = `
        UPDATE cdn_asset
        SET    transform_use_count = transform_use_count + 1
        WHERE  id = ?
          AND  transform_enabled = TRUE`
	res, err := db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.Validation.New("transforms are not enabled for asset %s", id)
	}
	return nil
}
