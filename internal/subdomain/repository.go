package subdomain

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/sitelet/sitelet/internal/errs"
)

const selectColumns = `
        SELECT id, name, owner_id, namespace_id, visibility,
               content_byte_size, created_at, updated_at
        FROM   subdomain`

// ByName fetches a single row.  The unique index on name makes this the
// authoritative ownership read for mutation endpoints.
func ByName(ctx context.Context, db *sqlx.DB, name string) (*Record, error) {
	q := selectColumns + `
        WHERE  name = ?
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound.New("subdomain %q", name)
		}
		return nil, err
	}
	return &rec, nil
}

// ByOwner lists a tenant's subdomains.
func ByOwner(ctx context.Context, db *sqlx.DB, ownerID uint64) ([]Record, error) {
	q := selectColumns + `
        WHERE  owner_id = ?
        ORDER BY name`
	var out []Record
	if err := db.SelectContext(ctx, &out, q, ownerID); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert creates the row.  The unique constraint on name is the final
// arbiter of uniqueness; a duplicate-key error is mapped to Validation
// so the cache-aside race on register stays harmless.
func Insert(ctx context.Context, db *sqlx.DB, rec *Record) error {
	const q = `
        INSERT INTO subdomain
            (name, owner_id, namespace_id, visibility, content_byte_size)
        VALUES (?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, q,
		rec.Name, rec.OwnerID, rec.NamespaceID, rec.Visibility, rec.ContentByteSize)
	if err != nil {
		if isDuplicateKey(err) {
			return errs.Validation.New("subdomain %q is already taken", rec.Name)
		}
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = uint64(id)
	}
	return nil
}

// UpdateName renames a row in place.
func UpdateName(ctx context.Context, db *sqlx.DB, id uint64, newName string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE subdomain SET name = ? WHERE id = ?`, newName, id)
	if err != nil && isDuplicateKey(err) {
		return errs.Validation.New("subdomain %q is already taken", newName)
	}
	return err
}

// UpdateVisibility flips public/private.
func UpdateVisibility(ctx context.Context, db *sqlx.DB, id uint64, visibility string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE subdomain SET visibility = ? WHERE id = ?`, visibility, id)
	return err
}

// UpdateContentSize persists the new total byte size after a content
// replacement.
func UpdateContentSize(ctx context.Context, db *sqlx.DB, id uint64, size int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE subdomain SET content_byte_size = ? WHERE id = ?`, size, id)
	return err
}

// Remove deletes the row.
func Remove(ctx context.Context, db *sqlx.DB, id uint64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM subdomain WHERE id = ?`, id)
	return err
}

// isDuplicateKey recognizes MySQL error 1062.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
