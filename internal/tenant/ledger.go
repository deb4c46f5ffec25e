// internal/tenant/ledger.go
//
// Quota ledger mutations.
//
// Context
// -------
// Each adjustment is one UPDATE with the arithmetic done in SQL, so a
// single adjustment is atomic even though two concurrent workflows for
// the same tenant are not serialized against each other.  That read-
// modify-write race can transiently overshoot quota; the Recompute
// operation below is the corrective mechanism, invoked from an admin
// endpoint rather than a scheduler.
//
// Every mutation has an inverse with the same shape so the upload
// workflow can compensate after a partial failure.
package tenant

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/sitelet/sitelet/internal/errs"
)

// AdjustBytes moves one byte counter by delta (positive on store,
// negative on delete or rollback).  The WHERE guard keeps the counter
// from going below zero; a guarded-out update means the ledger and the
// caller's view of it have diverged, surfaced as errs.Validation.
func AdjustBytes(ctx context.Context, db *sqlx.DB, id uint64, b Bucket, delta int64) error {
	q := `
        UPDATE tenant
        SET    ` + b.column() + ` = ` + b.column() + ` + ?
        WHERE  id = ?
          AND  ` + b.column() + ` + ? >= 0`
	res, err := db.ExecContext(ctx, q, delta, id, delta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.Validation.New("ledger adjustment of %d would drive %s below zero for tenant %d", delta, b, id)
	}
	return nil
}

// ConsumeSlot takes one subdomain slot.  Returns errs.QuotaExceeded when
// none remain.
func ConsumeSlot(ctx context.Context, db *sqlx.DB, id uint64) error {
	const q = `
        UPDATE tenant
        SET    subdomain_slots_remaining = subdomain_slots_remaining - 1
        WHERE  id = ?
          AND  subdomain_slots_remaining > 0`
	res, err := db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.QuotaExceeded.New("no subdomain slots remaining for tenant %d", id)
	}
	return nil
}

// RestoreSlot gives one subdomain slot back, on deletion or on a
// compensating rollback of a failed registration.
func RestoreSlot(ctx context.Context, db *sqlx.DB, id uint64) error {
	const q = `
        UPDATE tenant
        SET    subdomain_slots_remaining = subdomain_slots_remaining + 1
        WHERE  id = ?`
	_, err := db.ExecContext(ctx, q, id)
	return err
}

// Recompute rebuilds the cssjs and media counters from the asset table
// and the file counter from the subdomain table, overwriting whatever
// drift the unlocked read-modify-write race has accumulated.
func Recompute(ctx context.Context, db *sqlx.DB, id uint64) error {
	const q = `
        UPDATE tenant SET
            cssjs_bytes_used = (
                SELECT COALESCE(SUM(size), 0) FROM cdn_asset
                WHERE  owner_id = ? AND kind IN ('script', 'style')),
            media_bytes_used = (
                SELECT COALESCE(SUM(size), 0) FROM cdn_asset
                WHERE  owner_id = ? AND kind IN ('image', 'video')),
            file_bytes_used = (
                SELECT COALESCE(SUM(content_byte_size), 0) FROM subdomain
                WHERE  owner_id = ?)
        WHERE id = ?`
	_, err := db.ExecContext(ctx, q, id, id, id, id)
	return err
}
