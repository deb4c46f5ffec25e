// internal/tenant/model.go
//
// Tenant row and ledger buckets.
//
// Context
// -------
// A tenant owns subdomains and CDN assets.  Quota enforcement reads the
// three running byte counters plus the remaining subdomain slots, all
// kept on the tenant row itself.  Counters only move in lockstep with a
// successful remote store operation; the compensating helpers in
// ledger.go undo a move when a later workflow step fails.
package tenant

import "time"

// Bucket names one of the per-tenant byte counters.
type Bucket string

const (
	// BucketFile tracks whole-subdomain content bytes.
	BucketFile Bucket = "file"
	// BucketCSSJS tracks script and style asset bytes.
	BucketCSSJS Bucket = "cssjs"
	// BucketMedia tracks image and video asset bytes.
	BucketMedia Bucket = "media"
)

// column maps a bucket to its tenant-table column.  Unknown buckets
// panic; the set is closed.
func (b Bucket) column() string {
	switch b {
	case BucketFile:
		return "file_bytes_used"
	case BucketCSSJS:
		return "cssjs_bytes_used"
	case BucketMedia:
		return "media_bytes_used"
	}
	panic("tenant: unknown bucket " + string(b))
}

// Tenant mirrors one row in the `tenant` table.
type Tenant struct {
	ID                      uint64    `db:"id"`
	Tier                    string    `db:"tier"`
	SubdomainSlotsRemaining int       `db:"subdomain_slots_remaining"`
	FileBytesUsed           int64     `db:"file_bytes_used"`
	CSSJSBytesUsed          int64     `db:"cssjs_bytes_used"`
	MediaBytesUsed          int64     `db:"media_bytes_used"`
	CreatedAt               time.Time `db:"created_at"`
	UpdatedAt               time.Time `db:"updated_at"`
}

// BytesUsed returns the counter for one bucket.
func (t *Tenant) BytesUsed(b Bucket) int64 {
	switch b {
	case BucketFile:
		return t.FileBytesUsed
	case BucketCSSJS:
		return t.CSSJSBytesUsed
	case BucketMedia:
		return t.MediaBytesUsed
	}
	panic("tenant: unknown bucket " + string(b))
}
