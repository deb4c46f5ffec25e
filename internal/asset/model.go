// internal/asset/model.go
//
// CDN asset row.
//
// Context
// -------
// One row per logical asset.  The row is stable across versions: updates
// bump CurrentVersion by exactly one, remember the old number in
// PreviousVersion, and swap the locator to the newly stored object.  The
// backend column is fully determined by Kind at creation and never
// changes afterwards.  Pending marks a video whose ingestion has not yet
// been confirmed by the provider webhook.
package asset

import (
	"time"

	"github.com/sitelet/sitelet/internal/store"
)

// Asset mirrors one row in `cdn_asset`.
type Asset struct {
	ID                string     `db:"id"` // opaque, stable across versions
	OwnerID           uint64     `db:"owner_id"`
	NamespaceID       string     `db:"namespace_id"` // storage prefix, generated once
	Filename          string     `db:"filename"`
	Kind              store.Kind `db:"kind"`
	CurrentVersion    int        `db:"current_version"`
	PreviousVersion   int        `db:"previous_version"`
	Size              int64      `db:"size"`
	Backend           string     `db:"backend"`
	LocatorKey        string     `db:"locator_key"`
	LocatorURL        string     `db:"locator_url"`
	Pending           bool       `db:"pending"`
	TransformEnabled  bool       `db:"transform_enabled"`
	TransformUseCount int64      `db:"transform_use_count"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}
