// internal/subdomain/registry.go
//
// Subdomain registry with cache-aside resolution.
//
// Context
// -------
// Resolve is the hot path: cache first, then the registry row, then a
// cache fill bound by the platform TTL.  Concurrent misses for the same
// name are collapsed with singleflight so a cold popular subdomain costs
// one registry read, not a stampede.
//
// Mutations authorize against the persistent record, never the cache; a
// cached owner can be stale for up to one TTL window, which is fine for
// anonymous reads and unacceptable for ownership checks.  Every mutation
// invalidates or refreshes the cache entry before returning.
package subdomain

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sitelet/sitelet/internal/errs"
	"github.com/sitelet/sitelet/internal/metrics"
	"github.com/sitelet/sitelet/internal/tenant"
)

// Registry coordinates the subdomain table, the resolution cache, and
// the tenant ledger.
type Registry struct {
	db    *sqlx.DB
	cache *Cache
	sfg   singleflight.Group
	log   *zap.SugaredLogger
}

// NewRegistry wires the registry.  All dependencies are injected so
// tests can substitute fakes.
func NewRegistry(db *sqlx.DB, cache *Cache, log *zap.SugaredLogger) *Registry {
	return &Registry{db: db, cache: cache, log: log}
}

// Resolve maps a subdomain name to its {owner, namespace, visibility}
// tuple.  Cache hit first; on miss the registry row is read and the
// cache filled under TTL.
func (r *Registry) Resolve(ctx context.Context, name string) (*Entry, error) {
	name = Fold(name)

	if e, err := r.cache.Get(ctx, name); err != nil {
		// A cache outage degrades to registry reads; log and continue.
		r.log.Warnw("resolution cache read failed", "name", name, "err", err)
	} else if e != nil {
		metrics.ResolveCacheHitTotal.Inc()
		return e, nil
	}

	v, err, _ := r.sfg.Do(name, func() (interface{}, error) {
		rec, err := ByName(ctx, r.db, name)
		if err != nil {
			return nil, err
		}
		e := &Entry{
			OwnerID:     rec.OwnerID,
			NamespaceID: rec.NamespaceID,
			Visibility:  rec.Visibility,
		}
		if err := r.cache.Set(ctx, name, e); err != nil {
			r.log.Warnw("resolution cache fill failed", "name", name, "err", err)
		}
		metrics.ResolveCacheMissTotal.Inc()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// Register claims a name for a tenant.  The availability probe runs
// through the same cache-aside path as Resolve, so a cold cache can
// momentarily miss a collision; the unique constraint on the table is
// the final arbiter and the consumed slot is restored when it fires.
//
// The caller registers only after the namespace's first upload has
// succeeded, passing the resulting content size.
func (r *Registry) Register(ctx context.Context, name string, ownerID uint64, namespaceID string, contentSize int64) (*Record, error) {
	name = Fold(name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	if _, err := r.Resolve(ctx, name); err == nil {
		return nil, errs.Validation.New("subdomain %q is already taken", name)
	} else if !errs.NotFound.Has(err) {
		return nil, err
	}

	if err := tenant.ConsumeSlot(ctx, r.db, ownerID); err != nil {
		return nil, err
	}

	if namespaceID == "" {
		namespaceID = uuid.NewString()
	}
	rec := &Record{
		Name:            name,
		OwnerID:         ownerID,
		NamespaceID:     namespaceID,
		Visibility:      VisibilityPublic,
		ContentByteSize: contentSize,
	}
	if err := Insert(ctx, r.db, rec); err != nil {
		if slotErr := tenant.RestoreSlot(ctx, r.db, ownerID); slotErr != nil {
			r.log.Warnw("slot restore after failed register", "owner", ownerID, "err", slotErr)
		}
		return nil, err
	}

	entry := &Entry{OwnerID: ownerID, NamespaceID: namespaceID, Visibility: rec.Visibility}
	if err := r.cache.Set(ctx, name, entry); err != nil {
		r.log.Warnw("cache fill after register failed", "name", name, "err", err)
	}

	r.log.Infow("subdomain registered", "name", name, "owner", ownerID, "namespace", namespaceID)
	return rec, nil
}

// Rename mutates the name in place and swaps the cache keys.  The old
// entry is invalidated before the new one is filled so no reader can
// observe both names mapping to the namespace past the TTL.
func (r *Registry) Rename(ctx context.Context, oldName, newName string, ownerID uint64) (*Record, error) {
	oldName, newName = Fold(oldName), Fold(newName)
	if err := ValidateName(newName); err != nil {
		return nil, err
	}

	rec, err := r.authorize(ctx, oldName, ownerID)
	if err != nil {
		return nil, err
	}

	if _, err := r.Resolve(ctx, newName); err == nil {
		return nil, errs.Validation.New("subdomain %q is already taken", newName)
	} else if !errs.NotFound.Has(err) {
		return nil, err
	}

	if err := UpdateName(ctx, r.db, rec.ID, newName); err != nil {
		return nil, err
	}

	if err := r.cache.Invalidate(ctx, oldName); err != nil {
		r.log.Warnw("cache invalidate after rename failed", "name", oldName, "err", err)
	}
	entry := &Entry{OwnerID: rec.OwnerID, NamespaceID: rec.NamespaceID, Visibility: rec.Visibility}
	if err := r.cache.Set(ctx, newName, entry); err != nil {
		r.log.Warnw("cache fill after rename failed", "name", newName, "err", err)
	}

	rec.Name = newName
	r.log.Infow("subdomain renamed", "from", oldName, "to", newName)
	return rec, nil
}

// SetVisibility flips public/private and refreshes the cache entry.
func (r *Registry) SetVisibility(ctx context.Context, name string, ownerID uint64, visibility string) error {
	if visibility != VisibilityPublic && visibility != VisibilityPrivate {
		return errs.Validation.New("invalid visibility %q", visibility)
	}
	name = Fold(name)

	rec, err := r.authorize(ctx, name, ownerID)
	if err != nil {
		return err
	}

	if err := UpdateVisibility(ctx, r.db, rec.ID, visibility); err != nil {
		return err
	}

	entry := &Entry{OwnerID: rec.OwnerID, NamespaceID: rec.NamespaceID, Visibility: visibility}
	if err := r.cache.Set(ctx, name, entry); err != nil {
		r.log.Warnw("cache refresh after visibility change failed", "name", name, "err", err)
	}
	return nil
}

// Unregister removes the local record and reclaims ledger state.  Remote
// object deletion is the saga's concern and has already been attempted
// (best-effort) by the time this runs; local cleanup proceeds regardless
// of the remote outcome.
func (r *Registry) Unregister(ctx context.Context, name string, ownerID uint64) (*Record, error) {
	name = Fold(name)

	rec, err := r.authorize(ctx, name, ownerID)
	if err != nil {
		return nil, err
	}

	if err := Remove(ctx, r.db, rec.ID); err != nil {
		return nil, err
	}
	if err := tenant.RestoreSlot(ctx, r.db, ownerID); err != nil {
		r.log.Warnw("slot restore on unregister failed", "owner", ownerID, "err", err)
	}
	if rec.ContentByteSize > 0 {
		if err := tenant.AdjustBytes(ctx, r.db, ownerID, tenant.BucketFile, -rec.ContentByteSize); err != nil {
			r.log.Warnw("ledger reclaim on unregister failed", "owner", ownerID, "err", err)
		}
	}
	if err := r.cache.Invalidate(ctx, name); err != nil {
		r.log.Warnw("cache invalidate on unregister failed", "name", name, "err", err)
	}

	r.log.Infow("subdomain unregistered", "name", name, "owner", ownerID)
	return rec, nil
}

// authorize loads the persistent record and checks ownership.  Never
// consults the cache: a stale cached owner must not gate mutations.
func (r *Registry) authorize(ctx context.Context, name string, ownerID uint64) (*Record, error) {
	rec, err := ByName(ctx, r.db, name)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != ownerID {
		return nil, errs.Authorization.New("tenant %d does not own %q", ownerID, name)
	}
	return rec, nil
}
