// internal/upload/replace.go
//
// Whole-subdomain content publication and replacement.
//
// The same shape as the asset workflow, at folder granularity: the new
// content's total size is checked against quota net of the subdomain's
// current size, the ledger is charged up front, the old namespace
// contents are deleted, the new contents uploaded, and only then is the
// new size persisted.  If upload fails after the delete, the quota
// counter is rolled back to its pre-attempt value and the staged keys
// are cleared.
package upload

import (
	"bytes"
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/sitelet/sitelet/internal/errs"
	"github.com/sitelet/sitelet/internal/routing"
	"github.com/sitelet/sitelet/internal/store"
	"github.com/sitelet/sitelet/internal/subdomain"
	"github.com/sitelet/sitelet/internal/tenant"
)

// SiteFile is one file of a subdomain's content tree.
type SiteFile struct {
	Path        string
	ContentType string
	Data        []byte
}

// SiteStore is the slice of the flat store that site publication needs.
// *store.FlatStore satisfies it; tests substitute a fake.
type SiteStore interface {
	PutPath(ctx context.Context, key, contentType string, size int64, body io.Reader) error
	Remove(ctx context.Context, key string) error
	ListUnder(ctx context.Context, prefix string) ([]string, error)
}

// Publisher couples the registry, the flat store, and the ledger for
// site-level operations.
type Publisher struct {
	w        *Workflow
	registry *subdomain.Registry
	site     SiteStore
}

// NewPublisher wires a publisher on top of an existing workflow.
func NewPublisher(w *Workflow, registry *subdomain.Registry, site SiteStore) *Publisher {
	return &Publisher{w: w, registry: registry, site: site}
}

func totalSize(files []SiteFile) int64 {
	var n int64
	for _, f := range files {
		n += int64(len(f.Data))
	}
	return n
}

// normalizePaths canonicalizes every file path before anything is
// charged or stored, so a traversal attempt fails with no side effects.
func normalizePaths(files []SiteFile) ([]SiteFile, error) {
	out := make([]SiteFile, len(files))
	for i, f := range files {
		p, err := routing.NormalizePath(f.Path)
		if err != nil {
			return nil, err
		}
		f.Path = p
		out[i] = f
	}
	return out, nil
}

// checkFileQuota compares a file-bucket delta against the tier limit.
func (p *Publisher) checkFileQuota(ctx context.Context, ownerID uint64, delta int64) error {
	if delta <= 0 {
		return nil
	}
	ten, err := tenant.ByID(ctx, p.w.db, ownerID)
	if err != nil {
		return err
	}
	pol, err := p.w.policies.ByTier(ctx, ten.Tier)
	if err != nil {
		return err
	}
	if ten.FileBytesUsed+delta > pol.FileByteLimit {
		return errs.QuotaExceeded.New(
			"file quota exceeded: %d used + %d requested > %d limit",
			ten.FileBytesUsed, delta, pol.FileByteLimit)
	}
	return nil
}

// upload stages every file under the namespace prefix.  On failure the
// keys written so far are cleared best-effort and the first error is
// returned.
func (p *Publisher) upload(ctx context.Context, prefix string, files []SiteFile) error {
	var staged []string
	for _, f := range files {
		key := prefix + f.Path
		if err := p.site.PutPath(ctx, key, f.ContentType, int64(len(f.Data)), bytes.NewReader(f.Data)); err != nil {
			for _, k := range staged {
				if rmErr := p.site.Remove(ctx, k); rmErr != nil {
					p.w.log.Warnw("staging cleanup failed", "key", k, "err", rmErr)
				}
			}
			return err
		}
		staged = append(staged, key)
	}
	return nil
}

// PublishSite uploads a fresh site and registers its subdomain.  The
// record is created only after the object-store upload succeeds; a
// failed registration rolls the ledger charge back and clears the
// uploaded namespace.
func (p *Publisher) PublishSite(ctx context.Context, ownerID uint64, name string, files []SiteFile) (*subdomain.Record, error) {
	if len(files) == 0 {
		return nil, errs.Validation.New("no site content supplied")
	}
	files, err := normalizePaths(files)
	if err != nil {
		return nil, err
	}
	total := totalSize(files)

	if err := p.checkFileQuota(ctx, ownerID, total); err != nil {
		return nil, err
	}
	if err := tenant.AdjustBytes(ctx, p.w.db, ownerID, tenant.BucketFile, total); err != nil {
		return nil, err
	}

	namespaceID := uuid.NewString()
	prefix := sitePrefix(ownerID, namespaceID)

	rollback := func() {
		if err := tenant.AdjustBytes(ctx, p.w.db, ownerID, tenant.BucketFile, -total); err != nil {
			p.w.log.Warnw("ledger rollback after failed publish", "owner", ownerID, "err", err)
		}
		p.clearNamespace(ctx, prefix)
	}

	if err := p.upload(ctx, prefix, files); err != nil {
		rollback()
		return nil, err
	}

	rec, err := p.registry.Register(ctx, name, ownerID, namespaceID, total)
	if err != nil {
		rollback()
		return nil, err
	}
	return rec, nil
}

// ReplaceContents swaps a subdomain's entire content tree.
func (p *Publisher) ReplaceContents(ctx context.Context, ownerID uint64, name string, files []SiteFile) error {
	if len(files) == 0 {
		return errs.Validation.New("no site content supplied")
	}
	files, err := normalizePaths(files)
	if err != nil {
		return err
	}

	rec, err := subdomain.ByName(ctx, p.w.db, subdomain.Fold(name))
	if err != nil {
		return err
	}
	if rec.OwnerID != ownerID {
		return errs.Authorization.New("tenant %d does not own %q", ownerID, name)
	}

	total := totalSize(files)
	delta := total - rec.ContentByteSize

	if err := p.checkFileQuota(ctx, ownerID, delta); err != nil {
		return err
	}
	if delta != 0 {
		if err := tenant.AdjustBytes(ctx, p.w.db, ownerID, tenant.BucketFile, delta); err != nil {
			return err
		}
	}

	prefix := sitePrefix(rec.OwnerID, rec.NamespaceID)
	p.clearNamespace(ctx, prefix)

	if err := p.upload(ctx, prefix, files); err != nil {
		if delta != 0 {
			if lErr := tenant.AdjustBytes(ctx, p.w.db, ownerID, tenant.BucketFile, -delta); lErr != nil {
				p.w.log.Warnw("ledger rollback after failed replace", "owner", ownerID, "err", lErr)
			}
		}
		return err
	}

	return subdomain.UpdateContentSize(ctx, p.w.db, rec.ID, total)
}

// clearNamespace deletes every key under a prefix, best-effort.
func (p *Publisher) clearNamespace(ctx context.Context, prefix string) {
	keys, err := p.site.ListUnder(ctx, prefix)
	if err != nil {
		p.w.log.Warnw("namespace listing failed", "prefix", prefix, "err", err)
		return
	}
	for _, k := range keys {
		if err := p.site.Remove(ctx, k); err != nil {
			p.w.log.Warnw("namespace cleanup failed", "key", k, "err", err)
		}
	}
}

func sitePrefix(ownerID uint64, namespaceID string) string {
	return store.NamespacePrefix(ownerID, namespaceID)
}
