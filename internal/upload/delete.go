// internal/upload/delete.go
//
// Best-effort deletion sagas.
//
// Remote deletion is attempted first; regardless of its outcome, the
// local metadata is removed, ledger counters are reclaimed, and cache
// entries are invalidated.  Each saga returns a recorded outcome per
// step so partial failure is visible and testable.  Bulk deletion fans
// out per asset and reports failures as a warning count, never as a
// hard failure; a storage outage must not block database cleanup.
package upload

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/sitelet/sitelet/internal/asset"
	"github.com/sitelet/sitelet/internal/errs"
	"github.com/sitelet/sitelet/internal/metrics"
	"github.com/sitelet/sitelet/internal/subdomain"
	"github.com/sitelet/sitelet/internal/tenant"
)

// SagaStep is one recorded action of a deletion saga.
type SagaStep struct {
	Name string
	Err  error
}

// SagaOutcome aggregates a saga's steps.  Warnings counts best-effort
// failures that did not stop the saga.
type SagaOutcome struct {
	Steps    []SagaStep
	Warnings int
}

func (o *SagaOutcome) step(name string, err error) {
	o.Steps = append(o.Steps, SagaStep{Name: name, Err: err})
	if err != nil {
		o.Warnings++
		metrics.DeleteWarningTotal.Inc()
	}
}

// DeleteAsset removes one asset: remote object first (best-effort),
// then the metadata row and the ledger reclaim.
func (w *Workflow) DeleteAsset(ctx context.Context, ownerID uint64, assetID string) (*SagaOutcome, error) {
	a, err := asset.ByID(ctx, w.db, assetID)
	if err != nil {
		return nil, err
	}
	if a.OwnerID != ownerID {
		return nil, errs.Authorization.New("tenant %d does not own asset %s", ownerID, assetID)
	}

	out := &SagaOutcome{}

	out.step("remote-delete", w.router.Delete(ctx, a.Kind, a.LocatorKey))

	// Local cleanup proceeds regardless of the remote outcome.
	if err := asset.Delete(ctx, w.db, a.ID); err != nil {
		return out, err
	}
	out.step("metadata-delete", nil)

	out.step("ledger-reclaim",
		tenant.AdjustBytes(ctx, w.db, ownerID, bucketFor(a.Kind), -a.Size))

	w.log.Infow("asset deleted",
		"owner", ownerID, "asset", a.ID, "warnings", out.Warnings)
	return out, nil
}

// DeleteAllAssets removes every asset a tenant owns, fanning the
// per-asset sagas out concurrently.  One failure never blocks the
// others; the caller gets an aggregate warning count and the collected
// per-item errors for logging.
func (w *Workflow) DeleteAllAssets(ctx context.Context, ownerID uint64) (*SagaOutcome, error) {
	assets, err := asset.ByOwner(ctx, w.db, ownerID)
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		warnings int
		collected *multierror.Error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, a := range assets {
		g.Go(func() error {
			o, err := w.DeleteAsset(ctx, ownerID, a.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings++
				collected = multierror.Append(collected, err)
				return nil // independent failure; never abort the group
			}
			warnings += o.Warnings
			return nil
		})
	}
	_ = g.Wait()

	out := &SagaOutcome{Warnings: warnings}
	out.Steps = append(out.Steps, SagaStep{Name: "fan-out", Err: collected.ErrorOrNil()})
	if collected.ErrorOrNil() != nil {
		w.log.Warnw("bulk asset deletion finished with failures",
			"owner", ownerID, "warnings", warnings, "errs", collected)
	}
	return out, nil
}

// DeleteSubdomain tears a subdomain down: remote namespace contents
// first (best-effort), then the registry record, slot, ledger, and
// cache entry via Unregister.
func (p *Publisher) DeleteSubdomain(ctx context.Context, ownerID uint64, name string) (*SagaOutcome, error) {
	rec, err := subdomain.ByName(ctx, p.w.db, subdomain.Fold(name))
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != ownerID {
		return nil, errs.Authorization.New("tenant %d does not own %q", ownerID, name)
	}

	out := &SagaOutcome{}

	prefix := sitePrefix(rec.OwnerID, rec.NamespaceID)
	keys, err := p.site.ListUnder(ctx, prefix)
	out.step("remote-list", err)
	for _, k := range keys {
		if err := p.site.Remove(ctx, k); err != nil {
			out.step("remote-delete "+k, err)
		}
	}

	if _, err := p.registry.Unregister(ctx, rec.Name, ownerID); err != nil {
		return out, err
	}
	out.step("unregister", nil)

	return out, nil
}
