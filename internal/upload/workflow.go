// internal/upload/workflow.go
//
// Asset upload state machine.
//
// Context
// -------
// Run drives one upload through Validate → Classify → CheckQuota →
// Store → PersistMetadata → UpdateLedger → Done, recording the outcome
// of every step so partial failure is a first-class return value rather
// than a log line.  Aborted is reachable from any step.
//
// Three pieces of state can fail independently: the remote object bytes,
// the asset row, and the ledger counter.  The ordering and compensation
// rules are:
//
//   - quota is checked before any remote call, so a rejection has no
//     side effects at all;
//   - a metadata failure after a successful store orphans the new
//     object; that is a reconciliation task, logged, never retried
//     inside the request;
//   - a ledger failure after metadata reverts the asset row to its
//     prior version pointer and leaves the stored bytes for cleanup.
//
// There is no mutual exclusion across a tenant's concurrent uploads;
// two workflows can interleave their read-modify-write of the same
// remaining-quota figure and transiently overshoot.  The ledger
// Recompute operation is the corrective mechanism.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sitelet/sitelet/internal/asset"
	"github.com/sitelet/sitelet/internal/errs"
	"github.com/sitelet/sitelet/internal/metrics"
	"github.com/sitelet/sitelet/internal/store"
	"github.com/sitelet/sitelet/internal/tenant"
	"github.com/sitelet/sitelet/internal/tier"
)

// Step names one state of the machine.
type Step string

const (
	StepValidate        Step = "validate"
	StepClassify        Step = "classify"
	StepCheckQuota      Step = "check-quota"
	StepStore           Step = "store"
	StepPersistMetadata Step = "persist-metadata"
	StepUpdateLedger    Step = "update-ledger"
	StepDone            Step = "done"
	StepAborted         Step = "aborted"
)

// StepOutcome records how far one step got.
type StepOutcome struct {
	Step Step
	Err  error
}

// Result is the workflow's return value.  Steps always ends in StepDone
// or StepAborted.  Warnings counts best-effort cleanups that were left
// for reconciliation.
type Result struct {
	Asset    *asset.Asset
	Steps    []StepOutcome
	Warnings int
}

func (r *Result) record(s Step, err error) {
	r.Steps = append(r.Steps, StepOutcome{Step: s, Err: err})
}

// Request carries one upload.  AssetID empty means first upload; set, it
// targets a new version of an existing asset.
type Request struct {
	OwnerID     uint64
	AssetID     string
	Filename    string
	ContentType string
	Data        []byte
	Metadata    json.RawMessage
	Transform   bool // enable on-demand transforms (media kinds only)
}

// Workflow holds the injected collaborators.
type Workflow struct {
	db       *sqlx.DB
	router   *store.Router
	policies *tier.Cache
	log      *zap.SugaredLogger
}

// New wires a workflow.
func New(db *sqlx.DB, router *store.Router, log *zap.SugaredLogger) *Workflow {
	return &Workflow{
		db:       db,
		router:   router,
		policies: tier.NewCache(db, 5*time.Minute),
		log:      log,
	}
}

// bucketFor maps an asset kind onto its ledger bucket.
func bucketFor(k store.Kind) tenant.Bucket {
	if k.BackendName() == store.BackendFlat {
		return tenant.BucketCSSJS
	}
	return tenant.BucketMedia
}

// Run executes the state machine.  The context bounds every remote call;
// cancellation aborts the workflow with a Storage error from the step in
// flight.
func (w *Workflow) Run(ctx context.Context, req Request) (*Result, error) {
	metrics.ActiveUploads.Inc()
	defer metrics.ActiveUploads.Dec()

	res := &Result{}

	abort := func(s Step, err error) (*Result, error) {
		res.record(s, err)
		res.record(StepAborted, nil)
		metrics.UploadAbortTotal.WithLabelValues(string(s)).Inc()
		return res, err
	}

	// Validate.
	if len(req.Data) == 0 && len(req.Metadata) == 0 {
		return abort(StepValidate, errs.Validation.New("no file payload and no metadata supplied"))
	}
	res.record(StepValidate, nil)

	// An update targets an existing row; fetch it before classification
	// so a kind change can be rejected.
	var existing *asset.Asset
	if req.AssetID != "" {
		var err error
		existing, err = asset.ByID(ctx, w.db, req.AssetID)
		if err != nil {
			return abort(StepValidate, err)
		}
		if existing.OwnerID != req.OwnerID {
			return abort(StepValidate, errs.Authorization.New("tenant %d does not own asset %s", req.OwnerID, req.AssetID))
		}
	}

	// Classify.
	kind, err := store.Classify(req.Data, req.Filename, req.ContentType)
	if err != nil {
		return abort(StepClassify, err)
	}
	if existing != nil && kind != existing.Kind {
		return abort(StepClassify, errs.Validation.New(
			"asset %s is %s; a new version cannot be %s", existing.ID, existing.Kind, kind))
	}
	res.record(StepClassify, nil)

	// CheckQuota, before any remote call.
	newSize := int64(len(req.Data))
	var oldSize int64
	if existing != nil {
		oldSize = existing.Size
	}
	if err := w.checkQuota(ctx, req.OwnerID, kind, newSize-oldSize); err != nil {
		if errs.QuotaExceeded.Has(err) {
			metrics.QuotaRejectTotal.Inc()
		}
		return abort(StepCheckQuota, err)
	}
	res.record(StepCheckQuota, nil)

	// Store.  First upload creates version one; an update stores under
	// the next version path and leaves the old object in place so a
	// later rollback can restore the pointer.
	namespaceID := uuid.NewString()
	version := store.BaseVersion
	if existing != nil {
		namespaceID = existing.NamespaceID
		version = existing.CurrentVersion + 1
	}
	loc, err := w.router.Put(ctx, kind, store.Object{
		OwnerID:     req.OwnerID,
		NamespaceID: namespaceID,
		Version:     version,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        newSize,
		Body:        bytes.NewReader(req.Data),
	})
	if err != nil {
		return abort(StepStore, err)
	}
	res.record(StepStore, nil)

	// PersistMetadata.
	a, err := w.persist(ctx, req, existing, kind, namespaceID, version, newSize, loc)
	if err != nil {
		// The stored object is now orphaned.  Reconciliation territory,
		// not a synchronous retry.
		w.log.Errorw("metadata write failed after store; object orphaned",
			"owner", req.OwnerID, "locator", loc.Key, "err", err)
		res.Warnings++
		return abort(StepPersistMetadata, errs.Storage.Wrap(err))
	}
	res.record(StepPersistMetadata, nil)

	// UpdateLedger.
	if err := tenant.AdjustBytes(ctx, w.db, req.OwnerID, bucketFor(kind), newSize-oldSize); err != nil {
		w.compensateMetadata(ctx, req, existing, a)
		res.Warnings++
		return abort(StepUpdateLedger, err)
	}
	res.record(StepUpdateLedger, nil)

	res.record(StepDone, nil)
	res.Asset = a
	metrics.UploadTotal.WithLabelValues(string(kind)).Inc()
	w.log.Infow("asset stored",
		"owner", req.OwnerID, "asset", a.ID, "kind", kind, "version", a.CurrentVersion, "size", newSize)
	return res, nil
}

// checkQuota compares the size delta against the remaining budget of the
// kind's byte bucket.
func (w *Workflow) checkQuota(ctx context.Context, ownerID uint64, kind store.Kind, delta int64) error {
	if delta <= 0 {
		return nil
	}
	ten, err := tenant.ByID(ctx, w.db, ownerID)
	if err != nil {
		return err
	}
	pol, err := w.policies.ByTier(ctx, ten.Tier)
	if err != nil {
		return err
	}

	bucket := bucketFor(kind)
	var limit int64
	switch bucket {
	case tenant.BucketCSSJS:
		limit = pol.CSSJSByteLimit
	case tenant.BucketMedia:
		limit = pol.MediaByteLimit
	default:
		limit = pol.FileByteLimit
	}

	if ten.BytesUsed(bucket)+delta > limit {
		return errs.QuotaExceeded.New(
			"%s quota exceeded: %d used + %d requested > %d limit",
			bucket, ten.BytesUsed(bucket), delta, limit)
	}
	return nil
}

// persist writes or overwrites the asset row.
func (w *Workflow) persist(ctx context.Context, req Request, existing *asset.Asset,
	kind store.Kind, namespaceID string, version int, size int64, loc store.Locator) (*asset.Asset, error) {

	if existing == nil {
		a := &asset.Asset{
			ID:               uuid.NewString(),
			OwnerID:          req.OwnerID,
			NamespaceID:      namespaceID,
			Filename:         req.Filename,
			Kind:             kind,
			CurrentVersion:   version,
			PreviousVersion:  version - 1,
			Size:             size,
			Backend:          kind.BackendName(),
			LocatorKey:       loc.Key,
			LocatorURL:       loc.URL,
			Pending:          loc.Pending,
			TransformEnabled: req.Transform && kind.BackendName() == store.BackendMedia,
		}
		if err := asset.Create(ctx, w.db, a); err != nil {
			return nil, err
		}
		return a, nil
	}

	next := *existing
	next.PreviousVersion = existing.CurrentVersion
	next.CurrentVersion = version
	next.Size = size
	next.LocatorKey = loc.Key
	next.LocatorURL = loc.URL
	next.Pending = loc.Pending
	if err := asset.SetVersion(ctx, w.db, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// compensateMetadata undoes the metadata write after a ledger failure:
// a created row is removed, an advanced row is pointed back at its prior
// version.  The stored bytes stay where they are for later cleanup.
func (w *Workflow) compensateMetadata(ctx context.Context, req Request, existing, written *asset.Asset) {
	metrics.LedgerRollbackTotal.Inc()

	var err error
	if existing == nil {
		err = asset.Delete(ctx, w.db, written.ID)
	} else {
		err = asset.SetVersion(ctx, w.db, existing)
	}
	if err != nil {
		// Rollback of the rollback failed; favor availability and log
		// the inconsistency instead of escalating.
		w.log.Warnw("metadata compensation failed",
			"owner", req.OwnerID, "asset", written.ID, "err", err)
	}
}
