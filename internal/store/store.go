// internal/store/store.go
//
// Uniform contract over the two asset backends.
//
// Context
// -------
// Script and style assets live in a flat S3-compatible bucket under
// explicit versioned keys.  Images and video live in a transformation-
// capable media service, where video ingestion resolves asynchronously
// via webhook.  Callers never see backend-specific types; they put an
// Object and get back a Locator, and every other operation takes the
// locator string.
//
// Backends are registered on the Router once per kind at boot, so adding
// an asset kind means registering a handler, not touching call sites.
package store

import (
	"context"
	"io"

	"github.com/sitelet/sitelet/internal/errs"
)

// Kind is the content class of an asset.  It fully determines the
// backend and never changes across versions of the same asset.
type Kind string

const (
	KindScript Kind = "script"
	KindStyle  Kind = "style"
	KindImage  Kind = "image"
	KindVideo  Kind = "video"
)

// Backend names as persisted on the cdn_asset row.
const (
	BackendFlat  = "flat-store"
	BackendMedia = "media-store"
)

// BackendName reports which backend serves this kind.
func (k Kind) BackendName() string {
	switch k {
	case KindScript, KindStyle:
		return BackendFlat
	default:
		return BackendMedia
	}
}

// Object is one versioned payload headed for a backend.
type Object struct {
	OwnerID     uint64
	NamespaceID string
	Version     int
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Locator is the backend-specific handle for a stored object.  Key is
// what Remove and the asset row persist.  URL is empty while Pending is
// true (async video ingestion, confirmed later by webhook).
type Locator struct {
	Key     string
	URL     string
	Pending bool
}

// Backend is the uniform surface each store implements.
type Backend interface {
	Put(ctx context.Context, obj Object) (Locator, error)
	Remove(ctx context.Context, key string) error
	ListUnder(ctx context.Context, prefix string) ([]string, error)
}

// Router dispatches by kind to a registered backend.
type Router struct {
	backends map[Kind]Backend
}

// NewRouter returns an empty router; Register each kind before use.
func NewRouter() *Router {
	return &Router{backends: make(map[Kind]Backend)}
}

// Register binds a backend to a kind.  Later registrations for the same
// kind replace earlier ones; tests rely on that to inject fakes.
func (r *Router) Register(k Kind, b Backend) {
	r.backends[k] = b
}

func (r *Router) backend(k Kind) (Backend, error) {
	b, ok := r.backends[k]
	if !ok {
		return nil, errs.Configuration.New("no backend registered for kind %q", k)
	}
	return b, nil
}

// Put stores one object via the backend registered for k.
func (r *Router) Put(ctx context.Context, k Kind, obj Object) (Locator, error) {
	b, err := r.backend(k)
	if err != nil {
		return Locator{}, err
	}
	return b.Put(ctx, obj)
}

// Delete removes one stored object by its locator key.
func (r *Router) Delete(ctx context.Context, k Kind, key string) error {
	b, err := r.backend(k)
	if err != nil {
		return err
	}
	return b.Remove(ctx, key)
}

// ListUnder enumerates locator keys below a namespace prefix (see
// NamespacePrefix for the flat-store form).
func (r *Router) ListUnder(ctx context.Context, k Kind, prefix string) ([]string, error) {
	b, err := r.backend(k)
	if err != nil {
		return nil, err
	}
	return b.ListUnder(ctx, prefix)
}
