package store

import (
	"context"
	"testing"

	"github.com/sitelet/sitelet/internal/errs"
)

// fakeBackend records calls and returns canned locators.
type fakeBackend struct {
	put     []Object
	removed []string
	keys    []string
}

func (f *fakeBackend) Put(_ context.Context, obj Object) (Locator, error) {
	f.put = append(f.put, obj)
	return Locator{Key: FlatKey(obj.OwnerID, obj.NamespaceID, obj.Version)}, nil
}

func (f *fakeBackend) Remove(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeBackend) ListUnder(_ context.Context, _ string) ([]string, error) {
	return f.keys, nil
}

func TestRouterDispatchesByKind(t *testing.T) {
	flat := &fakeBackend{}
	media := &fakeBackend{}

	r := NewRouter()
	r.Register(KindScript, flat)
	r.Register(KindStyle, flat)
	r.Register(KindImage, media)
	r.Register(KindVideo, media)

	ctx := context.Background()
	if _, err := r.Put(ctx, KindScript, Object{OwnerID: 1, NamespaceID: "ns", Version: 1}); err != nil {
		t.Fatalf("Put script: %v", err)
	}
	if _, err := r.Put(ctx, KindVideo, Object{OwnerID: 1, NamespaceID: "ns", Version: 1}); err != nil {
		t.Fatalf("Put video: %v", err)
	}

	if len(flat.put) != 1 || len(media.put) != 1 {
		t.Fatalf("dispatch wrong: flat=%d media=%d", len(flat.put), len(media.put))
	}
}

func TestRouterUnregisteredKind(t *testing.T) {
	r := NewRouter()
	_, err := r.Put(context.Background(), KindImage, Object{})
	if !errs.Configuration.Has(err) {
		t.Fatalf("want Configuration error, got %v", err)
	}
}
