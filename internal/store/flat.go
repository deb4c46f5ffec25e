// internal/store/flat.go
//
// Flat versioned bucket for script and style assets (MinIO client).
//
// Object keys follow `{ownerID}/{namespaceID}/v{version}` with versions
// starting at BaseVersion.  Updates write a new version key and leave
// the previous one in place so a failed metadata write can roll back to
// it; old versions are reclaimed by namespace deletion.
package store

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sitelet/sitelet/internal/config"
	"github.com/sitelet/sitelet/internal/errs"
)

// BaseVersion is the version number of every first upload.
const BaseVersion = 1

// FlatKey builds the canonical versioned object key.
func FlatKey(ownerID uint64, namespaceID string, version int) string {
	return fmt.Sprintf("%d/%s/v%d", ownerID, namespaceID, version)
}

// NamespacePrefix is the key prefix shared by every version stored under
// one namespace.
func NamespacePrefix(ownerID uint64, namespaceID string) string {
	return fmt.Sprintf("%d/%s/", ownerID, namespaceID)
}

// FlatStore implements Backend over an S3-compatible bucket.
type FlatStore struct {
	client *minio.Client
	bucket string
	base   string // public URL prefix for stored objects
}

// NewFlatStore connects the MinIO client.  No bucket probe is made here;
// a missing bucket surfaces as a Storage error on first Put.
func NewFlatStore(cfg config.FlatStore) (*FlatStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errs.Configuration.Wrap(err)
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return &FlatStore{
		client: client,
		bucket: cfg.Bucket,
		base:   scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket + "/",
	}, nil
}

// Put streams one versioned object into the bucket.
func (s *FlatStore) Put(ctx context.Context, obj Object) (Locator, error) {
	key := FlatKey(obj.OwnerID, obj.NamespaceID, obj.Version)
	_, err := s.client.PutObject(ctx, s.bucket, key, obj.Body, obj.Size,
		minio.PutObjectOptions{ContentType: obj.ContentType})
	if err != nil {
		return Locator{}, errs.Storage.Wrap(err)
	}
	return Locator{Key: key, URL: s.base + key}, nil
}

// PutPath stores one object under an explicit key, bypassing the
// versioned asset layout.  Subdomain content replacement uses it to lay
// site files out as `{owner}/{namespace}/{path}`.
func (s *FlatStore) PutPath(ctx context.Context, key, contentType string, size int64, body io.Reader) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errs.Storage.Wrap(err)
	}
	return nil
}

// Remove deletes one object by key.
func (s *FlatStore) Remove(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return errs.Storage.Wrap(err)
	}
	return nil
}

// ListUnder returns every key below a namespace prefix.
func (s *FlatStore) ListUnder(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, errs.Storage.Wrap(info.Err)
		}
		keys = append(keys, info.Key)
	}
	return keys, nil
}
