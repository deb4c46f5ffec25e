// internal/store/media.go
//
// Transformation-capable media backend for image and video assets.
//
// Context
// -------
// The provider speaks a small HTTP API: multipart upload, delete by
// public ID, and prefix listing.  Image uploads return a servable URL
// immediately.  Video uploads return a pending public ID; the provider
// confirms ingestion later with a webhook carrying {notificationType:
// "upload", resourceType, publicId, url}, authenticated by an HMAC
// signature header.  On-demand transforms are URL-level; each generated
// transform URL bumps the asset's use counter upstream.
package store

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/sitelet/sitelet/internal/config"
	"github.com/sitelet/sitelet/internal/errs"
)

// Notification is the webhook payload confirming an async ingestion.
type Notification struct {
	NotificationType string `json:"notificationType"`
	ResourceType     string `json:"resourceType"`
	PublicID         string `json:"publicId"`
	URL              string `json:"url"`
}

// MediaStore implements Backend against the transformation provider.
type MediaStore struct {
	base   string
	apiKey string
	secret string
	http   *http.Client
}

// NewMediaStore builds the provider client.  Timeout guards every call;
// the upload workflow additionally passes a request-scoped context so a
// caller can abort mid-transfer.
func NewMediaStore(cfg config.MediaStore) *MediaStore {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &MediaStore{
		base:   cfg.BaseURL,
		apiKey: cfg.APIKey,
		secret: cfg.WebhookSecret,
		http:   &http.Client{Timeout: timeout},
	}
}

type uploadResponse struct {
	PublicID     string `json:"publicId"`
	URL          string `json:"url"`
	ResourceType string `json:"resourceType"`
	Status       string `json:"status"` // "ready" or "pending"
}

// Put uploads one media object.  The public ID is derived from the
// namespace and version so webhook confirmations can be matched back to
// the asset row without provider-side metadata.
func (s *MediaStore) Put(ctx context.Context, obj Object) (Locator, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("publicId", FlatKey(obj.OwnerID, obj.NamespaceID, obj.Version)); err != nil {
		return Locator{}, errs.Storage.Wrap(err)
	}
	fw, err := mw.CreateFormFile("file", obj.Filename)
	if err != nil {
		return Locator{}, errs.Storage.Wrap(err)
	}
	if _, err := io.Copy(fw, obj.Body); err != nil {
		return Locator{}, errs.Storage.Wrap(err)
	}
	if err := mw.Close(); err != nil {
		return Locator{}, errs.Storage.Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+"/v1/upload", &body)
	if err != nil {
		return Locator{}, errs.Storage.Wrap(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return Locator{}, errs.Storage.Wrap(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return Locator{}, errs.Storage.New("media upload: unexpected status %d", resp.StatusCode)
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return Locator{}, errs.Storage.Wrap(err)
	}

	return Locator{
		Key:     ur.PublicID,
		URL:     ur.URL,
		Pending: ur.Status == "pending",
	}, nil
}

// Remove deletes one media resource by public ID.
func (s *MediaStore) Remove(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		s.base+"/v1/resources/"+url.PathEscape(key), nil)
	if err != nil {
		return errs.Storage.Wrap(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return errs.Storage.Wrap(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return errs.Storage.New("media delete %s: unexpected status %d", key, resp.StatusCode)
	}
	return nil
}

// ListUnder enumerates public IDs below a prefix.
func (s *MediaStore) ListUnder(ctx context.Context, prefix string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.base+"/v1/resources?prefix="+url.QueryEscape(prefix), nil)
	if err != nil {
		return nil, errs.Storage.Wrap(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, errs.Storage.Wrap(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errs.Storage.New("media list %s: unexpected status %d", prefix, resp.StatusCode)
	}

	var out struct {
		Resources []struct {
			PublicID string `json:"publicId"`
		} `json:"resources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errs.Storage.Wrap(err)
	}
	keys := make([]string, 0, len(out.Resources))
	for _, r := range out.Resources {
		keys = append(keys, r.PublicID)
	}
	return keys, nil
}

// TransformURL builds an on-demand transform URL for a stored resource,
// e.g. transform "w_400,h_300" for a thumbnail.
func (s *MediaStore) TransformURL(key, transform string) string {
	return fmt.Sprintf("%s/v1/transform/%s/%s", s.base, transform, key)
}

// VerifyNotification checks the webhook HMAC and decodes the payload.
func (s *MediaStore) VerifyNotification(body []byte, signature string) (*Notification, error) {
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return nil, errs.Authorization.New("webhook signature mismatch")
	}

	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, errs.Validation.Wrap(err)
	}
	if n.NotificationType != "upload" {
		return nil, errs.Validation.New("unexpected notification type %q", n.NotificationType)
	}
	return &n, nil
}
