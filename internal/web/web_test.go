// internal/web/web_test.go
//
// Handler tests run the full route tree against httptest, with sqlmock
// for the database and miniredis for the resolution cache.  The focus
// is wiring: auth gating, status mapping through the error taxonomy,
// and webhook signature checks; workflow semantics are covered in their
// own packages.

package web

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sitelet/sitelet/internal/config"
	"github.com/sitelet/sitelet/internal/store"
	"github.com/sitelet/sitelet/internal/subdomain"
	"github.com/sitelet/sitelet/internal/token"
	"github.com/sitelet/sitelet/internal/upload"
)

const webhookSecret = "hook-secret"

// fakeTokens maps one bearer token to one tenant.
type fakeTokens struct {
	hash     string
	tenantID uint64
}

func (f fakeTokens) TenantByTokenHash(_ context.Context, hash string) (uint64, error) {
	if hash == f.hash {
		return f.tenantID, nil
	}
	return 0, nil
}

func hashOf(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()

	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	db := sqlx.NewDb(raw, "sqlmock")

	mr := miniredis.RunT(t)
	cache := subdomain.NewCacheWith(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	log := zap.NewNop().Sugar()
	registry := subdomain.NewRegistry(db, cache, log)
	wf := upload.New(db, store.NewRouter(), log)
	media := store.NewMediaStore(config.MediaStore{WebhookSecret: webhookSecret})
	issuer := token.NewIssuer(token.StaticKeys{
		ActiveID: "k1",
		Keys:     map[string][]byte{"k1": []byte("signing-key")},
	}, time.Hour, "sitelet.page")

	h := NewHandler(db, wf, upload.NewPublisher(wf, registry, nil), registry, issuer, media,
		fakeTokens{hash: hashOf("tenant-7-token"), tenantID: 7}, log)
	return h, mock, mr
}

func doRequest(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer tenant-7-token")
	return req
}

func TestAuthGate(t *testing.T) {
	h, _, _ := newTestHandler(t)

	// No token at all.
	rr := doRequest(h, httptest.NewRequest(http.MethodGet, "/v1/assets", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got %d, want 401", rr.Code)
	}

	// Wrong token.
	req := httptest.NewRequest(http.MethodGet, "/v1/assets", nil)
	req.Header.Set("Authorization", "Bearer nope")
	if rr := doRequest(h, req); rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d, want 401", rr.Code)
	}
}

func TestResolveIsPublicAndServedFromCache(t *testing.T) {
	h, mock, mr := newTestHandler(t)

	mr.Set("subdomain:my-site", `{"owner":7,"namespaceId":"ns-1","visibility":"public"}`)

	rr := doRequest(h, httptest.NewRequest(http.MethodGet, "/resolve/my-site", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("resolve: got %d, want 200: %s", rr.Code, rr.Body)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["namespaceId"] != "ns-1" || body["visibility"] != "public" {
		t.Fatalf("unexpected body: %v", body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("cache hit must not touch SQL: %v", err)
	}
}

func TestResolveUnknownIs404(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery("SELECT id, name, owner_id").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rr := doRequest(h, httptest.NewRequest(http.MethodGet, "/resolve/ghost", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404: %s", rr.Code, rr.Body)
	}
}

func TestMediaWebhookSignature(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	payload := []byte(`{"notificationType":"upload","resourceType":"video","publicId":"7/ns-9/v1","url":"https://media.example/v/abc"}`)
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(payload)
	sig := hex.EncodeToString(mac.Sum(nil))

	// Bad signature is rejected before any SQL runs.
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/media", bytes.NewReader(payload))
	req.Header.Set(signatureHeader, "deadbeef")
	if rr := doRequest(h, req); rr.Code != http.StatusForbidden {
		t.Fatalf("forged signature: got %d, want 403", rr.Code)
	}

	// Valid signature confirms the pending asset.
	mock.ExpectExec("UPDATE cdn_asset").
		WithArgs("https://media.example/v/abc", "7/ns-9/v1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req = httptest.NewRequest(http.MethodPost, "/v1/webhooks/media", bytes.NewReader(payload))
	req.Header.Set(signatureHeader, sig)
	if rr := doRequest(h, req); rr.Code != http.StatusOK {
		t.Fatalf("valid webhook: got %d, want 200: %s", rr.Code, rr.Body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMediaWebhookLateNotificationIs404(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	payload := []byte(`{"notificationType":"upload","resourceType":"video","publicId":"7/ns-9/v1","url":"https://media.example/v/abc"}`)
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(payload)

	mock.ExpectExec("UPDATE cdn_asset").
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/media", bytes.NewReader(payload))
	req.Header.Set(signatureHeader, hex.EncodeToString(mac.Sum(nil)))
	if rr := doRequest(h, req); rr.Code != http.StatusNotFound {
		t.Fatalf("late webhook: got %d, want 404: %s", rr.Code, rr.Body)
	}
}

var subdomainColumns = []string{
	"id", "name", "owner_id", "namespace_id", "visibility",
	"content_byte_size", "created_at", "updated_at",
}

func TestIssueViewToken(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	now := time.Now()

	mock.ExpectQuery("SELECT id, name, owner_id").
		WithArgs("secret-site").
		WillReturnRows(sqlmock.NewRows(subdomainColumns).
			AddRow(3, "secret-site", 7, "ns-3", "private", 100, now, now))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/subdomains/secret-site/token", nil))
	rr := doRequest(h, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201: %s", rr.Code, rr.Body)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["token"] == "" {
		t.Fatal("no token in response")
	}
	if !strings.HasPrefix(body["url"], "https://secret-site.sitelet.page/?token=") {
		t.Fatalf("unexpected view URL: %q", body["url"])
	}
}

func TestIssueViewTokenForPublicSiteIsRejected(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	now := time.Now()

	mock.ExpectQuery("SELECT id, name, owner_id").
		WithArgs("open-site").
		WillReturnRows(sqlmock.NewRows(subdomainColumns).
			AddRow(4, "open-site", 7, "ns-4", "public", 100, now, now))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/subdomains/open-site/token", nil))
	if rr := doRequest(h, req); rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400: %s", rr.Code, rr.Body)
	}
}

func TestIssueViewTokenWrongOwner(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	now := time.Now()

	mock.ExpectQuery("SELECT id, name, owner_id").
		WithArgs("other-site").
		WillReturnRows(sqlmock.NewRows(subdomainColumns).
			AddRow(5, "other-site", 99, "ns-5", "private", 100, now, now))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/subdomains/other-site/token", nil))
	if rr := doRequest(h, req); rr.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403: %s", rr.Code, rr.Body)
	}
}

func TestRecomputeOtherTenantIsForbidden(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/tenants/99/recompute", nil))
	if rr := doRequest(h, req); rr.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403: %s", rr.Code, rr.Body)
	}
}

func TestRecomputeOwnLedger(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectExec("UPDATE tenant").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/tenants/7/recompute", nil))
	if rr := doRequest(h, req); rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUploadWithoutPayloadIs400(t *testing.T) {
	h, _, _ := newTestHandler(t)

	var buf bytes.Buffer
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/assets", &buf))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=empty")
	if rr := doRequest(h, req); rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400: %s", rr.Code, rr.Body)
	}
}
