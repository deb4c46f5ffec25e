package token

import (
	"strings"
	"testing"
	"time"

	"github.com/sitelet/sitelet/internal/errs"
)

func testIssuer(expiry time.Duration) *Issuer {
	keys := StaticKeys{
		ActiveID: "k2",
		Keys: map[string][]byte{
			"k1": []byte("old-secret"),
			"k2": []byte("new-secret"),
		},
	}
	return NewIssuer(keys, expiry, "sitelet.page")
}

func TestIssueAndVerify(t *testing.T) {
	i := testIssuer(time.Hour)

	tok, err := i.IssueViewToken("my-site")
	if err != nil {
		t.Fatalf("IssueViewToken error: %v", err)
	}

	name, err := i.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if name != "my-site" {
		t.Fatalf("subject = %q, want my-site", name)
	}
}

func TestVerify_OldKeyStillAccepted(t *testing.T) {
	// Sign with k1 as the active key, then verify with a provider that
	// has rotated to k2 but still knows k1.
	old := NewIssuer(StaticKeys{
		ActiveID: "k1",
		Keys:     map[string][]byte{"k1": []byte("old-secret")},
	}, time.Hour, "sitelet.page")

	tok, err := old.IssueViewToken("legacy")
	if err != nil {
		t.Fatalf("IssueViewToken error: %v", err)
	}

	name, err := testIssuer(time.Hour).Verify(tok)
	if err != nil {
		t.Fatalf("rotated provider must still verify old tokens: %v", err)
	}
	if name != "legacy" {
		t.Fatalf("subject = %q", name)
	}
}

func TestVerify_Expired(t *testing.T) {
	i := testIssuer(-time.Minute)

	tok, err := i.IssueViewToken("my-site")
	if err != nil {
		t.Fatalf("IssueViewToken error: %v", err)
	}
	if _, err := i.Verify(tok); !errs.Authorization.Has(err) {
		t.Fatalf("want Authorization for expired token, got %v", err)
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	i := testIssuer(time.Hour)

	tok, err := i.IssueViewToken("my-site")
	if err != nil {
		t.Fatalf("IssueViewToken error: %v", err)
	}
	tampered := tok[:len(tok)-2] + "xx"
	if _, err := i.Verify(tampered); err == nil {
		t.Fatal("tampered token must not verify")
	}
}

func TestViewURL(t *testing.T) {
	i := testIssuer(time.Hour)

	url := i.ViewURL("my-site", "abc123")
	if url != "https://my-site.sitelet.page/?token=abc123" {
		t.Fatalf("unexpected view URL %q", url)
	}
	if !strings.Contains(url, "?token=") {
		t.Fatal("token must ride as a query parameter")
	}
}
