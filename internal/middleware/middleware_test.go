package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sitelet/sitelet/internal/errs"
	"github.com/sitelet/sitelet/internal/subdomain"
)

type stubResolver struct {
	known map[string]bool
}

func (s stubResolver) Resolve(_ context.Context, name string) (*subdomain.Entry, error) {
	if s.known[name] {
		return &subdomain.Entry{NamespaceID: "ns"}, nil
	}
	return nil, errs.NotFound.New("subdomain %s", name)
}

func TestSubdomainFromHost(t *testing.T) {
	cases := []struct {
		host string
		want string
		ok   bool
	}{
		{"blog.sitelet.page", "blog", true},
		{"blog.sitelet.page:8080", "blog", true},
		{"sitelet.page", "", false},
		{"a.b.sitelet.page", "", false},
		{"evil.example.com", "", false},
	}
	for _, c := range cases {
		got, ok := SubdomainFromHost(c.host, "sitelet.page")
		if got != c.want || ok != c.ok {
			t.Errorf("SubdomainFromHost(%q) = %q, %v; want %q, %v", c.host, got, ok, c.want, c.ok)
		}
	}
}

func TestForceHTTPSRedirectsKnownSubdomain(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := ForceHTTPS("sitelet.page", stubResolver{known: map[string]bool{"blog": true}}, next)

	req := httptest.NewRequest(http.MethodGet, "http://blog.sitelet.page/page?x=1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusPermanentRedirect {
		t.Fatalf("got %d, want 308", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "https://blog.sitelet.page/page?x=1" {
		t.Fatalf("unexpected Location %q", loc)
	}

	// An unknown host flows through to the next handler.
	req = httptest.NewRequest(http.MethodGet, "http://ghost.sitelet.page/", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("unknown host: got %d, want 200", rr.Code)
	}
}

func TestSecurityHeadersPresentOnWrittenResponse(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rr := httptest.NewRecorder()
	Security(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("nosniff header missing after handler wrote the status")
	}
	if rr.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("HSTS header missing")
	}
}
