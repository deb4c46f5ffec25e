package store

import (
	"testing"

	"github.com/sitelet/sitelet/internal/errs"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		data     []byte
		filename string
		declared string
		want     Kind
	}{
		{"declared js", []byte("console.log(1)"), "app.js", "application/javascript", KindScript},
		{"declared css", []byte("body{}"), "site.css", "text/css; charset=utf-8", KindStyle},
		{"sniffed png", []byte("\x89PNG\r\n\x1a\n"), "logo.bin", "", KindImage},
		{"extension fallback js", []byte("const x = 1"), "bundle.mjs", "text/plain", KindScript},
		{"extension fallback css", []byte(".a{color:red}"), "theme.css", "application/octet-stream", KindStyle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(tc.data, tc.filename, tc.declared)
			if err != nil {
				t.Fatalf("Classify error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("kind = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassify_Unsupported(t *testing.T) {
	_, err := Classify([]byte("%PDF-1.7"), "doc.pdf", "application/pdf")
	if err == nil {
		t.Fatal("expected rejection of unclassifiable content")
	}
	if !errs.UnsupportedMedia.Has(err) {
		t.Fatalf("want UnsupportedMedia class, got %v", err)
	}
}

func TestKindBackendIsStable(t *testing.T) {
	if KindScript.BackendName() != BackendFlat || KindStyle.BackendName() != BackendFlat {
		t.Fatal("text kinds must route to the flat store")
	}
	if KindImage.BackendName() != BackendMedia || KindVideo.BackendName() != BackendMedia {
		t.Fatal("media kinds must route to the media store")
	}
}
