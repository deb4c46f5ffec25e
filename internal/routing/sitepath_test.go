package routing

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "index.html", want: "index.html"},
		{in: "/css/site.css", want: "css/site.css"},
		{in: "img//logo.png", want: "img/logo.png"},
		{in: `assets\app.js`, want: "assets/app.js"},
		{in: "a/./b.txt", want: "a/b.txt"},
		{in: "a/../b.txt", want: "b.txt"},
		{in: "../secrets.txt", wantErr: true},
		{in: "a/../../b.txt", wantErr: true},
		{in: "", wantErr: true},
		{in: ".", wantErr: true},
		{in: "bad\x00name", wantErr: true},
	}

	for _, c := range cases {
		got, err := NormalizePath(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("NormalizePath(%q) = %q, want error", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizePath(%q) error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
