package config

import "testing"

func TestSupportedURL(t *testing.T) {
	cfg := &Config{SupportedSchemes: []string{"http", "https", "file"}}

	cases := []struct {
		url  string
		want bool
	}{
		{"http://example.com", true},
		{"HTTPS://example.com/path", true},
		{"file:///tmp/page.html", true},
		{"chrome://settings", false},
		{"about:blank", false},
		{"://bad", false},
	}
	for _, tc := range cases {
		if got := cfg.SupportedURL(tc.url); got != tc.want {
			t.Fatalf("SupportedURL(%q) = %v; want %v", tc.url, got, tc.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http, https ,,file ")
	if len(got) != 3 || got[0] != "http" || got[1] != "https" || got[2] != "file" {
		t.Fatalf("splitList() = %v; want [http https file]", got)
	}
}
