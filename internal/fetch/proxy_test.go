package fetch

import (
	"net/http"
	"net/url"
	"testing"
)

func proxyFor(t *testing.T, fn func(*http.Request) (*url.URL, error), rawURL string) string {
	t.Helper()
	u, _ := url.Parse(rawURL)
	got, err := fn(&http.Request{URL: u})
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if got == nil {
		return ""
	}
	return got.String()
}

func TestNewProxyFunc(t *testing.T) {
	fn := NewProxyFunc("http://proxy:8080", "http://secure-proxy:8443", "localhost, .gov.in,api.worldbank.org:443")

	tests := []struct {
		desc string
		url  string
		want string
	}{
		{"http uses http proxy", "http://www.un.org/en", "http://proxy:8080"},
		{"https uses https proxy", "https://www.iea.org/reports", "http://secure-proxy:8443"},
		{"suffix entry bypasses", "https://niti.gov.in/plan", ""},
		{"subdomain of suffix bypasses", "https://www.pib.gov.in/release", ""},
		{"host entry with port bypasses", "https://api.worldbank.org/v2", ""},
		{"plain host bypasses", "http://localhost:9000", ""},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := proxyFor(t, fn, tt.url); got != tt.want {
				t.Errorf("proxy for %s = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestNewProxyFunc_HTTPOnlyFallsBack(t *testing.T) {
	fn := NewProxyFunc("http://proxy:8080", "", "")
	if got := proxyFor(t, fn, "https://www.reuters.com"); got != "http://proxy:8080" {
		t.Errorf("Expected http proxy for https without https proxy, got %q", got)
	}
}

func TestBypassed_Wildcard(t *testing.T) {
	if !bypassed("anything.example", splitNoProxy("*")) {
		t.Error("Expected * to bypass every host")
	}
}
