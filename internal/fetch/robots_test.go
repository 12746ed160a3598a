package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker_CanFetch(t *testing.T) {
	var robotsHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			_, _ = fmt.Fprint(w, "User-agent: Foretell\nDisallow: /drafts\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n")
		}
	}))
	defer server.Close()

	r := NewRobotsChecker("Foretell/0.1 (+https://github.com/ppiankov/foretell)", 5*time.Second)

	allowed, delay, err := r.CanFetch(context.Background(), server.URL+"/reports/2030")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("Expected our agent group to allow /reports")
	}
	if delay != 2*time.Second {
		t.Errorf("Expected crawl delay 2s, got %v", delay)
	}

	allowed, _, _ = r.CanFetch(context.Background(), server.URL+"/drafts/x")
	if allowed {
		t.Error("Expected /drafts to be disallowed")
	}

	if robotsHits.Load() != 1 {
		t.Errorf("Expected robots.txt to be fetched once, got %d", robotsHits.Load())
	}

	r.Clear()
	_, _, _ = r.CanFetch(context.Background(), server.URL+"/")
	if robotsHits.Load() != 2 {
		t.Errorf("Expected refetch after Clear, got %d", robotsHits.Load())
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	r := NewRobotsChecker("Foretell/0.1", 5*time.Second)
	allowed, _, err := r.CanFetch(context.Background(), server.URL+"/anything")
	if err != nil || !allowed {
		t.Errorf("Expected allow on 404 robots.txt, got %v %v", allowed, err)
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	r := NewRobotsChecker("Foretell/0.1", 200*time.Millisecond)
	allowed, _, err := r.CanFetch(context.Background(), "http://127.0.0.1:1/page")
	if err != nil || !allowed {
		t.Errorf("Expected allow when robots.txt is unreachable, got %v %v", allowed, err)
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Foretell/0.1 (+https://github.com/ppiankov/foretell)", "Foretell"},
		{"curl/8.0", "curl"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUserAgent(tt.in); got != tt.want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
