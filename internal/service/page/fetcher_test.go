package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchReturnsPage(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(encodedPage(`<p>What is 2+2?</p>`)))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	p, err := f.Fetch(context.Background(), srv.URL+"/q1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.URL != srv.URL+"/q1" {
		t.Fatalf("unexpected page url: %q", p.URL)
	}
	if p.Decoded == "" || !strings.Contains(p.Decoded, "2+2") {
		t.Fatalf("expected decoded fragment, got %q", p.Decoded)
	}
	if gotUA == "" {
		t.Fatal("expected User-Agent header on fetch")
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestFetchRejectsBadScheme(t *testing.T) {
	f := NewFetcher(nil)
	if _, err := f.Fetch(context.Background(), "ftp://quiz.example/q1"); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
	if _, err := f.Fetch(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty url")
	}
}
