package assets

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-post-relay/pkg/httpclient"
)

func TestFetchReturnsRawBytes(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write(payload)
	}))
	defer srv.Close()

	f := NewFetcher(httpclient.NewRestyClient(2*time.Second), srv.URL)
	got, err := f.Fetch(context.Background(), "file-123")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("body mismatch: %v", got)
	}
	if gotQuery != "export=download&id=file-123" {
		t.Fatalf("unexpected query: %s", gotQuery)
	}
}

func TestFetchNon2xxYieldsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(httpclient.NewRestyClient(2*time.Second), srv.URL)
	_, err := f.Fetch(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error for 404")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if fe.Status != http.StatusNotFound {
		t.Fatalf("Status = %d", fe.Status)
	}
	if fe.Snippet != "not found" {
		t.Fatalf("Snippet = %q", fe.Snippet)
	}
}

func TestFetchRejectsEmptyRef(t *testing.T) {
	f := NewFetcher(nil, "https://store.example")
	if _, err := f.Fetch(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty ref")
	}
}
