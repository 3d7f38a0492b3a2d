package assets

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-post-relay/pkg/httpclient"
)

const defaultTimeout = 15 * time.Second

// FetchError reports a non-2xx answer from the content store. Status and a
// body snippet are kept so the classifier can pass 4xx statuses through.
type FetchError struct {
	Status  int
	Snippet string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("content store returned status %d: %s", e.Status, e.Snippet)
}

// Fetcher retrieves binary assets from a content store by opaque reference.
// Retrieval is unauthenticated; the store URL is templated from the base URL
// and the reference.
type Fetcher struct {
	client  httpclient.Client
	baseURL string
}

// NewFetcher builds a fetcher against the given content-store base URL. A nil
// client gets a default resty client with a bounded timeout.
func NewFetcher(client httpclient.Client, baseURL string) *Fetcher {
	if client == nil {
		client = httpclient.NewRestyClient(defaultTimeout)
	}
	return &Fetcher{client: client, baseURL: strings.TrimRight(baseURL, "?&")}
}

// Fetch downloads the asset behind ref and returns its raw bytes.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("asset reference is empty")
	}

	resp, err := f.client.Get(ctx, f.assetURL(ref), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch asset %s: %w", ref, err)
	}

	body := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &FetchError{Status: resp.StatusCode(), Snippet: responseSnippet(body)}
	}
	return body, nil
}

// assetURL renders the store's download URL for a reference.
func (f *Fetcher) assetURL(ref string) string {
	return fmt.Sprintf("%s?export=download&id=%s", f.baseURL, url.QueryEscape(ref))
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
