// Package scraper implements the extraction engine: fetching upstream
// pages with a browser identity and turning their unstable HTML into the
// catalog data model.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hdmirror/hdmirror/internal/util"
)

// FetchError is a tagged fetch failure. Status is zero for transport-level
// failures (DNS, timeout, TLS).
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch failed: %s (status %d)", e.Message, e.Status)
	}
	return "fetch failed: " + e.Message
}

// Fetcher retrieves raw documents from the upstream site. Responses are
// optionally cached for a bounded window keyed by URL; the cache is best
// effort and never the source of correctness.
type Fetcher struct {
	client    *http.Client
	userAgent string
	cache     *util.ResponseCache
}

// NewFetcher creates a fetcher using the shared pooled client. A nil cache
// disables response caching.
func NewFetcher(userAgent string, cache *util.ResponseCache) *Fetcher {
	return &Fetcher{
		client:    util.GetSharedClient(),
		userAgent: userAgent,
		cache:     cache,
	}
}

// FetchHTML fetches pageURL and returns its body. The request carries a
// realistic browser identity and a referer matching the target's own
// origin; upstream rejects unrecognized clients.
func (f *Fetcher) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	key := normalizeKey(pageURL)
	if f.cache != nil {
		if data, ok := f.cache.Get(key); ok {
			util.Debug("cache hit", "url", pageURL)
			return string(data), nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &FetchError{Message: err.Error()}
	}
	f.decorateRequest(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{Status: resp.StatusCode, Message: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{Message: err.Error()}
	}

	if f.cache != nil {
		f.cache.Set(key, body)
	}
	return string(body), nil
}

func (f *Fetcher) decorateRequest(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	origin := req.URL.Scheme + "://" + req.URL.Host
	req.Header.Set("Referer", origin+"/")
	req.Header.Set("Origin", origin)
}

// normalizeKey strips fragments and trailing slashes so equivalent request
// URLs share a cache entry.
func normalizeKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
