package scraper

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hdmirror/hdmirror/internal/util"
)

// HostRules decides whether an absolute URL belongs to the mirrored site.
// The upstream domain changes across deployments, so the rules are built
// from configuration plus the resolved origin, never hard-coded.
type HostRules struct {
	Host string
	// AltSubstrings match mirror domains that differ from Host.
	AltSubstrings []string
}

// SitePath converts raw into a site-relative path. Relative hrefs pass
// through unchanged. Absolute same-site hrefs are reduced to their path;
// absolute off-site hrefs and unparsable hrefs return ok=false so the
// caller can drop the candidate silently.
func (r HostRules) SitePath(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "http") {
		return raw, raw != ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if r.SameSite(u.Hostname()) {
		return u.Path, u.Path != ""
	}
	return "", false
}

// SameSite reports whether host belongs to the mirrored site.
func (r HostRules) SameSite(host string) bool {
	if host == "" {
		return false
	}
	if r.Host != "" && strings.HasSuffix(host, r.Host) {
		return true
	}
	for _, sub := range r.AltSubstrings {
		if sub != "" && strings.Contains(host, sub) {
			return true
		}
	}
	return false
}

// OriginResolver yields the current upstream origin. The configured base
// URL is authoritative; when probing is enabled the resolver follows the
// base URL's redirects once per TTL window and caches the final origin
// (value plus expiry), since the upstream hops domains regularly.
type OriginResolver struct {
	base   string
	probe  bool
	ttl    time.Duration
	client *http.Client

	mu       sync.RWMutex
	resolved string
	expires  time.Time
}

// NewOriginResolver builds a resolver for base. With probe disabled it
// always returns base.
func NewOriginResolver(base string, probe bool, ttl time.Duration) *OriginResolver {
	return &OriginResolver{
		base:   strings.TrimSuffix(base, "/"),
		probe:  probe,
		ttl:    ttl,
		client: util.GetSharedClient(),
	}
}

// Origin returns the current upstream origin, e.g. "https://example.site".
// Probe failures fall back to the configured base; resolution is never a
// hard error.
func (o *OriginResolver) Origin(ctx context.Context) string {
	if !o.probe {
		return o.base
	}

	o.mu.RLock()
	if o.resolved != "" && time.Now().Before(o.expires) {
		origin := o.resolved
		o.mu.RUnlock()
		return origin
	}
	o.mu.RUnlock()

	origin := o.lookup(ctx)

	o.mu.Lock()
	o.resolved = origin
	o.expires = time.Now().Add(o.ttl)
	o.mu.Unlock()
	return origin
}

// Host returns the hostname of the configured base URL.
func (o *OriginResolver) Host() string {
	u, err := url.Parse(o.base)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func (o *OriginResolver) lookup(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.base, nil)
	if err != nil {
		return o.base
	}
	resp, err := o.client.Do(req)
	if err != nil {
		util.Debug("origin probe failed", "err", err)
		return o.base
	}
	defer func() { _ = resp.Body.Close() }()

	final := resp.Request.URL
	origin := final.Scheme + "://" + final.Host
	if origin != o.base {
		util.Info("upstream origin moved", "origin", origin)
	}
	return origin
}
