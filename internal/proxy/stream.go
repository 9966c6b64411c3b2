// Package proxy republishes upstream media and pages through this
// service, rewriting references so playback never talks to the upstream
// origin directly.
package proxy

import (
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/hdmirror/hdmirror/internal/util"
)

const manifestContentType = "application/vnd.apple.mpegurl"

// StreamProxy fetches arbitrary media URLs server-side with a referer
// matching the target's own origin, defeating hot-link checks, and
// re-emits the content CORS-open. Segmented playlists are rewritten so
// every segment fetch also transits the proxy.
type StreamProxy struct {
	client    *http.Client
	userAgent string
	// route is this proxy's own mount point, e.g. "/proxy/stream/".
	route string
}

// NewStreamProxy creates a stream proxy mounted at route.
func NewStreamProxy(userAgent, route string) *StreamProxy {
	return &StreamProxy{
		client:    util.GetProxyClient(),
		userAgent: userAgent,
		route:     route,
	}
}

// ServeTarget fetches target and writes it to w: manifest mode for
// segmented playlists, passthrough for everything else. Upstream failure
// propagates the upstream status where known.
func (p *StreamProxy) ServeTarget(ctx context.Context, w http.ResponseWriter, target string) {
	targetURL, err := url.Parse(target)
	if err != nil || !targetURL.IsAbs() {
		http.Error(w, "invalid target URL", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		http.Error(w, "invalid target URL", http.StatusBadRequest)
		return
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Referer", targetURL.Scheme+"://"+targetURL.Host)

	resp, err := p.client.Do(req)
	if err != nil {
		util.Error("stream upstream fetch failed", "url", target, "err", err)
		http.Error(w, "failed to fetch stream", http.StatusBadGateway)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		http.Error(w, "failed to fetch stream: "+resp.Status, resp.StatusCode)
		return
	}

	if IsManifest(target, resp.Header.Get("Content-Type")) {
		p.serveManifest(w, resp, targetURL)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if _, err := io.Copy(w, resp.Body); err != nil {
		util.Debug("stream copy aborted", "url", target, "err", err)
	}
}

func (p *StreamProxy) serveManifest(w http.ResponseWriter, resp *http.Response, targetURL *url.URL) {
	body, err := io.ReadAll(decodeBody(resp))
	if err != nil {
		http.Error(w, "failed to read manifest", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", manifestContentType)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write([]byte(RewriteManifest(string(body), targetURL, p.route)))
}

// IsManifest reports whether the URL or content type indicates a
// segmented playlist.
func IsManifest(target, contentType string) bool {
	if strings.Contains(target, ".m3u8") {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "mpegurl") || strings.Contains(ct, "x-mpegurl")
}

// RewriteManifest rewrites every media line of an HLS playlist into the
// proxy's URL scheme. Comment lines (leading '#') and blank lines pass
// through untouched. Media lines are resolved against the manifest's own
// base and wrapped back into route — including already-absolute lines,
// since the rule is "not already under the proxy": every segment must
// transit the proxy.
func RewriteManifest(manifest string, manifestURL *url.URL, route string) string {
	var out strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(manifest))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if !first {
			out.WriteByte('\n')
		}
		first = false

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, route) {
			out.WriteString(line)
			continue
		}

		ref, err := url.Parse(trimmed)
		if err != nil {
			out.WriteString(line)
			continue
		}
		absolute := manifestURL.ResolveReference(ref).String()
		out.WriteString(route + url.QueryEscape(absolute))
	}
	return out.String()
}

// decodeBody unwraps a gzip or brotli encoded upstream body.
func decodeBody(resp *http.Response) io.Reader {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		if gr, err := gzip.NewReader(resp.Body); err == nil {
			return gr
		}
		return resp.Body
	case "br":
		return brotli.NewReader(resp.Body)
	default:
		return resp.Body
	}
}
