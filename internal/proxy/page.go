package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/hdmirror/hdmirror/internal/util"
)

// StripMode selects how aggressively the page cleaner removes scripts.
type StripMode int

const (
	// StripNone leaves scripts alone.
	StripNone StripMode = iota
	// StripTrackers removes only the known ad/tracker script tags.
	StripTrackers
	// StripAll removes every script plus third-party iframes and
	// ad-container elements.
	StripAll
)

// hideChromeCSS hides the upstream page furniture so the embedded player
// fills the frame.
const hideChromeCSS = `<style>.header, .download, .nav, .tab, .tab-content, .rating, .footer{ display: none !important; } .section{padding:2px;}</style>`

var (
	scriptURLRe = regexp.MustCompile(`https?://[^\s'"]+`)
	fixedPosRe  = regexp.MustCompile(`position\s*:\s*fixed`)
	fullSizeRe  = regexp.MustCompile(`(100vw|100vh|100%)`)
)

// PageCleaner fetches an arbitrary HTML page and republishes it with a
// <base> tag pointing at its own origin, optionally stripped of ads and
// trackers, and with in-page stream URLs rewritten into the stream proxy.
type PageCleaner struct {
	client    *http.Client
	userAgent string
	adHosts   []string
	// streamRoute is the stream proxy mount used for in-page rewrites.
	streamRoute string
}

// NewPageCleaner creates a page cleaner. adHosts are script src
// substrings treated as trackers.
func NewPageCleaner(userAgent string, adHosts []string, streamRoute string) *PageCleaner {
	return &PageCleaner{
		client:      util.GetProxyClient(),
		userAgent:   userAgent,
		adHosts:     adHosts,
		streamRoute: streamRoute,
	}
}

// PageError carries the upstream status for non-2xx fetches.
type PageError struct {
	Status  int
	Message string
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page fetch failed: %s", e.Message)
}

// Clean fetches target and returns the rewritten HTML.
func (p *PageCleaner) Clean(ctx context.Context, target string, mode StripMode) (string, error) {
	targetURL, err := url.Parse(target)
	if err != nil || !targetURL.IsAbs() {
		return "", errors.New("target must be an absolute URL")
	}
	origin := targetURL.Scheme + "://" + targetURL.Host

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", errors.Wrap(err, "build page request")
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Referer", origin)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &PageError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &PageError{Status: resp.StatusCode, Message: resp.Status}
	}

	doc, err := goquery.NewDocumentFromReader(decodeBody(resp))
	if err != nil {
		return "", errors.Wrap(err, "parse page")
	}

	p.strip(doc, targetURL, mode)

	head := doc.Find("head")
	head.PrependHtml(hideChromeCSS)
	// Relative asset references must resolve against the page's own
	// origin once the HTML is served from ours.
	if doc.Find("base").Length() == 0 {
		head.PrependHtml(`<base href="` + origin + `">`)
	}

	p.rewriteStreamURLs(doc)

	html, err := doc.Html()
	if err != nil {
		return "", errors.Wrap(err, "render page")
	}
	return html, nil
}

func (p *PageCleaner) strip(doc *goquery.Document, targetURL *url.URL, mode StripMode) {
	if mode == StripNone {
		return
	}

	for _, host := range p.adHosts {
		if host != "" {
			doc.Find(`script[src*="` + host + `"]`).Remove()
		}
	}

	if mode != StripAll {
		return
	}

	doc.Find("script").Remove()

	doc.Find("iframe").Each(func(_ int, iframe *goquery.Selection) {
		src, ok := iframe.Attr("src")
		if !ok {
			return
		}
		u, err := url.Parse(src)
		if err != nil || (u.IsAbs() && u.Hostname() != targetURL.Hostname()) {
			iframe.Remove()
		}
	})

	doc.Find("div, section, aside").Each(func(_ int, el *goquery.Selection) {
		if isAdContainer(el) {
			el.Remove()
		}
	})
}

// isAdContainer applies the ad heuristics: id/class mentioning "ads", or
// a fixed-position full-screen overlay.
func isAdContainer(el *goquery.Selection) bool {
	id := strings.ToLower(el.AttrOr("id", ""))
	class := strings.ToLower(el.AttrOr("class", ""))
	if strings.Contains(id, "ads") || strings.Contains(class, "ads") {
		return true
	}
	style := strings.ToLower(el.AttrOr("style", ""))
	return fixedPosRe.MatchString(style) && fullSizeRe.MatchString(style)
}

// rewriteStreamURLs points every playlist URL found inside inline scripts
// at the stream proxy, so the player the page boots never leaves it.
func (p *PageCleaner) rewriteStreamURLs(doc *goquery.Document) {
	doc.Find("script").Each(func(_ int, script *goquery.Selection) {
		content := script.Text()
		if content == "" {
			return
		}

		replaced := scriptURLRe.ReplaceAllStringFunc(content, func(found string) string {
			if !IsManifest(found, "") {
				return found
			}
			return p.streamRoute + url.QueryEscape(found)
		})
		if replaced != content {
			script.SetHtml(replaced)
		}
	})
}
