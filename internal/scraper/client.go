package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/hdmirror/hdmirror/internal/config"
	"github.com/hdmirror/hdmirror/internal/models"
	"github.com/hdmirror/hdmirror/internal/util"
)

// Client is the extraction facade consumed by the HTTP layer. Every call
// is a stateless fetch-and-parse of one upstream document; the only state
// is the bounded-TTL fetch cache.
type Client struct {
	fetcher     *Fetcher
	origin      *OriginResolver
	streamHosts []string
	detailOpts  DetailOptions
	altHosts    []string
}

// NewClient wires a client from configuration.
func NewClient(cfg *config.Config) *Client {
	var cache *util.ResponseCache
	if cfg.Upstream.CacheTTL > 0 {
		cache = util.NewResponseCache(cfg.Upstream.CacheTTL.Std(), cfg.Upstream.CacheSize)
	}
	return &Client{
		fetcher: NewFetcher(cfg.Upstream.UserAgent, cache),
		origin: NewOriginResolver(
			cfg.Upstream.BaseURL,
			cfg.Upstream.OriginProbe,
			cfg.Upstream.OriginTTL.Std(),
		),
		streamHosts: cfg.Extract.StreamHostSubstrings,
		detailOpts: DetailOptions{
			LinkHostPatterns: cfg.Extract.LinkHostPatterns,
			EmbedHosts:       cfg.Proxy.EmbedHosts,
		},
		altHosts: cfg.Upstream.AltHostSubstrings,
	}
}

// HostRules returns the current same-site matching rules.
func (c *Client) HostRules() HostRules {
	return HostRules{Host: c.origin.Host(), AltSubstrings: c.altHosts}
}

// HomepageMovies returns the listing of the homepage or of /page/N.
func (c *Client) HomepageMovies(ctx context.Context, page int) ([]models.MovieSummary, error) {
	origin := c.origin.Origin(ctx)
	pageURL := origin
	if page > 1 {
		pageURL = fmt.Sprintf("%s/page/%d", origin, page)
	}
	return c.listing(ctx, pageURL)
}

// CategoryMovies returns the listing of a category page. The path may or
// may not carry the /category/ prefix.
func (c *Client) CategoryMovies(ctx context.Context, path string, page int) ([]models.MovieSummary, error) {
	origin := c.origin.Origin(ctx)
	clean := strings.TrimPrefix(strings.TrimPrefix(path, "/category/"), "/")
	pageURL := origin + "/category/" + clean
	if page > 1 {
		pageURL = fmt.Sprintf("%s/page/%d", strings.TrimSuffix(pageURL, "/"), page)
	}
	return c.listing(ctx, pageURL)
}

// SearchResults returns the listing for a search query.
func (c *Client) SearchResults(ctx context.Context, query string) ([]models.MovieSummary, error) {
	origin := c.origin.Origin(ctx)
	return c.listing(ctx, origin+"/?s="+url.QueryEscape(query))
}

// MovieDetails fetches and extracts one detail page. A nil record with a
// nil error means the page exists but no title could be located.
func (c *Client) MovieDetails(ctx context.Context, path string) (*models.MovieDetails, error) {
	origin := c.origin.Origin(ctx)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	html, err := c.fetcher.FetchHTML(ctx, origin+path)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "parse detail page")
	}

	return ParseDetail(doc, path, c.HostRules(), c.detailOpts), nil
}

// ClassifiedLinks partitions a detail record's flat links into watch and
// download groups using the configured streaming hosts.
func (c *Client) ClassifiedLinks(details *models.MovieDetails) ClassifiedLinks {
	return ClassifyLinks(details.DownloadLinks, c.streamHosts)
}

func (c *Client) listing(ctx context.Context, pageURL string) ([]models.MovieSummary, error) {
	html, err := c.fetcher.FetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "parse listing page")
	}

	movies := ParseListing(doc, c.HostRules())
	util.Debug("listing parsed", "url", pageURL, "movies", len(movies))
	return movies, nil
}
