package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hdmirror/hdmirror/internal/models"
)

// ListingStrategy extracts movie summaries from one known markup layout.
// Strategies are pure: same document and rules, same result.
type ListingStrategy struct {
	Name    string
	Extract func(doc *goquery.Document, rules HostRules) []models.MovieSummary
}

// ListingStrategies returns the strategy cascade in priority order. The
// order reflects how often each layout survives upstream redesigns; the
// first strategy yielding at least one summary wins and the rest are
// never attempted.
func ListingStrategies() []ListingStrategy {
	return []ListingStrategy{
		{Name: "recent-grid", Extract: extractRecentGrid},
		{Name: "article-card", Extract: extractArticleCards},
		{Name: "search-result", Extract: extractSearchResults},
	}
}

// ParseListing runs the strategy cascade over a catalog page and returns
// the summaries of the first non-empty strategy, in document order.
func ParseListing(doc *goquery.Document, rules HostRules) []models.MovieSummary {
	for _, strategy := range ListingStrategies() {
		if movies := strategy.Extract(doc, rules); len(movies) > 0 {
			return movies
		}
	}
	return nil
}

func extractRecentGrid(doc *goquery.Document, rules HostRules) []models.MovieSummary {
	return collectCards(doc.Find("ul.recent-movies li.thumb"), rules)
}

func extractArticleCards(doc *goquery.Document, rules HostRules) []models.MovieSummary {
	return collectCards(doc.Find("article.TPost.B"), rules)
}

// collectCards handles the "image card" layouts: each container holds an
// anchor, a poster image whose alt text doubles as the title, and
// optionally a caption used as a title fallback.
func collectCards(containers *goquery.Selection, rules HostRules) []models.MovieSummary {
	var movies []models.MovieSummary
	seen := make(map[string]struct{})

	containers.Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Find("a").First().Attr("href")
		path, ok := rules.SitePath(href)
		if !ok {
			return
		}

		img := s.Find("img").First()
		title := strings.TrimSpace(img.AttrOr("alt", ""))
		if title == "" {
			title = strings.TrimSpace(s.Find("p").First().Text())
		}
		if title == "" {
			title = strings.TrimSpace(s.Find("h2.Title a").First().Text())
		}
		imageURL := img.AttrOr("src", "")

		appendSummary(&movies, seen, title, imageURL, path)
	})
	return movies
}

// extractSearchResults handles the search layout, where the title anchor
// and the poster live in separate subtrees of the result item.
func extractSearchResults(doc *goquery.Document, rules HostRules) []models.MovieSummary {
	var movies []models.MovieSummary
	seen := make(map[string]struct{})

	doc.Find(".result-item .details .title a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		path, ok := rules.SitePath(href)
		if !ok {
			return
		}

		title := strings.TrimSpace(a.Text())
		imageURL := a.Closest(".result-item").Find("img").First().AttrOr("src", "")

		appendSummary(&movies, seen, title, imageURL, path)
	})
	return movies
}

// appendSummary applies the shared validation and per-pass dedup rules:
// all three fields non-empty, path is not the site root, first occurrence
// of a path wins.
func appendSummary(movies *[]models.MovieSummary, seen map[string]struct{}, title, imageURL, path string) {
	if title == "" || imageURL == "" || path == "" || path == "/" {
		return
	}
	if _, dup := seen[path]; dup {
		return
	}
	seen[path] = struct{}{}
	*movies = append(*movies, models.MovieSummary{
		Title:    title,
		ImageURL: imageURL,
		Path:     path,
	})
}
