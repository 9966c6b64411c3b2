package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func testRules() HostRules {
	return HostRules{Host: "example.site", AltSubstrings: []string{"hdhub4u"}}
}

func thumb(href, img, alt string) string {
	return `<li class="thumb"><a href="` + href + `"><img src="` + img + `" alt="` + alt + `"></a></li>`
}

func TestParseListingRecentGrid(t *testing.T) {
	var items strings.Builder
	items.WriteString(thumb("/movie-1/", "/img/1.jpg", "Movie One"))
	items.WriteString(thumb("/movie-2/", "/img/2.jpg", "Movie Two"))
	items.WriteString(thumb("/movie-3/", "/img/3.jpg", "Movie Three"))
	items.WriteString(thumb("/movie-4/", "/img/4.jpg", "Movie Four"))
	items.WriteString(thumb("/movie-5/", "/img/5.jpg", "Movie Five"))
	items.WriteString(thumb("/movie-6/", "/img/6.jpg", "Movie Six"))
	items.WriteString(thumb("/movie-7/", "/img/7.jpg", "Movie Seven"))

	html := `<html><body><ul class="recent-movies">` + items.String() + `</ul></body></html>`
	movies := ParseListing(mustDoc(t, html), testRules())

	require.Len(t, movies, 7)
	assert.Equal(t, "Movie One", movies[0].Title)
	assert.Equal(t, "/movie-1/", movies[0].Path)
	assert.Equal(t, "/img/1.jpg", movies[0].ImageURL)
	assert.Equal(t, "Movie Seven", movies[6].Title)

	seen := make(map[string]bool)
	for _, m := range movies {
		assert.False(t, seen[m.Path], "duplicate path %s", m.Path)
		seen[m.Path] = true
	}
}

func TestParseListingShortCircuit(t *testing.T) {
	// Both layouts present: the grid wins and the article cards are
	// never consulted.
	html := `<html><body>
		<ul class="recent-movies">` + thumb("/grid-movie/", "/img/g.jpg", "Grid Movie") + `</ul>
		<article class="TPost B"><a href="/article-movie/"><img src="/img/a.jpg" alt="Article Movie"></a></article>
	</body></html>`

	movies := ParseListing(mustDoc(t, html), testRules())
	require.Len(t, movies, 1)
	assert.Equal(t, "/grid-movie/", movies[0].Path)
}

func TestParseListingArticleFallback(t *testing.T) {
	html := `<html><body>
		<article class="TPost B"><a href="/article-movie/"><img src="/img/a.jpg" alt="Article Movie"></a></article>
	</body></html>`

	movies := ParseListing(mustDoc(t, html), testRules())
	require.Len(t, movies, 1)
	assert.Equal(t, "Article Movie", movies[0].Title)
}

func TestParseListingSearchFallback(t *testing.T) {
	html := `<html><body>
		<div class="result-item">
			<img src="/img/s.jpg">
			<div class="details"><div class="title"><a href="/search-movie/">Search Movie</a></div></div>
		</div>
	</body></html>`

	movies := ParseListing(mustDoc(t, html), testRules())
	require.Len(t, movies, 1)
	assert.Equal(t, "Search Movie", movies[0].Title)
	assert.Equal(t, "/img/s.jpg", movies[0].ImageURL)
}

func TestParseListingHostRules(t *testing.T) {
	tests := []struct {
		name      string
		href      string
		wantPaths []string
	}{
		{
			name:      "same host absolute converts to relative",
			href:      "https://example.site/kept-movie/",
			wantPaths: []string{"/kept-movie/"},
		},
		{
			name:      "mirror domain converts to relative",
			href:      "https://hdhub4u.example/mirror-movie/",
			wantPaths: []string{"/mirror-movie/"},
		},
		{
			name:      "off-site absolute is dropped silently",
			href:      "https://ads.other.host/spam/",
			wantPaths: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<html><body><ul class="recent-movies">` +
				thumb(tt.href, "/img/x.jpg", "Some Movie") +
				`</ul></body></html>`

			movies := ParseListing(mustDoc(t, html), testRules())
			var paths []string
			for _, m := range movies {
				paths = append(paths, m.Path)
			}
			assert.Equal(t, tt.wantPaths, paths)
		})
	}
}

func TestParseListingValidation(t *testing.T) {
	html := `<html><body><ul class="recent-movies">` +
		thumb("/", "/img/root.jpg", "Site Root") + // root path rejected
		thumb("/no-image/", "", "No Image") + // empty image rejected
		`<li class="thumb"><a href="/no-title/"><img src="/img/n.jpg" alt=""></a></li>` +
		thumb("/dup/", "/img/d1.jpg", "Dup First") +
		thumb("/dup/", "/img/d2.jpg", "Dup Second") +
		`</ul></body></html>`

	movies := ParseListing(mustDoc(t, html), testRules())
	require.Len(t, movies, 1)
	assert.Equal(t, "Dup First", movies[0].Title)
}

func TestParseListingTitleFallbackToText(t *testing.T) {
	html := `<html><body><ul class="recent-movies">
		<li class="thumb"><a href="/text-title/"><img src="/img/t.jpg" alt=""></a><p> Caption Title </p></li>
	</ul></body></html>`

	movies := ParseListing(mustDoc(t, html), testRules())
	require.Len(t, movies, 1)
	assert.Equal(t, "Caption Title", movies[0].Title)
}
