package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdmirror/hdmirror/internal/config"
)

const clientListingPage = `<html><body><ul class="recent-movies">
<li class="thumb"><figure><img src="https://img.example/a.jpg" alt="Movie A"></figure><a href="/movie-a/"></a></li>
<li class="thumb"><figure><img src="https://img.example/b.jpg" alt="Movie B"></figure><a href="/movie-b/"></a></li>
</ul></body></html>`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Upstream.BaseURL = server.URL
	cfg.Upstream.OriginProbe = false
	cfg.Upstream.CacheTTL = 0
	return NewClient(cfg), server
}

func TestClientHomepageMovies(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(clientListingPage))
	}))

	movies, err := client.HomepageMovies(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "Movie A", movies[0].Title)
	assert.Equal(t, "/movie-a/", movies[0].Path)

	_, err = client.HomepageMovies(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"/", "/page/3"}, paths)
}

func TestClientCategoryMovies(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(clientListingPage))
	}))

	ctx := context.Background()
	_, err := client.CategoryMovies(ctx, "/category/bollywood-movies/", 1)
	require.NoError(t, err)
	_, err = client.CategoryMovies(ctx, "bollywood-movies/", 2)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/category/bollywood-movies/",
		"/category/bollywood-movies/page/2",
	}, paths)
}

func TestClientSearchResults(t *testing.T) {
	var query string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("s")
		_, _ = w.Write([]byte(clientListingPage))
	}))

	movies, err := client.SearchResults(context.Background(), "war 2 hindi")
	require.NoError(t, err)
	assert.Len(t, movies, 2)
	assert.Equal(t, "war 2 hindi", query)
}

func TestClientMovieDetailsNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>nothing here</p></body></html>`))
	}))

	details, err := client.MovieDetails(context.Background(), "gone-movie/")
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestClientMovieDetailsUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))

	_, err := client.MovieDetails(context.Background(), "/some-movie/")
	require.Error(t, err)
	fetchErr, ok := err.(*FetchError)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.Status)
}

func TestClientMovieDetailsPathNormalized(t *testing.T) {
	var path string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`<html><body><h1 class="page-title"><span class="material-text">Found Movie</span></h1></body></html>`))
	}))

	details, err := client.MovieDetails(context.Background(), "found-movie/")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "Found Movie", details.Title)
	assert.Equal(t, "/found-movie/", details.Path)
	assert.Equal(t, "/found-movie/", path)
}
