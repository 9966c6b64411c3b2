// Package models defines the catalog data model shared by the scraper,
// proxy and HTTP layers.
package models

// MovieSummary is a single entry of a listing page (home, category or
// search results). Path is site-relative and is the identity of the movie.
type MovieSummary struct {
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
	Path     string `json:"path"`
}

// DownloadLink is one harvested anchor pointing at an off-site file host.
// Quality carries the anchor's visible label; links are unique by URL
// within one extraction pass.
type DownloadLink struct {
	Title   string `json:"title"`
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

// Episode groups the download links that belong to one episode header on
// a series page. Numbers are 1-based in document order of the headers.
type Episode struct {
	Number        int            `json:"number"`
	Title         string         `json:"title"`
	DownloadLinks []DownloadLink `json:"downloadLinks"`
}

// Trailer is an embedded trailer video.
type Trailer struct {
	URL string `json:"url"`
}

// MovieDetails is the full record extracted from a detail page. A details
// value only exists when a title could be located; every other field is
// best effort and may be empty.
//
// DownloadLinks and the links inside EpisodeList are disjoint by URL:
// once a link is claimed by an episode it is removed from the flat list.
type MovieDetails struct {
	MovieSummary

	Description   string         `json:"description"`
	Category      string         `json:"category,omitempty"`
	Rating        string         `json:"rating,omitempty"`
	Language      string         `json:"language,omitempty"`
	Director      string         `json:"director,omitempty"`
	Stars         string         `json:"stars,omitempty"`
	ReleaseDate   string         `json:"releaseDate,omitempty"`
	IMDbID        string         `json:"imdbId,omitempty"`
	IMDbURL       string         `json:"imdbUrl,omitempty"`
	Trailer       *Trailer       `json:"trailer,omitempty"`
	Screenshots   []string       `json:"screenshots"`
	DownloadLinks []DownloadLink `json:"downloadLinks"`
	EpisodeList   []Episode      `json:"episodeList,omitempty"`
}

// Category is static reference data for the category menu; it is never
// derived from scraping.
type Category struct {
	Name string `json:"name"`
	Path string `json:"path"`
}
