package scraper

import "github.com/hdmirror/hdmirror/internal/models"

// Categories returns the static category menu. The upstream exposes no
// reliable category index page, so this is reference data.
func Categories() []models.Category {
	return []models.Category{
		{Name: "300MB Movies", Path: "/category/300mb-movies/"},
		{Name: "Action", Path: "/category/action-movies/"},
		{Name: "Adventure", Path: "/category/adventure/"},
		{Name: "Animation", Path: "/category/animated-movies/"},
		{Name: "Bollywood", Path: "/category/bollywood-movies/"},
		{Name: "Comedy", Path: "/category/comedy-movies/"},
		{Name: "Crime", Path: "/category/crime/"},
		{Name: "Documentary", Path: "/category/documentary/"},
		{Name: "Drama", Path: "/category/drama/"},
		{Name: "Dual Audio", Path: "/category/dual-audio/"},
		{Name: "Family", Path: "/category/family/"},
		{Name: "Fantasy", Path: "/category/fantasy/"},
		{Name: "HD Movies", Path: "/category/hd-movies/"},
		{Name: "Hindi Dubbed", Path: "/category/hindi-dubbed/"},
		{Name: "Hollywood", Path: "/category/hollywood-movies/"},
		{Name: "Horror", Path: "/category/horror-movies/"},
		{Name: "Movie Series", Path: "/category/movie-series-collection/"},
		{Name: "Mystery", Path: "/category/mystery/"},
		{Name: "Romance", Path: "/category/romantic-movies/"},
		{Name: "Sci-Fi", Path: "/category/sci-fi/"},
		{Name: "Thriller", Path: "/category/thriller/"},
		{Name: "TV Shows", Path: "/category/tv-shows/"},
		{Name: "War", Path: "/category/war/"},
		{Name: "Web Series", Path: "/category/web-series/"},
	}
}
