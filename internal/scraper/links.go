package scraper

import (
	"strings"

	"github.com/hdmirror/hdmirror/internal/models"
)

// ClassifiedLinks is an order-preserving partition of harvested links.
type ClassifiedLinks struct {
	Watch    []models.DownloadLink `json:"watch"`
	Download []models.DownloadLink `json:"download"`
}

// ClassifyLinks partitions links into watch/stream candidates and plain
// downloads. A link is a watch candidate when its label mentions "watch"
// or its URL matches one of the known streaming-host substrings. The
// partition never drops or merges entries; classifying an already
// classified list again yields the same result.
func ClassifyLinks(links []models.DownloadLink, streamHosts []string) ClassifiedLinks {
	var out ClassifiedLinks
	for _, link := range links {
		if isWatchLink(link, streamHosts) {
			out.Watch = append(out.Watch, link)
		} else {
			out.Download = append(out.Download, link)
		}
	}
	return out
}

func isWatchLink(link models.DownloadLink, streamHosts []string) bool {
	if strings.Contains(strings.ToLower(link.Quality), "watch") ||
		strings.Contains(strings.ToLower(link.Title), "watch") {
		return true
	}
	for _, host := range streamHosts {
		if host != "" && strings.Contains(link.URL, host) {
			return true
		}
	}
	return false
}
