package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hdmirror/hdmirror/internal/models"
)

// Selector cascades for the fields every template places differently.
// Each list is tried in order and the first non-empty match wins; a miss
// is not an error, upstream markup drift is the steady state.
var (
	titleSelectors = []string{
		"h1.page-title .material-text",
		"h1.Title",
		".kno-ecr-pt",
	}

	imageSelectors = []string{
		"div.Image figure img",
		"div.post-thumbnail figure img",
		"p > img.aligncenter",
	}

	descriptionSelectors = []string{
		"div.kno-rdesc > div > span",
		"div.Description p",
		`h2:contains("Storyline:") + div`,
		".PZPZlf.hb8SAc .kno-rdesc",
		"div.page-body > p:first-of-type > span > em",
		`div.page-body > p:contains("DESCRIPTION:") + p`,
		"div.kno-rdesc",
		"div.page-body > p:nth-of-type(1)",
	}

	infoContainers = []string{
		".kp-hc .mod",
		".tec-info",
		".page-body > div",
		".page-body > p",
		".page-body span",
		".yQ8hqd.ksSzJd.w6Utff",
		"div.entry.clearfix",
	}

	linkSelectors = []string{
		".page-body p a",
		".entry-content p a",
		".entry-content em a",
		".page-body h2 a",
		".page-body h3 a",
		".page-body h4 a",
		".page-body h5 a",
		".entry-content h2 a",
		".entry-content h3 a",
		".entry-content h4 a",
		".entry-content h5 a",
		`div[style*="text-align: center;"] a`,
	}

	screenshotSelectors = []string{
		"img.alignnone",
		`h2:contains("Screen-Shots") + h3 a img`,
		".entry-content img.alignnone",
		".page-body img.alignnone",
		".page-body p img",
		".entry-content p img",
		".page-body .aligncenter",
		".entry-content .aligncenter",
	}

	episodeHeaderSelector = ".entry-content h3, .page-body h3, .entry-content h2, .page-body h2"
)

var (
	ratingRe        = regexp.MustCompile(`([0-9.]+)/10`)
	imdbIDRe        = regexp.MustCompile(`title/(tt[0-9]+)`)
	episodeTitleCut = regexp.MustCompile(`[|:\x{2013}]`)
	downloadLinksRe = regexp.MustCompile(`(?i)download links`)
)

// metadataRule locates one label-prefixed field inside an info block.
// Labels vary in capitalization and punctuation across templates, so the
// match is a case-insensitive scan, not exact-field parsing. The first
// container to match wins that field independently of the other fields.
type metadataRule struct {
	capture *regexp.Regexp
	// cut trims trailing neighbour labels that share the container text.
	cut    *regexp.Regexp
	assign func(*models.MovieDetails, string)
	filled func(*models.MovieDetails) bool
}

var metadataRules = []metadataRule{
	{
		capture: regexp.MustCompile(`(?i)(?:genre|genres):\s*([^|]+)`),
		assign: func(d *models.MovieDetails, v string) {
			d.Category = cleanGenres(v)
		},
		filled: func(d *models.MovieDetails) bool { return d.Category != "" },
	},
	{
		capture: regexp.MustCompile(`(?i)(?:director|directors):\s*([^|]+)`),
		cut:     regexp.MustCompile(`(?i)\||Stars:|Language:`),
		assign:  func(d *models.MovieDetails, v string) { d.Director = v },
		filled:  func(d *models.MovieDetails) bool { return d.Director != "" },
	},
	{
		capture: regexp.MustCompile(`(?i)stars?:\s*([^|]+)`),
		cut:     regexp.MustCompile(`(?i)\||Director:|Language:`),
		assign:  func(d *models.MovieDetails, v string) { d.Stars = v },
		filled:  func(d *models.MovieDetails) bool { return d.Stars != "" },
	},
	{
		capture: regexp.MustCompile(`(?i)language:\s*([^|]+)`),
		cut:     regexp.MustCompile(`(?i)\||Quality:`),
		assign:  func(d *models.MovieDetails, v string) { d.Language = v },
		filled:  func(d *models.MovieDetails) bool { return d.Language != "" },
	},
	{
		capture: regexp.MustCompile(`(?i)release date:\s*([^|]+)`),
		cut:     regexp.MustCompile(`\|`),
		assign:  func(d *models.MovieDetails, v string) { d.ReleaseDate = v },
		filled:  func(d *models.MovieDetails) bool { return d.ReleaseDate != "" },
	},
}

// DetailOptions tunes the parts of detail extraction that depend on the
// deployment rather than the markup.
type DetailOptions struct {
	// LinkHostPatterns, when non-empty, restricts download links to URLs
	// containing one of the patterns.
	LinkHostPatterns []string
	// EmbedHosts recognize trailer iframes by src substring.
	EmbedHosts []string
}

// ParseDetail extracts a full movie record from a detail page. It returns
// nil only when no title selector matches non-empty text; a page with a
// title but nothing else is still found, just sparse.
func ParseDetail(doc *goquery.Document, path string, rules HostRules, opts DetailOptions) *models.MovieDetails {
	// Ad blocks carry markup that confuses the info-block scan.
	doc.Find(".code-block").Remove()

	title := firstText(doc, titleSelectors)
	if title == "" {
		return nil
	}

	details := &models.MovieDetails{
		MovieSummary: models.MovieSummary{
			Title:    title,
			ImageURL: firstAttr(doc, imageSelectors, "src"),
			Path:     path,
		},
		Description: "No description available.",
	}
	if desc := firstText(doc, descriptionSelectors); desc != "" {
		details.Description = desc
	}

	extractMetadata(doc, details)
	extractPageMeta(doc, details)

	allLinks := harvestDownloadLinks(doc, rules, opts.LinkHostPatterns)
	episodes, episodeURLs := harvestEpisodes(doc)

	// Episode ownership takes precedence: links claimed by an episode are
	// subtracted from the flat list after both passes complete.
	for _, link := range allLinks {
		if _, owned := episodeURLs[link.URL]; !owned {
			details.DownloadLinks = append(details.DownloadLinks, link)
		}
	}
	details.EpisodeList = episodes

	details.Trailer = extractTrailer(doc, opts.EmbedHosts)
	details.Screenshots = harvestScreenshots(doc, details.ImageURL)

	if details.IMDbURL != "" {
		if m := imdbIDRe.FindStringSubmatch(details.IMDbURL); m != nil {
			details.IMDbID = m[1]
		}
	}

	return details
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstAttr(doc *goquery.Document, selectors []string, attr string) string {
	for _, sel := range selectors {
		if val, ok := doc.Find(sel).First().Attr(attr); ok && val != "" {
			return val
		}
	}
	return ""
}

// extractMetadata scans the info-block containers in document order and
// applies the declarative label table plus the rating/IMDb special case.
func extractMetadata(doc *goquery.Document, details *models.MovieDetails) {
	doc.Find(strings.Join(infoContainers, ", ")).Each(func(_ int, container *goquery.Selection) {
		extractRatingAndIMDb(container, details)

		text := container.Text()
		for _, rule := range metadataRules {
			if rule.filled(details) {
				continue
			}
			m := rule.capture.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			value := m[1]
			if rule.cut != nil {
				value = rule.cut.Split(value, 2)[0]
			}
			if value = strings.TrimSpace(value); value != "" {
				rule.assign(details, value)
			}
		}
	})
}

// extractRatingAndIMDb finds an "iMDB Rating:" label next to a bold tag,
// or failing that any IMDb title link, and keeps the numeral only.
func extractRatingAndIMDb(container *goquery.Selection, details *models.MovieDetails) {
	if details.Rating != "" && details.IMDbURL != "" {
		return
	}

	container.Find("strong, b").EachWithBreak(func(_ int, bold *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(bold.Text()), "imdb rating") {
			return true
		}
		parent := bold.Parent()
		if details.Rating == "" {
			details.Rating = parseRating(parent.Text())
		}
		if details.IMDbURL == "" {
			if href, ok := parent.Find(`a[href*="imdb.com"]`).First().Attr("href"); ok {
				details.IMDbURL = href
			}
		}
		return false
	})

	if details.IMDbURL == "" {
		link := container.Find(`a[href*="imdb.com/title/"]`).First()
		if href, ok := link.Attr("href"); ok {
			details.IMDbURL = href
			if details.Rating == "" && strings.Contains(link.Text(), "/10") {
				details.Rating = parseRating(link.Text())
			}
		}
	}
}

// parseRating extracts the numeral from an "8.2/10" style fragment and
// rejects values outside the 0-10 scale.
func parseRating(text string) string {
	m := ratingRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil || val > 10 {
		return ""
	}
	return m[1]
}

// cleanGenres splits a genre blob on commas and pipes and drops tokens
// that are really neighbouring labels bleeding into the capture.
func cleanGenres(raw string) string {
	var kept []string
	for _, tok := range regexp.MustCompile(`[,|]`).Split(raw, -1) {
		tok = strings.TrimSpace(tok)
		lower := strings.ToLower(tok)
		if tok == "" || strings.Contains(lower, "director") || strings.Contains(lower, "stars") {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, ", ")
}

// extractPageMeta fills release date and category from the page-meta bar
// when the info blocks had neither.
func extractPageMeta(doc *goquery.Document, details *models.MovieDetails) {
	if details.ReleaseDate == "" {
		doc.Find(".page-meta em.material-text").EachWithBreak(func(_ int, em *goquery.Selection) bool {
			if strings.TrimSpace(em.Prev().Text()) != "" {
				return true
			}
			if text := strings.TrimSpace(em.Text()); text != "" {
				details.ReleaseDate = text
				return false
			}
			return true
		})
	}

	if details.Category == "" {
		var names []string
		doc.Find(`.page-meta a[href*="/category/"], .page-meta a[href*="/genre/"]`).Each(func(_ int, a *goquery.Selection) {
			if text := strings.TrimSpace(a.Text()); text != "" {
				names = append(names, text)
			}
		})
		details.Category = strings.Join(names, ", ")
	}
}

// harvestDownloadLinks collects direct download anchors from the content
// area. A candidate must be absolute, point off-site, be unseen in this
// pass, not be a how-to-download helper, and carry a non-trivial label.
func harvestDownloadLinks(doc *goquery.Document, rules HostRules, hostPatterns []string) []models.DownloadLink {
	var links []models.DownloadLink
	seen := make(map[string]struct{})

	doc.Find(strings.Join(linkSelectors, ", ")).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || !strings.HasPrefix(href, "http") {
			return
		}
		u, err := url.Parse(href)
		if err != nil || rules.SameSite(u.Hostname()) {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		if strings.Contains(href, "/how-to-download") {
			return
		}
		if !matchesAnyPattern(href, hostPatterns) {
			return
		}

		text := strings.TrimSpace(a.Text())
		lower := strings.ToLower(text)
		if len(text) <= 2 || lower == "here" || lower == "sample" {
			return
		}

		seen[href] = struct{}{}
		links = append(links, models.DownloadLink{Title: text, Quality: text, URL: href})
	})
	return links
}

func matchesAnyPattern(href string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if p != "" && strings.Contains(href, p) {
			return true
		}
	}
	return false
}

// harvestEpisodes groups links under episode/season headers. Returns the
// episodes plus the set of URLs they own; ownership is enforced by the
// caller via set subtraction from the flat list.
func harvestEpisodes(doc *goquery.Document) ([]models.Episode, map[string]struct{}) {
	var episodes []models.Episode
	owned := make(map[string]struct{})

	headers := doc.Find(episodeHeaderSelector).FilterFunction(func(_ int, header *goquery.Selection) bool {
		text := strings.ToLower(header.Text())
		if strings.Contains(text, "how to download") {
			return false
		}
		if !strings.Contains(text, "episode") && !strings.Contains(text, "season") {
			return false
		}
		return header.Find("a").Length() > 0 ||
			header.NextUntil("h3, h2").Find("a").Length() > 0
	})

	headers.Each(func(i int, header *goquery.Selection) {
		title := episodeTitle(header, i+1)

		// Three-tier anchor search: the header itself, then the sibling
		// run up to the next header, then all later siblings. Stop at the
		// first tier that has anchors.
		anchors := header.Find("a")
		if anchors.Length() == 0 {
			anchors = header.NextUntil("h3, h2, hr").Find("a")
		}
		if anchors.Length() == 0 {
			anchors = header.NextAll().Find("a")
		}

		var links []models.DownloadLink
		anchors.Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			text := strings.TrimSpace(a.Text())
			if !ok || text == "" || !strings.HasPrefix(href, "http") {
				return
			}
			if _, dup := owned[href]; dup {
				return
			}
			owned[href] = struct{}{}
			links = append(links, models.DownloadLink{Title: text, Quality: text, URL: href})
		})

		if len(links) > 0 {
			episodes = append(episodes, models.Episode{
				Number:        i + 1,
				Title:         title,
				DownloadLinks: links,
			})
		}
	})

	return episodes, owned
}

// episodeTitle derives a header's display title: direct text only, cut at
// the first separator, trailing "Download Links" stripped, "Part N" when
// nothing remains.
func episodeTitle(header *goquery.Selection, n int) string {
	clone := header.Clone()
	clone.Children().Remove()
	title := episodeTitleCut.Split(clone.Text(), 2)[0]
	title = strings.TrimSpace(downloadLinksRe.ReplaceAllString(title, ""))
	if title == "" {
		title = "Part " + strconv.Itoa(n)
	}
	return title
}

func extractTrailer(doc *goquery.Document, embedHosts []string) *models.Trailer {
	if len(embedHosts) == 0 {
		embedHosts = []string{"youtube.com/embed"}
	}
	var trailer *models.Trailer
	doc.Find("iframe").EachWithBreak(func(_ int, iframe *goquery.Selection) bool {
		src, ok := iframe.Attr("src")
		if !ok {
			return true
		}
		for _, host := range embedHosts {
			if host != "" && strings.Contains(src, host) {
				trailer = &models.Trailer{URL: src}
				return false
			}
		}
		return true
	})
	return trailer
}

// harvestScreenshots keeps the first occurrence of each unique image URL
// and never includes the poster.
func harvestScreenshots(doc *goquery.Document, posterURL string) []string {
	var shots []string
	seen := make(map[string]struct{})

	doc.Find(strings.Join(screenshotSelectors, ", ")).Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" || src == posterURL {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		shots = append(shots, src)
	})
	return shots
}
