package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hdmirror/hdmirror/internal/models"
	"github.com/hdmirror/hdmirror/internal/proxy"
	"github.com/hdmirror/hdmirror/internal/scraper"
	"github.com/hdmirror/hdmirror/internal/util"
)

type listingResponse struct {
	Movies []models.MovieSummary `json:"movies"`
}

type detailResponse struct {
	Movie *models.MovieDetails `json:"movie"`
}

type categoriesResponse struct {
	Categories []models.Category `json:"categories"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		util.Debug("encode response failed", "err", err)
	}
}

// handleListing serves GET /listing?{page|category|query}. Query wins
// over category, category over the homepage.
func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid page"})
			return
		}
		page = parsed
	}

	var (
		movies []models.MovieSummary
		err    error
	)
	switch {
	case q.Get("query") != "":
		movies, err = s.catalog.SearchResults(ctx, q.Get("query"))
	case q.Get("category") != "":
		movies, err = s.catalog.CategoryMovies(ctx, q.Get("category"), page)
	default:
		movies, err = s.catalog.HomepageMovies(ctx, page)
	}

	if err != nil {
		upstreamFailuresTotal.Inc()
		util.Error("listing fetch failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "upstream fetch failed"})
		return
	}
	if movies == nil {
		movies = []models.MovieSummary{}
	}
	writeJSON(w, http.StatusOK, listingResponse{Movies: movies})
}

// handleDetail serves GET /detail/{path}. A page whose extraction yields
// no title is a 404, not a partial record.
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing path"})
		return
	}

	details, err := s.catalog.MovieDetails(r.Context(), "/"+strings.TrimPrefix(path, "/"))
	if err != nil {
		upstreamFailuresTotal.Inc()
		util.Error("detail fetch failed", "path", path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "upstream fetch failed"})
		return
	}
	if details == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "movie not found"})
		return
	}
	writeJSON(w, http.StatusOK, detailResponse{Movie: details})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: scraper.Categories()})
}

// handleProxyPage serves GET /proxy/page?url=&strip=. The strip parameter
// selects the script-stripping policy: none, trackers (default), all.
func (s *Server) handleProxyPage(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url parameter is required"})
		return
	}

	mode := proxy.StripTrackers
	switch r.URL.Query().Get("strip") {
	case "", "trackers":
	case "none":
		mode = proxy.StripNone
	case "all":
		mode = proxy.StripAll
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid strip mode"})
		return
	}

	html, err := s.pages.Clean(r.Context(), target, mode)
	if err != nil {
		status := http.StatusBadGateway
		if pe, ok := err.(*proxy.PageError); ok && pe.Status != 0 {
			status = pe.Status
		}
		upstreamFailuresTotal.Inc()
		util.Error("page proxy failed", "url", target, "err", err)
		writeJSON(w, status, errorResponse{Error: "failed to fetch the page"})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// handleProxyStream serves GET /proxy/stream/{target}. The target is the
// percent-encoded absolute URL; decode failure is a client error.
func (s *Server) handleProxyStream(w http.ResponseWriter, r *http.Request) {
	target, ok := decodeTarget(mux.Vars(r)["target"], r.URL.RawQuery)
	if !ok {
		http.Error(w, "invalid target URL", http.StatusBadRequest)
		return
	}
	s.streams.ServeTarget(r.Context(), w, target)
}

// handleProxyPlayer serves GET /proxy/player/{b64}: the sandboxed-player
// variant where the target URL arrives base64-encoded. The page is
// served with tracker stripping so the embedded player loads clean.
func (s *Server) handleProxyPlayer(w http.ResponseWriter, r *http.Request) {
	encoded := mux.Vars(r)["encoded"]

	decoded, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(encoded)
	}
	if err != nil {
		http.Error(w, "invalid player URL", http.StatusBadRequest)
		return
	}

	target := string(decoded)
	if u, err := url.Parse(target); err != nil || !u.IsAbs() {
		http.Error(w, "invalid player URL", http.StatusBadRequest)
		return
	}

	html, err := s.pages.Clean(r.Context(), target, proxy.StripTrackers)
	if err != nil {
		status := http.StatusBadGateway
		if pe, ok := err.(*proxy.PageError); ok && pe.Status != 0 {
			status = pe.Status
		}
		upstreamFailuresTotal.Inc()
		writeJSON(w, status, errorResponse{Error: "failed to fetch the player page"})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// decodeTarget recovers the absolute URL embedded in the path. Routers
// decode percent escapes in the path segment, so the value may arrive
// already decoded; a still-encoded value gets one unescape pass. The
// original query string is re-attached since it belongs to the target.
func decodeTarget(raw, rawQuery string) (string, bool) {
	if raw == "" {
		return "", false
	}
	candidate := raw
	if !strings.Contains(candidate, "://") {
		// PathUnescape, not QueryUnescape: the value was embedded in a path
		// segment, where a literal '+' is not a space.
		unescaped, err := url.PathUnescape(candidate)
		if err != nil {
			return "", false
		}
		candidate = unescaped
	}
	if rawQuery != "" {
		candidate += "?" + rawQuery
	}
	u, err := url.Parse(candidate)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", false
	}
	return candidate, true
}
