// Package server exposes the extraction engine and proxies over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hdmirror/hdmirror/internal/config"
	"github.com/hdmirror/hdmirror/internal/proxy"
	"github.com/hdmirror/hdmirror/internal/scraper"
	"github.com/hdmirror/hdmirror/internal/util"
)

// Server wires the catalog client and proxies into an HTTP handler.
type Server struct {
	catalog *scraper.Client
	streams *proxy.StreamProxy
	pages   *proxy.PageCleaner
	router  *mux.Router
	addr    string
}

// New builds a server from configuration.
func New(cfg *config.Config) *Server {
	s := &Server{
		catalog: scraper.NewClient(cfg),
		streams: proxy.NewStreamProxy(cfg.Upstream.UserAgent, cfg.Proxy.StreamRoute),
		pages: proxy.NewPageCleaner(
			cfg.Upstream.UserAgent,
			cfg.Proxy.AdScriptHosts,
			cfg.Proxy.StreamRoute,
		),
		addr: cfg.Server.Addr,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	// Stream targets embed absolute URLs in the path; path cleaning would
	// collapse the "//" after the scheme into a 301 to a mangled target.
	r.SkipClean(true)
	r.UseEncodedPath()
	r.Use(metricsMiddleware)

	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/listing", s.handleListing).Methods(http.MethodGet)
	r.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	r.HandleFunc("/detail/{path:.*}", s.handleDetail).Methods(http.MethodGet)

	r.HandleFunc("/proxy/page", s.handleProxyPage).Methods(http.MethodGet)
	r.HandleFunc("/proxy/stream/{target:.*}", s.handleProxyStream).Methods(http.MethodGet)
	r.HandleFunc("/proxy/player/{encoded}", s.handleProxyPlayer).Methods(http.MethodGet)

	return r
}

// Handler returns the root HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	util.Info("listening", "addr", s.addr)
	return srv.ListenAndServe()
}
