// Package server serves the generated report for local preview.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
)

// Server represents preview HTTP server instance
type Server struct {
	config     ConfigProvider
	reportPath string
	rssPath    string
	version    string
	debug      bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// Params defines what the server exposes
type Params struct {
	ReportPath string // generated html report, served at /
	RSSPath    string // optional RSS feed, served under its file name
	Version    string
	Debug      bool
}

// New initializes a new server instance
func New(cfg ConfigProvider, params Params) *Server {
	s := &Server{
		config:     cfg,
		reportPath: params.ReportPath,
		rssPath:    params.RSSPath,
		version:    params.Version,
		debug:      params.Debug,
		router:     routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	log.Printf("[INFO] starting preview server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down preview server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.lock.Lock()
		defer s.lock.Unlock()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("signalscope", "umputun", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(64 * 1024)) // read-only server, no request bodies expected
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.reportHandler)
	if s.rssPath != "" {
		s.router.HandleFunc("GET /"+filepath.Base(s.rssPath), s.rssHandler)
	}
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
	})
}

// reportHandler serves the generated html report
func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, s.reportPath, "text/html; charset=utf-8")
}

// rssHandler serves the generated RSS feed
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, s.rssPath, "application/rss+xml; charset=utf-8")
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, path, contentType string) {
	data, err := os.ReadFile(path) //nolint:gosec // path is set by the operator
	if err != nil {
		log.Printf("[ERROR] can't read %s: %v", path, err)
		renderError(w, r, fmt.Errorf("report not available"), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(data); err != nil {
		log.Printf("[WARN] failed to write %s: %v", path, err)
	}
}

// statusHandler returns server status and report file info
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	if fi, err := os.Stat(s.reportPath); err == nil {
		status["report_updated"] = fi.ModTime().UTC()
		status["report_size"] = fi.Size()
	}
	renderJSON(w, r, http.StatusOK, status)
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
