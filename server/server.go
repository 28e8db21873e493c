// Package server provides HTTP trigger surface of the digest pipeline.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/maildigest/pkg/domain"
	"github.com/umputun/maildigest/pkg/feed"
	"github.com/umputun/maildigest/pkg/repository"
	"github.com/umputun/maildigest/pkg/scheduler"
)

//go:generate moq -out mocks/runner.go -pkg mocks -skip-ensure -fmt goimports . Runner
//go:generate moq -out mocks/history.go -pkg mocks -skip-ensure -fmt goimports . History
//go:generate moq -out mocks/newsletters.go -pkg mocks -skip-ensure -fmt goimports . Newsletters

const serviceName = "maildigest"

// Server represents HTTP server instance
type Server struct {
	cfg    Config
	params Params
	now    func() time.Time

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Config holds server settings
type Config struct {
	Listen      string
	Timeout     time.Duration
	VerifyToken string // empty disables trigger verification
	Version     string
	Debug       bool
}

// Runner accepts run triggers and reports its state
type Runner interface {
	Trigger(source string) bool
	Status() scheduler.Status
}

// History provides finished runs
type History interface {
	ListRuns(ctx context.Context, limit int) ([]domain.RunResult, error)
}

// Newsletters provides archived newsletters
type Newsletters interface {
	ListNewsletters(ctx context.Context, limit int) ([]repository.ArchivedNewsletter, error)
	GetNewsletter(ctx context.Context, id int64) (*repository.ArchivedNewsletter, error)
}

// Params holds server collaborators, all but Runner optional
type Params struct {
	Runner      Runner
	History     History
	Newsletters Newsletters
	Metrics     http.Handler
}

// New initializes a new server instance
func New(cfg Config, params Params) *Server {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	s := &Server{
		cfg:    cfg,
		params: params,
		now:    time.Now,
		router: routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[INFO] starting server on %s", s.cfg.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.Timeout,
		ReadTimeout:       s.cfg.Timeout,
		WriteTimeout:      s.cfg.Timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
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
	s.router.Use(rest.AppInfo(serviceName, "umputun", s.cfg.Version))
	s.router.Use(rest.Ping)

	if s.cfg.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.healthHandler)
	s.router.HandleFunc("/{$}", methodNotAllowed)
	s.router.HandleFunc("POST /run-pipeline", s.runPipelineHandler)
	s.router.HandleFunc("/run-pipeline", methodNotAllowed)

	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		if s.params.History != nil {
			r.HandleFunc("GET /runs", s.runsHandler)
		}
		if s.params.Newsletters != nil {
			r.HandleFunc("GET /newsletters", s.newslettersHandler)
			r.HandleFunc("GET /newsletters/{id}", s.newsletterHandler)
		}
	})

	if s.params.Newsletters != nil {
		s.router.HandleFunc("GET /rss", s.rssHandler)
	}

	if s.params.Metrics != nil {
		s.router.Handle("GET /metrics", s.params.Metrics)
	}
}

// healthHandler reports the service is alive
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	RenderJSON(w, r, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": s.now().Format(time.RFC3339),
	})
}

// runPipelineHandler queues a pipeline run and answers right away
func (s *Server) runPipelineHandler(w http.ResponseWriter, r *http.Request) {
	if s.cfg.VerifyToken != "" {
		provided := r.Header.Get("X-Verify-Token")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.cfg.VerifyToken)) != 1 {
			lgr.Printf("[WARN] rejected pipeline trigger from %s, bad verify token", r.RemoteAddr)
			RenderError(w, r, errors.New("unauthorized"), http.StatusUnauthorized)
			return
		}
	}

	lgr.Printf("[INFO] pipeline trigger received from %q", r.UserAgent())
	msg := "pipeline running, you will receive the newsletter shortly"
	if !s.params.Runner.Trigger("api") {
		msg = "pipeline run already queued, you will receive the newsletter shortly"
	}
	RenderJSON(w, r, http.StatusAccepted, map[string]any{
		"status":    "accepted",
		"message":   msg,
		"timestamp": s.now().Format(time.RFC3339),
	})
}

// statusHandler returns runner state
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	RenderJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.cfg.Version,
		"time":    s.now().UTC(),
		"runner":  s.params.Runner.Status(),
	})
}

// runsHandler returns recent runs, ?limit=N
func (s *Server) runsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}
	runs, err := s.params.History.ListRuns(r.Context(), limit)
	if err != nil {
		lgr.Printf("[ERROR] failed to list runs: %v", err)
		RenderError(w, r, errors.New("can't list runs"), http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, runs)
}

// newslettersHandler lists archived newsletters, ?limit=N
func (s *Server) newslettersHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}
	list, err := s.params.Newsletters.ListNewsletters(r.Context(), limit)
	if err != nil {
		lgr.Printf("[ERROR] failed to list newsletters: %v", err)
		RenderError(w, r, errors.New("can't list newsletters"), http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, list)
}

// newsletterHandler serves archived newsletter html
func (s *Server) newsletterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		RenderError(w, r, errors.New("invalid newsletter id"), http.StatusBadRequest)
		return
	}
	n, err := s.params.Newsletters.GetNewsletter(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		RenderError(w, r, err, http.StatusNotFound)
		return
	}
	if err != nil {
		lgr.Printf("[ERROR] failed to get newsletter %d: %v", id, err)
		RenderError(w, r, errors.New("can't get newsletter"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(n.HTML))
}

// rssHandler serves feed of recent archived newsletters
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	list, err := s.params.Newsletters.ListNewsletters(r.Context(), 50)
	if err != nil {
		lgr.Printf("[ERROR] failed to list newsletters for rss: %v", err)
		http.Error(w, "can't list newsletters", http.StatusInternalServerError)
		return
	}
	entries := make([]feed.Entry, 0, len(list))
	for _, n := range list {
		entries = append(entries, feed.Entry{ID: n.ID, Title: n.Title, Published: n.CreatedAt})
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	out, err := feed.NewGenerator(scheme + "://" + r.Host).GenerateRSS(entries)
	if err != nil {
		lgr.Printf("[ERROR] failed to generate rss: %v", err)
		http.Error(w, "can't generate rss", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	RenderError(w, r, errors.New("method not allowed"), http.StatusMethodNotAllowed)
}

func limitParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("invalid limit %q", v)
	}
	return min(limit, 500), nil
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
