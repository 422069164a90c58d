// Package server implements the preview server: it serves the promoted
// output tree, rebuilds on filesystem changes, pushes live reload events to
// browsers and republishes future-dated documents on a schedule.
package server

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/elyseproject/elyse/internal/build"
	"github.com/elyseproject/elyse/internal/config"
	"github.com/elyseproject/elyse/internal/logfields"
	"github.com/elyseproject/elyse/internal/metrics"
	"github.com/elyseproject/elyse/internal/pipeline"
	"github.com/elyseproject/elyse/internal/store"
)

// BuilderFactory constructs the build pipeline for a configuration. The
// serve command wires the store, notifier and metrics recorder inside the
// factory so a configuration reload rebuilds the pipeline with the same
// attachments.
type BuilderFactory func(cfg *config.Config) *build.Builder

// Server owns the preview lifecycle. Run blocks until the context is
// canceled.
type Server struct {
	root       string
	configPath string
	factory    BuilderFactory

	mu      sync.RWMutex // guards cfg and builder across config reloads
	cfg     *config.Config
	builder *build.Builder

	buildMu sync.Mutex // one pass at a time across watcher and scheduler

	hub      *Hub
	store    store.Store
	registry *prom.Registry

	state     buildState
	startTime time.Time

	// ln overrides the configured listen address when pre-bound.
	ln         net.Listener
	httpServer *http.Server
}

// New assembles a preview server for the site rooted at root. configPath is
// watched for changes when non-empty; pass "" to disable config reload.
func New(root, configPath string, cfg *config.Config, factory BuilderFactory) *Server {
	return &Server{
		root:       root,
		configPath: configPath,
		factory:    factory,
		cfg:        cfg,
		builder:    factory(cfg),
		hub:        NewHub(),
		startTime:  time.Now(),
	}
}

// WithStore exposes build history at /api/builds.
func (s *Server) WithStore(st store.Store) *Server { s.store = st; return s }

// WithMetricsRegistry exposes reg at /metrics.
func (s *Server) WithMetricsRegistry(reg *prom.Registry) *Server { s.registry = reg; return s }

// Run binds the listen address, runs an initial build pass and serves until
// ctx is canceled. The listener is bound before the first pass so an
// occupied port fails fast instead of after a long build.
func (s *Server) Run(ctx context.Context) error {
	ln := s.ln
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.cfg.Serve.Addr)
		if err != nil {
			return fmt.Errorf("bind %s: %w", s.cfg.Serve.Addr, err)
		}
	}

	s.rebuild(ctx, "startup")

	watcher, err := NewWatcher(s.watchRoots()...)
	if err != nil {
		_ = ln.Close()
		return err
	}
	go watcher.Run(ctx, func(ctx context.Context) {
		s.rebuild(ctx, "filesystem change")
	})

	if s.configPath != "" {
		cw, err := NewConfigWatcher(s.configPath, s.reloadConfig)
		if err != nil {
			slog.Warn("Configuration watching unavailable", logfields.Error(err))
		} else {
			go cw.Run(ctx)
		}
	}

	sched, err := NewScheduler()
	if err != nil {
		slog.Warn("Scheduled republish unavailable", logfields.Error(err))
	} else {
		interval := s.currentConfig().RepublishInterval()
		if _, err := sched.ScheduleRepublish(interval, func() {
			s.rebuild(ctx, "scheduled republish")
		}); err != nil {
			slog.Warn("Scheduled republish unavailable", logfields.Error(err))
		} else {
			sched.Start()
			slog.Info("Scheduled republish active", slog.Duration("interval", interval))
		}
	}

	s.httpServer = &http.Server{
		Handler: s.routes(),
		// No write timeout: /livereload connections are long-lived.
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	slog.Info("Preview server listening",
		logfields.Addr(ln.Addr().String()),
		logfields.Path(s.currentBuilder().OutputDir()))

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	// SSE streams never go idle, so the hub must disconnect them before
	// Shutdown can drain the server.
	s.hub.Shutdown()
	if sched != nil {
		if err := sched.Stop(); err != nil {
			slog.Warn("Scheduler shutdown failed", logfields.Error(err))
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown preview server: %w", err)
	}
	slog.Info("Preview server stopped")
	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/livereload", s.hub)
	mux.HandleFunc("/livereload.js", serveReloadScript)
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/builds", s.handleRecentBuilds)
	mux.Handle("/", injectReloadScript(http.HandlerFunc(s.serveSite)))
	return mux
}

// serveSite serves the promoted output tree. The root is resolved per
// request because a configuration reload can move the output directory.
func (s *Server) serveSite(w http.ResponseWriter, r *http.Request) {
	root := s.currentBuilder().OutputDir()
	http.FileServer(http.Dir(root)).ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	st := s.state.snapshot()
	status := "ok"
	code := http.StatusOK
	switch {
	case !st.hasGood:
		status = "unavailable"
		code = http.StatusServiceUnavailable
	case st.err != nil || st.outcome == pipeline.OutcomeFailed:
		// A previous pass promoted a tree, so the site still serves.
		status = "degraded"
	}

	resp := healthResponse{
		Status:        status,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		LastBuildID:   st.buildID,
		LastOutcome:   string(st.outcome),
	}
	if st.err != nil {
		resp.LastError = st.err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Debug("Health response write failed", logfields.Error(err))
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	LastBuildID   string `json:"last_build_id,omitempty"`
	LastOutcome   string `json:"last_outcome,omitempty"`
	LastError     string `json:"last_error,omitempty"`
}

func (s *Server) handleRecentBuilds(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.store == nil {
		_, _ = w.Write([]byte("[]\n"))
		return
	}
	recs, err := s.store.RecentBuilds(r.Context(), 20)
	if err != nil {
		slog.Warn("Build history query failed", logfields.Error(err))
		http.Error(w, "build history unavailable", http.StatusInternalServerError)
		return
	}
	rows := make([]buildRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, buildRow{
			BuildID:    rec.BuildID,
			Started:    rec.Started.UTC().Format(time.RFC3339),
			DurationMS: rec.Duration.Milliseconds(),
			Outcome:    rec.Outcome,
			Documents:  rec.Documents,
			Rendered:   rec.Rendered,
			CacheHits:  rec.CacheHits,
			Errors:     rec.ErrorCount,
			Warnings:   rec.WarningCount,
		})
	}
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		slog.Debug("Build history response write failed", logfields.Error(err))
	}
}

type buildRow struct {
	BuildID    string `json:"build_id"`
	Started    string `json:"started"`
	DurationMS int64  `json:"duration_ms"`
	Outcome    string `json:"outcome"`
	Documents  int    `json:"documents"`
	Rendered   int    `json:"rendered"`
	CacheHits  int    `json:"cache_hits"`
	Errors     int    `json:"errors"`
	Warnings   int    `json:"warnings"`
}

// rebuild runs one pass and records the result. Passes serialize on
// buildMu so watcher and scheduler triggers never overlap. Browsers are
// only told about promoted builds; a failed pass keeps them on the
// previous tree instead of reloading into an error.
func (s *Server) rebuild(ctx context.Context, reason string) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	if ctx.Err() != nil {
		return
	}

	slog.Info("Rebuilding site", slog.String("reason", reason))
	rep, err := s.currentBuilder().Build(ctx)
	s.state.record(rep, err)
	if err != nil {
		slog.Warn("Rebuild failed", slog.String("reason", reason), logfields.Error(err))
		return
	}
	if rep.Promoted {
		s.hub.Broadcast(rep.BuildID)
	}
}

func (s *Server) currentBuilder() *build.Builder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builder
}

func (s *Server) currentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// reloadConfig loads and validates the configuration file, swaps in a new
// build pipeline and runs a pass with it. An invalid file leaves the
// previous configuration in effect.
func (s *Server) reloadConfig(ctx context.Context) error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.cfg
	if cfg.Serve.Addr != old.Serve.Addr {
		slog.Warn("serve.addr changed, restart to apply", logfields.Addr(cfg.Serve.Addr))
	}
	if cfg.Content.Dir != old.Content.Dir ||
		cfg.Content.StaticDir != old.Content.StaticDir ||
		cfg.Templates.Dir != old.Templates.Dir {
		slog.Warn("Watched directories changed, restart to pick up the new paths")
	}
	s.cfg = cfg
	s.builder = s.factory(cfg)
	s.mu.Unlock()

	slog.Info("Configuration reloaded", logfields.Path(s.configPath))
	s.rebuild(ctx, "configuration change")
	return nil
}

func (s *Server) watchRoots() []string {
	cfg := s.currentConfig()
	return []string{
		resolveDir(s.root, cfg.Content.Dir),
		resolveDir(s.root, cfg.Templates.Dir),
		resolveDir(s.root, cfg.Content.StaticDir),
	}
}

func resolveDir(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, filepath.FromSlash(dir))
}

// buildState tracks the latest pass for /healthz and distinguishes "no
// good build yet" from "last pass failed but an older tree still serves".
type buildState struct {
	mu sync.RWMutex
	st buildStatus
}

type buildStatus struct {
	outcome pipeline.BuildOutcome
	buildID string
	err     error
	hasGood bool
}

func (bs *buildState) record(rep *pipeline.BuildReport, err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.st.err = err
	if rep != nil {
		bs.st.outcome = rep.Outcome
		bs.st.buildID = rep.BuildID
		if rep.Promoted {
			bs.st.hasGood = true
		}
	}
}

func (bs *buildState) snapshot() buildStatus {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.st
}
