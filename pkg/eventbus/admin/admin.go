// Package admin exposes a read-only HTTP view of a running bus: persisted
// bindings and scheduler/pool counters.
//
//	router := admin.NewRouter(
//	    admin.WithBindings(reg),
//	    admin.WithLoop(loop),
//	    admin.WithPool(workers),
//	)
//	http.ListenAndServe(":8080", router)
//
// Routes:
//
//	GET /healthz       liveness and uptime
//	GET /v1/bindings   persisted registrations in order
//	GET /v1/stats      scheduler and pool counters
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
	"github.com/randalmurphal/eventbus/pkg/eventbus/pool"
	"github.com/randalmurphal/eventbus/pkg/eventbus/registry"
	"github.com/randalmurphal/eventbus/pkg/eventbus/scheduler"
)

// ErrNoBindings is reported when no persistent registry was configured.
var ErrNoBindings = errors.New("registry does not persist bindings")

// BindingLister lists persisted registrations. *registry.SQL implements it.
type BindingLister interface {
	Bindings(ctx context.Context) ([]registry.Binding, error)
}

// LoopStats reports scheduler counters. *scheduler.Loop implements it.
type LoopStats interface {
	Stats() scheduler.Stats
}

// PoolStats reports pool counters. *pool.Pool implements it.
type PoolStats interface {
	Stats() pool.Stats
}

type server struct {
	bindings BindingLister
	loop     LoopStats
	pool     PoolStats
	logger   *slog.Logger
	timeout  time.Duration
	started  time.Time
}

// Option configures the admin router.
type Option func(*server)

// WithBindings serves /v1/bindings from b.
func WithBindings(b BindingLister) Option {
	return func(s *server) { s.bindings = b }
}

// WithLoop includes l in /v1/stats.
func WithLoop(l LoopStats) Option {
	return func(s *server) { s.loop = l }
}

// WithPool includes p in /v1/stats.
func WithPool(p PoolStats) Option {
	return func(s *server) { s.pool = p }
}

// WithLogger sets the logger for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeout bounds each request. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(s *server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewRouter builds the admin HTTP handler.
func NewRouter(opts ...Option) http.Handler {
	s := &server{
		logger:  observability.DiscardLogger(),
		timeout: 10 * time.Second,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(s.timeout))

	router.Get("/healthz", s.handleHealth)
	router.Route("/v1", func(r chi.Router) {
		r.Get("/bindings", s.handleBindings)
		r.Get("/stats", s.handleStats)
	})
	return router
}

type bindingView struct {
	Sequence     int64     `json:"sequence"`
	Key          string    `json:"key"`
	Handler      string    `json:"handler"`
	RegisteredAt time.Time `json:"registered_at"`
}

type statsView struct {
	Scheduler *scheduler.Stats `json:"scheduler,omitempty"`
	Pool      *pool.Stats      `json:"pool,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *server) handleBindings(w http.ResponseWriter, r *http.Request) {
	if s.bindings == nil {
		errorJSON(w, http.StatusNotFound, ErrNoBindings)
		return
	}

	bindings, err := s.bindings.Bindings(r.Context())
	if err != nil {
		s.logger.Error("list bindings failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
		errorJSON(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]bindingView, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, bindingView(b))
	}
	respondJSON(w, http.StatusOK, map[string]any{"bindings": out})
}

func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	var view statsView
	if s.loop != nil {
		st := s.loop.Stats()
		view.Scheduler = &st
	}
	if s.pool != nil {
		st := s.pool.Stats()
		view.Pool = &st
	}
	respondJSON(w, http.StatusOK, view)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorJSON(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]any{"error": err.Error()})
}
