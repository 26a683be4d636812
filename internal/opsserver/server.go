// Package opsserver exposes health and metrics endpoints.
package opsserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadyFunc reports whether a dependency is usable; nil means ready.
type ReadyFunc func(ctx context.Context) error

type Server struct {
	addr     string
	logger   *zap.Logger
	gatherer prometheus.Gatherer
	checks   map[string]ReadyFunc
	started  time.Time

	srv     *http.Server
	serving atomic.Bool
}

type Option func(*Server)

func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithCheck adds a named readiness check to /healthz.
func WithCheck(name string, fn ReadyFunc) Option {
	return func(s *Server) {
		if fn != nil {
			s.checks[name] = fn
		}
	}
}

func New(addr string, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		addr:     addr,
		logger:   logger,
		gatherer: prometheus.DefaultGatherer,
		checks:   make(map[string]ReadyFunc),
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router is the chi router behind the server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

type healthBody struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := healthBody{Status: "ok", Uptime: time.Since(s.started).Truncate(time.Second).String()}
	code := http.StatusOK
	if len(s.checks) > 0 {
		body.Checks = make(map[string]string, len(s.checks))
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for name, fn := range s.checks {
			if err := fn(ctx); err != nil {
				body.Checks[name] = err.Error()
				body.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			body.Checks[name] = "ok"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// Start serves in the background. An empty address disables the server.
func (s *Server) Start() {
	if s.addr == "" {
		return
	}
	s.serving.Store(true)
	go func() {
		s.logger.Info("ops_server_listening", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ops_server_failed", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if !s.serving.Load() {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
