// Package server exposes the graph pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /api/v1/graph/{kind}         fetch from the backend and build a model
//	POST /api/v1/render               build a model from the request body
//	GET  /api/v1/leaderboard          component degree leaderboard
//	GET  /api/v1/communities          operator communities
//	GET  /api/v1/communities/{id}/timeline
//
// Errors are returned as JSON {code, message} with a status derived from
// the error code.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/refgraph/refgraph/pkg/backend"
	"github.com/refgraph/refgraph/pkg/observability"
	"github.com/refgraph/refgraph/pkg/pipeline"
	"github.com/refgraph/refgraph/pkg/report"
)

// maxPayloadSize bounds POST /api/v1/render bodies.
const maxPayloadSize = 32 << 20

// Backend is the subset of *backend.Client the server uses.
type Backend interface {
	Fetch(ctx context.Context, q backend.Query, refresh bool) ([]byte, error)
	CompDegree(ctx context.Context, minDegree int) (report.Leaderboard, error)
	Communities(ctx context.Context) ([]report.Community, error)
	CommunityDates(ctx context.Context, communityID string) ([]string, error)
}

// Options configures a [Server].
type Options struct {
	Backend  Backend
	Runner   *pipeline.Runner
	Defaults pipeline.Options // base options for every request
	Metrics  *observability.Prometheus
	Logger   *log.Logger

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server serves the HTTP API.
type Server struct {
	backend  Backend
	runner   *pipeline.Runner
	defaults pipeline.Options
	metrics  *observability.Prometheus
	logger   *log.Logger
	opts     Options
}

// New creates a server. Backend is required.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	return &Server{
		backend:  opts.Backend,
		runner:   opts.Runner,
		defaults: opts.Defaults.WithDefaults(),
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		opts:     opts,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.healthz)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/graph/{kind}", s.graph)
		r.Post("/render", s.render)
		r.Get("/leaderboard", s.leaderboard)
		r.Route("/communities", func(r chi.Router) {
			r.Get("/", s.communities)
			r.Get("/{id}/timeline", s.timeline)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
