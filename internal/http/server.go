package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/services"
)

// ReadyFunc reports whether dependencies are reachable.
type ReadyFunc func(ctx context.Context) error

type Options struct {
	Logger             *applog.Logger
	RateLimitPerMinute int
	Ready              ReadyFunc
}

// Server wraps http.Server with the tracker API routes.
type Server struct {
	http.Server
	tracker      *services.Tracker
	logger       *applog.Logger
	rateLimiter  *ratelimit.Limiter
	tracer       *trace.Middleware
	ready        ReadyFunc
	shutdownOnce sync.Once
	shutdownErr  error
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, tracker *services.Tracker, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	limitCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		tracker:     tracker,
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(limitCfg),
		tracer:      trace.NewMiddleware(security.ClientIP),
		ready:       opts.Ready,
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	limited := s.rateLimiter.Middleware(security.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError("rate limit exceeded").Write(w)
	})
	api := func(h http.HandlerFunc) http.Handler { return limited(h) }

	mux.Handle("GET /api/view", api(s.handleView))
	mux.Handle("PUT /api/filter", api(s.handleSetFilter))
	mux.Handle("POST /api/transactions", api(s.handleCreateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", api(s.handleDeleteTransaction))
	mux.Handle("GET /api/export", api(s.handleExport))
	mux.Handle("GET /api/categories", api(s.handleCategories))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	return applog.Middleware(s.logger)(s.tracer.Middleware(headers.Middleware(mux)))
}

// RateLimiter exposes the limiter so its cleanup loop can be run by the caller.
func (s *Server) RateLimiter() *ratelimit.Limiter {
	return s.rateLimiter
}

// Shutdown stops accepting requests and waits for in-flight ones. Safe to
// call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "Shutting down HTTP server", "operation", applog.OpShutdown)
		s.shutdownErr = s.Server.Shutdown(ctx)
	})
	return s.shutdownErr
}
