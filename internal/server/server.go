package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"autodeploy/internal/deployment"
	"autodeploy/internal/history"
	"autodeploy/internal/project"
	"autodeploy/internal/view"
)

const (
	// HTTP server timeouts
	HTTPReadTimeout  = 10 * time.Second
	HTTPWriteTimeout = 5 * time.Minute
	HTTPIdleTimeout  = 60 * time.Second

	// Request timeout for middleware; copies can be large
	RequestTimeout = 5 * time.Minute

	// Rate limiting - requests per minute
	GlobalRateLimit = 60
	DeployRateLimit = 6
)

// Server represents the HTTP server
type Server struct {
	Registry      *project.Registry
	History       *history.Manager
	LockManager   *deployment.LockManager
	Logger        *slog.Logger
	BasePath      string
	DefaultTarget *project.TargetConfig

	// Copier copies build output for confirmed deployments. When nil the
	// server only records targets.
	Copier view.Copier

	TestMode bool

	mu         sync.Mutex
	httpServer *http.Server
	closed     bool
}

// NewServer creates a new server instance
func NewServer(registry *project.Registry, hist *history.Manager, logger *slog.Logger, testMode bool) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Registry:    registry,
		History:     hist,
		LockManager: deployment.NewLockManager(),
		Logger:      logger,
		TestMode:    testMode,
	}
}

// Router creates and configures the HTTP router
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	// Logging middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				s.Logger.Info("http_request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"request_id", middleware.GetReqID(r.Context()),
					"duration_ms", time.Since(start).Milliseconds())
			}()

			next.ServeHTTP(ww, r)
		})
	})

	if !s.TestMode {
		r.Use(NewRateLimitMiddleware(GlobalRateLimit, s.Logger))
	}

	r.Get("/health", s.HandleHealth)
	r.Route("/history", func(r chi.Router) {
		r.Get("/", s.HandleHistoryList)
		r.Get("/{targetName}", s.HandleHistoryShow)
	})

	if !s.TestMode {
		r.With(NewRateLimitMiddleware(DeployRateLimit, s.Logger)).Post("/deploy", s.HandleDeploy)
	} else {
		r.Post("/deploy", s.HandleDeploy)
	}

	return r
}

// Start starts the HTTP server and blocks until it stops. A clean Shutdown
// returns nil.
func (s *Server) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.Logger.Info("Starting server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.httpServer = srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.closed = true
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
