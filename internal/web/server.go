// Package web is the HTTP surface of the results service: the storage webhook
// that triggers imports, the admin upload endpoints and the read-only results API.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JonMunkholm/results/internal/auth"
	"github.com/JonMunkholm/results/internal/blob"
	"github.com/JonMunkholm/results/internal/config"
	"github.com/JonMunkholm/results/internal/core"
	"github.com/JonMunkholm/results/internal/database"
	mw "github.com/JonMunkholm/results/internal/web/middleware"
)

// Importer runs one import. *core.Pipeline implements it.
type Importer interface {
	Run(ctx context.Context, obj core.ObjectRef) (*core.ImportResult, error)
}

// ResultsReader is the read model behind the dashboard endpoints.
type ResultsReader interface {
	ListSemesters(ctx context.Context, rollNo string) ([]database.Semester, error)
	GetSemester(ctx context.Context, id int64) (database.Semester, string, error)
	ListSubjects(ctx context.Context, semesterID int64) ([]database.Subject, error)
}

// ProfileReader looks up login credentials.
type ProfileReader interface {
	ProfileByEmail(ctx context.Context, email string) (database.Profile, error)
}

// RunLister lists import history.
type RunLister interface {
	ListImportRuns(ctx context.Context, limit int) ([]core.ImportRun, error)
}

// Pinger checks database connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Importer Importer
	Limiter  *core.ImportLimiter
	Blobs    blob.Store
	Results  ResultsReader
	Profiles ProfileReader
	Runs     RunLister
	Tokens   *auth.TokenService
	DB       Pinger
}

// Server is the HTTP server for the results service.
type Server struct {
	cfg     *config.Config
	deps    Deps
	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
}

// NewServer creates a Server with all middleware and routes installed.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)

	if len(s.cfg.Security.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Security.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	s.router.Get("/healthz", s.handleHealth)

	// The storage webhook answers every method itself so non-POST calls get
	// the plain-text 405 storage infrastructure expects.
	s.router.With(mw.WebhookSecret(&s.cfg.Webhook)).
		HandleFunc("/webhooks/storage", s.handleStorageWebhook)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(s.deps.Tokens))

			r.Get("/semesters", s.handleListSemesters)
			r.Get("/semesters/{id}", s.handleGetSemester)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(database.RoleAdmin))

				r.Get("/uploads", s.handleListUploads)
				r.Post("/uploads", s.handleUpload)
				r.Get("/imports", s.handleListImports)
			})
		})
	})
}

// Start begins listening for HTTP requests. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and the rate limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses. The service serves
// JSON only, so the content security policy forbids everything.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
