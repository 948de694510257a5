package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/clinic-console/internal/console"
	httpmiddleware "github.com/wolfman30/clinic-console/internal/http/middleware"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

// View is a console view that mounts its own routes.
type View interface {
	Routes() chi.Router
}

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Health         *console.HealthHandler
	Sessions       *console.SessionHandler
	Reports        *console.ReportsHandler
	MetricsHandler http.Handler
	// Views are mounted under /api/sessions/{sessionID}/{name}.
	Views              map[string]View
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Check)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}

		// The socket hijacks the connection, so it stays outside Compress.
		if cfg.Reports != nil {
			api.Get("/reports/live", cfg.Reports.Live)
		}

		api.Group(func(jr chi.Router) {
			jr.Use(middleware.Compress(5))
			if cfg.Reports != nil {
				jr.Get("/reports", cfg.Reports.Show)
			}
			if cfg.Sessions == nil {
				return
			}
			jr.Post("/sessions", cfg.Sessions.Create)
			jr.Route("/sessions/{sessionID}", func(session chi.Router) {
				session.Delete("/", cfg.Sessions.Delete)
				session.Group(func(views chi.Router) {
					views.Use(cfg.Sessions.RequireSession)
					for name, view := range cfg.Views {
						views.Mount("/"+name, view.Routes())
					}
				})
			})
		})
	})

	return r
}
