package routes

import (
	"log/slog"
	"net/http"

	"github.com/rs/cors"

	"AUTHGATE/internal/config"
	"AUTHGATE/internal/handlers"
	"AUTHGATE/internal/middleware"
	"AUTHGATE/internal/views"
)

// Deps are the handlers and middleware the routes are built from.
type Deps struct {
	Auth    *handlers.AuthHandler
	Pages   *handlers.PageHandler
	Health  *handlers.HealthHandler
	Session *middleware.Session
	Limiter *middleware.RateLimiter
	Metrics http.Handler
}

// SetupRoutes configures all application routes
func SetupRoutes(mux *http.ServeMux, d Deps) {
	// Health check routes
	mux.HandleFunc("GET /healthz", d.Health.HealthCheck)
	mux.HandleFunc("GET /livez", d.Health.LivenessCheck)
	mux.HandleFunc("GET /readyz", d.Health.ReadinessCheck)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	mux.Handle("GET /static/", views.StaticHandler())

	// Public pages
	mux.HandleFunc("GET /{$}", d.Pages.Static(views.PageHome))
	mux.HandleFunc("GET "+handlers.PathAlreadyUser, d.Pages.Static(views.PageAlreadyUser))
	mux.HandleFunc("GET "+handlers.PathRegisterNewUser, d.Pages.Static(views.PageRegisterNewUser))

	// Authentication routes, rate limited per client address
	mux.Handle("GET /login", d.Limiter.Limit(d.Pages.Static(views.PageLogin)))
	mux.Handle("POST /login", d.Limiter.Limit(http.HandlerFunc(d.Auth.Login)))
	mux.Handle("GET /register", d.Limiter.Limit(d.Pages.Static(views.PageRegister)))
	mux.Handle("POST /register", d.Limiter.Limit(http.HandlerFunc(d.Auth.Register)))
	mux.HandleFunc("POST /logout", d.Auth.Logout)

	// Protected routes
	mux.Handle("GET "+handlers.PathDashboard, d.Session.Require(http.HandlerFunc(d.Pages.Dashboard)))
}

// NewHandler wraps the routes with request logging, security headers and,
// when origins are configured, CORS.
func NewHandler(routes http.Handler, log *slog.Logger, cfg *config.Config) http.Handler {
	h := routes
	if len(cfg.CORS.AllowedOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   cfg.CORS.AllowedMethods,
			AllowedHeaders:   cfg.CORS.AllowedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
		})
		h = c.Handler(h)
	}
	h = middleware.SecurityHeaders(cfg.Auth.CookieSecure)(h)
	return middleware.RequestLogger(log)(h)
}
