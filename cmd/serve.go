package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"AUTHGATE/internal/auth"
	"AUTHGATE/internal/config"
	"AUTHGATE/internal/handlers"
	"AUTHGATE/internal/logging"
	"AUTHGATE/internal/metrics"
	"AUTHGATE/internal/middleware"
	"AUTHGATE/internal/routes"
	"AUTHGATE/internal/store"
	"AUTHGATE/internal/views"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. The store backend is chosen by the scheme of
DATABASE_URL (postgres://, mongodb:// or memory://).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}

			log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
			slog.SetDefault(log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.Addr())
			if err != nil {
				return oops.Code("LISTEN_FAILED").With("addr", cfg.Addr()).Wrap(err)
			}

			return serve(ctx, cfg, log, ln, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending store migrations before serving")

	return cmd
}

// serve runs the server on ln until ctx is cancelled, then shuts it down
// gracefully.
func serve(ctx context.Context, cfg *config.Config, log *slog.Logger, ln net.Listener, migrate bool) error {
	users, err := store.Open(ctx, cfg.Database)
	if err != nil {
		_ = ln.Close()
		return oops.Code("DB_CONNECT_FAILED").With("operation", "open store").Wrap(err)
	}
	defer func() {
		if err := users.Close(context.Background()); err != nil {
			log.Warn("close store", "error", err)
		}
	}()

	if migrate {
		if err := store.Migrate(ctx, users); err != nil {
			_ = ln.Close()
			return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
	}

	reg := prometheus.NewRegistry()
	metrics.RegisterMetrics(reg)

	handler, limiter, err := buildHandler(cfg, users, log, reg)
	if err != nil {
		_ = ln.Close()
		return err
	}
	go limiter.Run(ctx, cfg.RateLimit.Window)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("SERVE_FAILED").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	log.Info("server stopped")
	return nil
}

// buildHandler wires the services, handlers and middleware over users.
func buildHandler(cfg *config.Config, users store.UserStore, log *slog.Logger, reg *prometheus.Registry) (http.Handler, *middleware.RateLimiter, error) {
	tokens, err := middleware.NewTokenService([]byte(cfg.JWT.Secret), cfg.JWT.TokenTTL, cfg.JWT.Issuer)
	if err != nil {
		return nil, nil, err
	}
	v, err := views.New()
	if err != nil {
		return nil, nil, err
	}

	svc := auth.NewService(users, auth.NewBcryptHasher(cfg.Auth.BcryptCost))
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window, cfg.RateLimit.TrustProxy)

	mux := http.NewServeMux()
	routes.SetupRoutes(mux, routes.Deps{
		Auth: handlers.NewAuthHandler(svc, tokens, v, log, handlers.AuthOptions{
			SecureCookie:       cfg.Auth.CookieSecure,
			GenericLoginErrors: cfg.Auth.GenericLoginErrors,
		}),
		Pages:   handlers.NewPageHandler(v, log),
		Health:  handlers.NewHealthHandler(users),
		Session: middleware.NewSession(tokens, users, log, cfg.Auth.CookieSecure),
		Limiter: limiter,
		Metrics: metrics.Handler(reg),
	})

	return routes.NewHandler(mux, log, cfg), limiter, nil
}
