package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"AUTHGATE/internal/models"
	"AUTHGATE/internal/store"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

type userContextKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the user attached by Session.Require.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*models.User)
	return user, ok && user != nil
}

// UserFinder resolves a token's user id to a user record.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Session gates handlers behind a valid session token cookie.
type Session struct {
	tokens *TokenService
	users  UserFinder
	log    *slog.Logger
	secure bool
}

// NewSession creates the session gate.
func NewSession(tokens *TokenService, users UserFinder, log *slog.Logger, secureCookie bool) *Session {
	return &Session{tokens: tokens, users: users, log: log, secure: secureCookie}
}

// Require lets the request through only with a valid token whose user
// still exists. A missing cookie, a token that fails verification and a
// token for a deleted user all clear the cookie and redirect to LoginPath.
// Storage failures while resolving the user are a 500.
func (s *Session) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cookie, err := r.Cookie(TokenCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}

		claims, err := s.tokens.Verify(cookie.Value)
		if err != nil {
			s.log.DebugContext(ctx, "session token rejected", "error", err, "expired", errors.Is(err, ErrTokenExpired))
			ClearTokenCookie(w, s.secure)
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}

		user, err := s.users.FindByID(ctx, claims.UserID)
		if errors.Is(err, store.ErrNotFound) {
			s.log.InfoContext(ctx, "session token for missing user", "user_id", claims.UserID)
			ClearTokenCookie(w, s.secure)
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		if err != nil {
			s.log.ErrorContext(ctx, "resolve session user", "user_id", claims.UserID, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
	})
}
