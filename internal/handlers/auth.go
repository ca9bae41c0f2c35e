package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"AUTHGATE/internal/auth"
	"AUTHGATE/internal/dto"
	"AUTHGATE/internal/metrics"
	"AUTHGATE/internal/middleware"
	"AUTHGATE/internal/models"
	"AUTHGATE/internal/utils"
	"AUTHGATE/internal/views"
)

// MaxFormBytes bounds register and login request bodies.
const MaxFormBytes = 1 << 20

// Redirect targets.
const (
	PathHome            = "/"
	PathDashboard       = "/dashboard"
	PathAlreadyUser     = "/alreadyUser"
	PathRegisterNewUser = "/registerNewUser"
)

const (
	msgIncorrectPassword  = "incorrect password"
	msgInvalidCredentials = "invalid email or password"
	msgPasswordTooLong    = "password must be at most 72 bytes"
)

// AuthOptions tunes cookie and login error behaviour.
type AuthOptions struct {
	SecureCookie bool
	// GenericLoginErrors answers unknown emails with the same inline error
	// as wrong passwords instead of redirecting to the register prompt.
	GenericLoginErrors bool
}

// AuthHandler handles the register, login and logout form posts
type AuthHandler struct {
	auth   *auth.Service
	tokens *middleware.TokenService
	views  *views.Renderer
	log    *slog.Logger
	opts   AuthOptions
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(svc *auth.Service, tokens *middleware.TokenService, v *views.Renderer, log *slog.Logger, opts AuthOptions) *AuthHandler {
	return &AuthHandler{auth: svc, tokens: tokens, views: v, log: log, opts: opts}
}

// Register handles user registration.
// An existing email redirects to /alreadyUser without touching the cookie;
// a new account gets a session cookie and is sent to /dashboard.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	form := dto.RegisterForm{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	ctx := r.Context()
	user, err := h.auth.Register(ctx, form.Name, form.Email, form.Password)
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		metrics.RecordAuthEvent(metrics.EventRegister, metrics.OutcomeEmailTaken)
		utils.Redirect(w, r, PathAlreadyUser)
		return
	case errors.Is(err, auth.ErrPasswordTooLong):
		metrics.RecordAuthEvent(metrics.EventRegister, metrics.OutcomeError)
		http.Error(w, msgPasswordTooLong, http.StatusBadRequest)
		return
	case err != nil:
		metrics.RecordAuthEvent(metrics.EventRegister, metrics.OutcomeError)
		h.log.ErrorContext(ctx, "register failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if !h.startSession(w, r, user) {
		return
	}
	metrics.RecordAuthEvent(metrics.EventRegister, metrics.OutcomeSuccess)
	h.log.InfoContext(ctx, "user registered", "user_id", user.ID)
	utils.Redirect(w, r, PathDashboard)
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	form := dto.LoginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	ctx := r.Context()
	user, err := h.auth.Login(ctx, form.Email, form.Password)
	switch {
	case errors.Is(err, auth.ErrUnknownEmail):
		metrics.RecordAuthEvent(metrics.EventLogin, metrics.OutcomeUnknownEmail)
		if h.opts.GenericLoginErrors {
			h.renderLogin(w, r, msgInvalidCredentials, form.Email)
			return
		}
		utils.Redirect(w, r, PathRegisterNewUser)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		metrics.RecordAuthEvent(metrics.EventLogin, metrics.OutcomeBadPassword)
		msg := msgIncorrectPassword
		if h.opts.GenericLoginErrors {
			msg = msgInvalidCredentials
		}
		h.renderLogin(w, r, msg, form.Email)
		return
	case err != nil:
		metrics.RecordAuthEvent(metrics.EventLogin, metrics.OutcomeError)
		h.log.ErrorContext(ctx, "login failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if !h.startSession(w, r, user) {
		return
	}
	metrics.RecordAuthEvent(metrics.EventLogin, metrics.OutcomeSuccess)
	h.log.InfoContext(ctx, "user logged in", "user_id", user.ID)
	utils.Redirect(w, r, PathDashboard)
}

// Logout overwrites the session cookie with an expired empty one.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearTokenCookie(w, h.opts.SecureCookie)
	metrics.RecordAuthEvent(metrics.EventLogout, metrics.OutcomeSuccess)
	utils.Redirect(w, r, PathHome)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *models.User) bool {
	token, expires, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "issue session token", "user_id", user.ID, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	middleware.SetTokenCookie(w, token, expires, h.opts.SecureCookie)
	return true
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, msg, email string) {
	err := h.views.Render(w, http.StatusOK, views.PageLogin, dto.LoginView{Msg: msg, Email: email})
	if err != nil {
		h.log.ErrorContext(r.Context(), "render login", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// parseForm reads a size-limited urlencoded body. It answers 400 and
// returns false when the body is unreadable or too large.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return false
	}
	return true
}
