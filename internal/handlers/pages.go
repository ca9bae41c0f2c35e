package handlers

import (
	"log/slog"
	"net/http"

	"AUTHGATE/internal/dto"
	"AUTHGATE/internal/middleware"
	"AUTHGATE/internal/views"
)

// PageHandler renders the HTML pages
type PageHandler struct {
	views *views.Renderer
	log   *slog.Logger
}

// NewPageHandler creates a new PageHandler instance
func NewPageHandler(v *views.Renderer, log *slog.Logger) *PageHandler {
	return &PageHandler{views: v, log: log}
}

// Static returns a handler rendering page with no data.
func (h *PageHandler) Static(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, page, nil)
	}
}

// Dashboard renders the signed-in user's name and email. It must sit
// behind Session.Require.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
		return
	}
	h.render(w, r, views.PageDashboard, dto.DashboardView{Name: user.Name, Email: user.Email})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	if err := h.views.Render(w, http.StatusOK, page, data); err != nil {
		h.log.ErrorContext(r.Context(), "render page", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
