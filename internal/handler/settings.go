package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/uphouse/internal/render"
	"github.com/olegiv/uphouse/internal/session"
)

// SettingsHandler serves the account settings page.
type SettingsHandler struct {
	renderer *render.Renderer
	sessions *session.Store
	logger   *slog.Logger
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(renderer *render.Renderer, sessions *session.Store, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{renderer: renderer, sessions: sessions, logger: logger}
}

// SettingsData is the view model of the settings page.
type SettingsData struct {
	Email string
	Sent  bool
	Error string
}

func (h *SettingsHandler) render(w http.ResponseWriter, r *http.Request, status int, data SettingsData) {
	renderPageStatus(w, r, h.renderer, status, "admin/settings", adminData(r, "帳號設定", "settings", data))
}

func currentEmail(r *http.Request) string {
	if st := session.StateFrom(r.Context()); st.User != nil {
		return st.User.Email
	}
	return ""
}

// Settings handles GET /admin/settings.
func (h *SettingsHandler) Settings(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, SettingsData{Email: currentEmail(r)})
}

// RequestReset handles POST /admin/settings by mailing a password reset
// link to the signed-in account.
func (h *SettingsHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	data := SettingsData{Email: currentEmail(r)}

	if err := h.sessions.RequestPasswordReset(r.Context(), data.Email); err != nil {
		h.logger.Warn("password reset request failed", "email", data.Email, "error", err)
		data.Error = errorText(err)
		h.render(w, r, http.StatusBadGateway, data)
		return
	}

	h.logger.Info("password reset requested", "email", data.Email)
	data.Sent = true
	h.render(w, r, http.StatusOK, data)
}
