// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/middleware"
	"github.com/olegiv/uphouse/internal/render"
	"github.com/olegiv/uphouse/internal/session"
	"github.com/olegiv/uphouse/internal/validation"
)

// AuthHandler handles staff sign-in, sign-out and password resets.
type AuthHandler struct {
	renderer        *render.Renderer
	sessions        *session.Store
	loginProtection *middleware.LoginProtection
	views           *Views
	configured      bool
	logger          *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(renderer *render.Renderer, sessions *session.Store, lp *middleware.LoginProtection, views *Views, configured bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		renderer:        renderer,
		sessions:        sessions,
		loginProtection: lp,
		views:           views,
		configured:      configured,
		logger:          logger,
	}
}

type loginInput struct {
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,max=256"`
}

type resetInput struct {
	Email string `form:"email" validate:"required,email,max=254"`
}

// LoginData is the view model of the login form.
type LoginData struct {
	Email string
	Next  string
	Error string
}

// withClient attaches the requesting browser to the request context so that
// session events record it.
func withClient(r *http.Request) context.Context {
	return session.WithClient(r.Context(), session.Client{
		IP:        middleware.GetClientIP(r),
		UserAgent: r.UserAgent(),
	})
}

// LoginForm handles GET /admin/login.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if !h.configured {
		h.views.NotConnected(w, r)
		return
	}

	next := r.URL.Query().Get("next")
	if st := session.StateFrom(r.Context()); st.Session != nil {
		http.Redirect(w, r, middleware.SafeNext(next), http.StatusSeeOther)
		return
	}

	h.renderLogin(w, r, http.StatusOK, LoginData{Next: next})
}

// Login handles POST /admin/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.configured {
		h.views.NotConnected(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	next := r.FormValue("next")
	data := LoginData{Email: email, Next: next}

	if err := validation.Struct(loginInput{Email: email, Password: password}); err != nil {
		data.Error = errorText(err)
		h.renderLogin(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			h.logger.Warn("login attempt on locked account", "email", email, "ip", middleware.GetClientIP(r))
			data.Error = lockedMessage(remaining)
			h.renderLogin(w, r, http.StatusTooManyRequests, data)
			return
		}
	}

	if _, err := h.sessions.SignIn(withClient(r), email, password); err != nil {
		h.logger.Info("login failed", "email", email, "ip", middleware.GetClientIP(r), "error", err)
		data.Error = errorText(err)
		status := http.StatusUnauthorized

		if errors.Is(err, backend.ErrInvalidCredentials) && h.loginProtection != nil {
			if locked, duration := h.loginProtection.RecordFailedAttempt(email); locked {
				data.Error = lockedMessage(duration)
				status = http.StatusTooManyRequests
			} else if left := h.loginProtection.RemainingAttempts(email); left > 0 && left <= 2 {
				data.Error = fmt.Sprintf("%s 再失敗 %d 次帳號將暫時鎖定。", data.Error, left)
			}
		} else if !errors.Is(err, backend.ErrInvalidCredentials) {
			status = http.StatusBadGateway
		}

		h.renderLogin(w, r, status, data)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}
	h.logger.Info("staff signed in", "email", email)
	http.Redirect(w, r, middleware.SafeNext(next), http.StatusSeeOther)
}

func lockedMessage(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("登入失敗次數過多，帳號已暫時鎖定，請於 %d 分鐘後再試。", minutes)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data LoginData) {
	renderPageStatus(w, r, h.renderer, status, "auth/login", render.TemplateData{
		Title: "後台登入",
		Data:  data,
	})
}

// Logout handles POST /admin/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(withClient(r)); err != nil {
		h.logger.Warn("sign-out reported an error", "error", err)
	}
	flashSuccess(w, r, h.renderer, RouteLogin, "您已登出。")
}

// ForgotPasswordData is the view model of the password reset request form.
type ForgotPasswordData struct {
	Email string
	Sent  bool
	Error string
}

// ForgotPasswordForm handles GET /admin/forgot-password.
func (h *AuthHandler) ForgotPasswordForm(w http.ResponseWriter, r *http.Request) {
	if !h.configured {
		h.views.NotConnected(w, r)
		return
	}
	h.renderForgot(w, r, http.StatusOK, ForgotPasswordData{})
}

// ForgotPassword handles POST /admin/forgot-password. Whether the address
// has an account is never revealed.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if !h.configured {
		h.views.NotConnected(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	data := ForgotPasswordData{Email: strings.TrimSpace(r.FormValue("email"))}
	if err := validation.Struct(resetInput{Email: data.Email}); err != nil {
		data.Error = errorText(err)
		h.renderForgot(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	if err := h.sessions.RequestPasswordReset(r.Context(), data.Email); err != nil {
		h.logger.Warn("password reset request failed", "error", err)
	}
	data.Sent = true
	h.renderForgot(w, r, http.StatusOK, data)
}

func (h *AuthHandler) renderForgot(w http.ResponseWriter, r *http.Request, status int, data ForgotPasswordData) {
	renderPageStatus(w, r, h.renderer, status, "auth/forgot-password", render.TemplateData{
		Title: "重設密碼",
		Data:  data,
	})
}
