// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the HTTP handlers of the public site and the
// admin panel.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/render"
	"github.com/olegiv/uphouse/internal/session"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message, messageType string) {
	renderer.SetFlash(r, message, messageType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, "error")
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, "success")
}

// logAndHTTPError logs an error and writes an HTTP error response.
func logAndHTTPError(w http.ResponseWriter, message string, statusCode int, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, message, statusCode)
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	logAndHTTPError(w, "伺服器發生錯誤，請稍後再試。", http.StatusInternalServerError, logMsg, args...)
}

// renderPage renders name or answers 500 when the template fails.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, name string, data render.TemplateData) {
	renderPageStatus(w, r, renderer, http.StatusOK, name, data)
}

func renderPageStatus(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, name string, data render.TemplateData) {
	if err := renderer.RenderStatus(w, r, status, name, data); err != nil {
		logAndInternalError(w, "failed to render template", "template", name, "error", err)
	}
}

// errorText is the inline message shown for a failed operation.
func errorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, backend.ErrNotConfigured):
		return "資料服務尚未設定。"
	case errors.Is(err, backend.ErrConflict):
		return "內容已被其他人更新，請重新整理頁面後再編輯。"
	case errors.Is(err, backend.ErrUnauthorized):
		return "您沒有執行此操作的權限。"
	case errors.Is(err, backend.ErrInvalidCredentials):
		return "帳號或密碼錯誤。"
	case errors.Is(err, backend.ErrSessionExpired):
		return "登入已逾時，請重新登入。"
	}
	return backend.Message(err)
}

// errorField returns the form field a validation error points at.
func errorField(err error) string {
	var ve *backend.ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}

// staffFrom describes the signed-in staff member of st for the admin layout.
func staffFrom(st session.State) *render.Staff {
	if st.User == nil {
		return nil
	}
	s := &render.Staff{Email: st.User.Email, Role: st.Role()}
	if st.Profile != nil {
		s.DisplayName = st.Profile.DisplayName
	}
	return s
}

// adminData returns template data for an admin page of the current request.
func adminData(r *http.Request, title, nav string, data any) render.TemplateData {
	return render.TemplateData{
		Title: title,
		Nav:   nav,
		Data:  data,
		Staff: staffFrom(session.StateFrom(r.Context())),
	}
}

// principalOf returns the backend identity of the current request.
func principalOf(r *http.Request) backend.Principal {
	return session.StateFrom(r.Context()).Principal()
}
