package handler

import (
	"net/http"

	"github.com/olegiv/uphouse/internal/middleware"
	"github.com/olegiv/uphouse/internal/render"
	"github.com/olegiv/uphouse/internal/session"
)

// loadingRefreshSeconds is how soon the loading view reloads itself.
const loadingRefreshSeconds = "2"

// Views renders the pages the admin guard answers with.
type Views struct {
	renderer *render.Renderer
}

var _ middleware.GuardViews = (*Views)(nil)

// NewViews creates the guard views.
func NewViews(renderer *render.Renderer) *Views {
	return &Views{renderer: renderer}
}

// Loading renders the interim page shown while the staff profile is
// still being looked up.
func (v *Views) Loading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Refresh", loadingRefreshSeconds)
	w.Header().Set("Cache-Control", "no-store")
	renderPage(w, r, v.renderer, "auth/loading", render.TemplateData{
		Title: "載入中",
		Data:  r.URL.RequestURI(),
	})
}

// ForbiddenData is the view model of the insufficient permission page.
type ForbiddenData struct {
	Message  string
	SignedIn bool
}

// Forbidden renders the 403 page for reason.
func (v *Views) Forbidden(w http.ResponseWriter, r *http.Request, reason string) {
	st := session.StateFrom(r.Context())

	data := ForbiddenData{SignedIn: st.Session != nil}
	switch {
	case st.Err != nil:
		data.Message = "目前無法確認您的帳號權限：" + errorText(st.Err)
	case reason == middleware.ReasonProfileMissing:
		data.Message = "您的帳號尚未開通後台權限，請聯絡管理員。"
	default:
		data.Message = "權限不足，此頁面僅限管理員使用。"
	}

	renderPageStatus(w, r, v.renderer, http.StatusForbidden, "auth/forbidden", render.TemplateData{
		Title: "權限不足",
		Data:  data,
		Staff: staffFrom(st),
	})
}

// NotConnected renders the notice shown while no backend is configured.
func (v *Views) NotConnected(w http.ResponseWriter, r *http.Request) {
	renderPageStatus(w, r, v.renderer, http.StatusServiceUnavailable, "auth/not-connected", render.TemplateData{
		Title: "後台尚未連線",
	})
}
