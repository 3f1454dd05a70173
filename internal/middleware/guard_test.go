package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/model"
	"github.com/olegiv/uphouse/internal/session"
)

type staticResolver session.State

func (s staticResolver) Resolve(context.Context) session.State { return session.State(s) }

type recordingViews struct {
	view   string
	reason string
}

func (v *recordingViews) Loading(w http.ResponseWriter, _ *http.Request) {
	v.view = "loading"
	w.WriteHeader(http.StatusOK)
}

func (v *recordingViews) Forbidden(w http.ResponseWriter, _ *http.Request, reason string) {
	v.view, v.reason = "forbidden", reason
	w.WriteHeader(http.StatusForbidden)
}

func (v *recordingViews) NotConnected(w http.ResponseWriter, _ *http.Request) {
	v.view = "not_connected"
	w.WriteHeader(http.StatusOK)
}

func withRole(role model.Role) session.State {
	st := session.State{Session: &backend.Session{AccessToken: "a", User: backend.User{ID: "u"}}}
	if role != model.RoleNone {
		st.Profile = &model.Profile{UserID: "u", Role: role}
	}
	return st
}

func TestRequiredRole(t *testing.T) {
	tests := []struct {
		path      string
		wantRole  model.Role
		wantAdmin bool
	}{
		{"/", model.RoleNone, false},
		{"/projects/a", model.RoleNone, false},
		{"/administrator", model.RoleNone, false},
		{"/admin/login", model.RoleNone, true},
		{"/admin/logout", model.RoleNone, true},
		{"/admin", model.RoleEditor, true},
		{"/admin/projects", model.RoleEditor, true},
		{"/admin/projects/a/edit", model.RoleEditor, true},
		{"/admin/content/about", model.RoleAdmin, true},
		{"/admin/settings", model.RoleAdmin, true},
		{"/admin/leads", model.RoleAdmin, true},
		{"/admin/leads/1/delete", model.RoleAdmin, true},
	}
	for _, tt := range tests {
		role, admin := RequiredRole(tt.path)
		if role != tt.wantRole || admin != tt.wantAdmin {
			t.Errorf("RequiredRole(%q) = %q, %v; want %q, %v", tt.path, role, admin, tt.wantRole, tt.wantAdmin)
		}
	}
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		state      session.State
		configured bool
		wantStatus int
		wantView   string
		wantReason string
		wantNext   bool
	}{
		{"public route untouched", "/about", session.State{}, true, http.StatusOK, "next", "", false},
		{"login is open", "/admin/login", session.State{}, true, http.StatusOK, "next", "", false},
		{"loading is indeterminate", "/admin", session.State{Loading: true}, true, http.StatusOK, "loading", "", false},
		{"anonymous redirected", "/admin/projects?page=2", session.State{}, true, http.StatusSeeOther, "", "", true},
		{"profile missing", "/admin", withRole(model.RoleNone), true, http.StatusForbidden, "forbidden", ReasonProfileMissing, false},
		{"editor on editor route", "/admin/projects", withRole(model.RoleEditor), true, http.StatusOK, "next", "", false},
		{"editor on admin route", "/admin/leads", withRole(model.RoleEditor), true, http.StatusForbidden, "forbidden", ReasonRoleTooLow, false},
		{"admin on editor route", "/admin/projects/new", withRole(model.RoleAdmin), true, http.StatusOK, "next", "", false},
		{"admin on admin route", "/admin/content/homepage", withRole(model.RoleAdmin), true, http.StatusOK, "next", "", false},
		{"unconfigured admin route", "/admin", withRole(model.RoleAdmin), false, http.StatusOK, "not_connected", "", false},
		{"unconfigured login", "/admin/login", session.State{}, false, http.StatusOK, "next", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views := &recordingViews{}
			var seen session.State
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				views.view = "next"
				seen = session.StateFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			h := NewGuard(staticResolver(tt.state), views, tt.configured).Middleware(next)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			if views.view != tt.wantView {
				t.Errorf("view = %q; want %q", views.view, tt.wantView)
			}
			if views.reason != tt.wantReason {
				t.Errorf("reason = %q; want %q", views.reason, tt.wantReason)
			}
			if tt.wantNext {
				want := "/admin/login?next=%2Fadmin%2Fprojects%3Fpage%3D2"
				if got := rec.Header().Get("Location"); got != want {
					t.Errorf("Location = %q; want %q", got, want)
				}
			}
			if views.view == "next" && tt.path != "/about" && seen.Session != tt.state.Session {
				t.Error("resolved state not stored in context")
			}
		})
	}
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/admin"},
		{"/admin/projects", "/admin/projects"},
		{"/admin/leads?x=1", "/admin/leads?x=1"},
		{"/admin/login", "/admin"},
		{"/about", "/admin"},
		{"//evil.test/admin", "/admin"},
		{"https://evil.test/admin", "/admin"},
		{"/\\evil.test", "/admin"},
	}
	for _, tt := range tests {
		if got := SafeNext(tt.in); got != tt.want {
			t.Errorf("SafeNext(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
