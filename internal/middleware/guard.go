// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/olegiv/uphouse/internal/model"
	"github.com/olegiv/uphouse/internal/session"
)

// LoginPath is where unauthenticated staff are sent.
const LoginPath = "/admin/login"

// LogoutPath ends the session. It is open so that an account without a
// profile can still sign out.
const LogoutPath = "/admin/logout"

// Reasons reported by the forbidden view.
const (
	ReasonProfileMissing = "profile_missing"
	ReasonRoleTooLow     = "role_too_low"
)

// Rule requires Role for every path under Prefix.
type Rule struct {
	Prefix string
	Role   model.Role
}

// AdminPolicy maps admin routes to the minimum role. The first matching
// rule wins.
var AdminPolicy = []Rule{
	{LoginPath, model.RoleNone},
	{LogoutPath, model.RoleNone},
	{"/admin/forgot-password", model.RoleNone},
	{"/admin/content", model.RoleAdmin},
	{"/admin/settings", model.RoleAdmin},
	{"/admin/leads", model.RoleAdmin},
	{"/admin", model.RoleEditor},
}

// RequiredRole returns the role needed for path and whether path is an
// admin route at all.
func RequiredRole(path string) (model.Role, bool) {
	for _, rule := range AdminPolicy {
		if path == rule.Prefix || strings.HasPrefix(path, rule.Prefix+"/") {
			return rule.Role, true
		}
	}
	return model.RoleNone, false
}

// Resolver works out the login state of a request.
type Resolver interface {
	Resolve(ctx context.Context) session.State
}

// GuardViews renders the pages the guard answers with instead of the
// requested one. The resolved state is available through
// session.StateFrom.
type GuardViews interface {
	Loading(w http.ResponseWriter, r *http.Request)
	Forbidden(w http.ResponseWriter, r *http.Request, reason string)
	NotConnected(w http.ResponseWriter, r *http.Request)
}

// Guard enforces AdminPolicy.
type Guard struct {
	resolver   Resolver
	views      GuardViews
	configured bool
}

// NewGuard returns a guard. With configured false every role-protected
// admin route shows the not-connected notice.
func NewGuard(resolver Resolver, views GuardViews, configured bool) *Guard {
	return &Guard{resolver: resolver, views: views, configured: configured}
}

// Middleware resolves the login state of admin requests, stores it in the
// request context and lets the request through only when the policy
// allows it.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		required, admin := RequiredRole(r.URL.Path)
		if !admin {
			next.ServeHTTP(w, r)
			return
		}
		if !g.configured && required != model.RoleNone {
			g.views.NotConnected(w, r)
			return
		}

		st := g.resolver.Resolve(r.Context())
		r = r.WithContext(session.WithState(r.Context(), st))

		if required == model.RoleNone {
			next.ServeHTTP(w, r)
			return
		}

		switch {
		case st.Loading:
			g.views.Loading(w, r)
		case st.Session == nil:
			http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
		case st.Profile == nil:
			g.views.Forbidden(w, r, ReasonProfileMissing)
		case !st.Role().Satisfies(required):
			g.views.Forbidden(w, r, ReasonRoleTooLow)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// SafeNext returns next when it is a local admin path, otherwise "/admin".
func SafeNext(next string) string {
	if next == "" || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/admin"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/admin"
	}
	if role, admin := RequiredRole(u.Path); !admin || role == model.RoleNone {
		return "/admin"
	}
	return next
}
