// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	auth "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"

	"github.com/olegiv/uphouse/internal/backend"
)

// redirectKey carries the reset redirect through the auth-go call, whose
// recover request has no field for it.
type redirectKey struct{}

// redirectTransport appends redirect_to to password recovery calls.
type redirectTransport struct {
	next http.RoundTripper
}

func (t redirectTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	to, _ := r.Context().Value(redirectKey{}).(string)
	if to == "" || !strings.HasSuffix(r.URL.Path, "/recover") {
		return t.next.RoundTrip(r)
	}
	r = r.Clone(r.Context())
	q := r.URL.Query()
	q.Set("redirect_to", to)
	r.URL.RawQuery = q.Encode()
	return t.next.RoundTrip(r)
}

// gotrue wraps the auth-go client. auth-go clients carry a token and a
// context-free http.Client, so one is derived per call.
type gotrue struct {
	authURL string
	anonKey string
	now     func() time.Time
}

func newGotrue(projectURL, anonKey string) *gotrue {
	return &gotrue{
		authURL: strings.TrimRight(projectURL, "/") + "/auth/v1",
		anonKey: anonKey,
		now:     time.Now,
	}
}

// client returns an auth-go client whose requests are bound to ctx.
func (g *gotrue) client(ctx context.Context) auth.Client {
	hc := http.Client{Transport: ctxTransport{ctx: ctx, next: redirectTransport{next: http.DefaultTransport}}}
	return auth.New("", g.anonKey).WithCustomAuthURL(g.authURL).WithClient(hc)
}

// ctxTransport attaches ctx to outgoing requests so cancellation and the
// reset redirect reach the transport.
type ctxTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t ctxTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(r.WithContext(t.ctx))
}

func (g *gotrue) session(resp *types.TokenResponse) *backend.Session {
	s := &backend.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User: backend.User{
			ID:    resp.User.ID.String(),
			Email: resp.User.Email,
		},
	}
	if resp.ExpiresIn > 0 {
		s.ExpiresAt = g.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return s
}

// statusOf extracts the HTTP status auth-go embeds in its error strings
// ("response status code 400: ...").
func statusOf(err error) int {
	var code int
	msg := err.Error()
	if i := strings.Index(msg, "status code "); i >= 0 {
		_, _ = fmt.Sscanf(msg[i+len("status code "):], "%d", &code)
	}
	return code
}

func (g *gotrue) signIn(ctx context.Context, email, password string) (*backend.Session, error) {
	resp, err := g.client(ctx).SignInWithEmailPassword(strings.TrimSpace(email), password)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if s := statusOf(err); s == http.StatusBadRequest || s == http.StatusUnauthorized {
			return nil, backend.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("signing in: %w", err)
	}
	return g.session(resp), nil
}

func (g *gotrue) refresh(ctx context.Context, refreshToken string) (*backend.Session, error) {
	resp, err := g.client(ctx).RefreshToken(refreshToken)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if s := statusOf(err); s >= 400 && s < 500 {
			return nil, errors.Join(backend.ErrSessionExpired, err)
		}
		return nil, fmt.Errorf("refreshing session: %w", err)
	}
	return g.session(resp), nil
}

func (g *gotrue) signOut(ctx context.Context, accessToken string) error {
	if err := g.client(ctx).WithToken(accessToken).Logout(); err != nil {
		// An already revoked token is as good as signed out.
		if s := statusOf(err); s == http.StatusUnauthorized || s == http.StatusForbidden {
			return nil
		}
		return fmt.Errorf("signing out: %w", err)
	}
	return nil
}

func (g *gotrue) recover(ctx context.Context, email, redirectTo string) error {
	ctx = context.WithValue(ctx, redirectKey{}, redirectTo)
	if err := g.client(ctx).Recover(types.RecoverRequest{Email: strings.TrimSpace(email)}); err != nil {
		return fmt.Errorf("requesting password reset: %w", err)
	}
	return nil
}
