package supabase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "7f1c2a9e-1b3d-4c5e-8f70-123456789abc"

func fakeGotrue(t *testing.T) *fakeServer {
	return newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/token"):
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token":  "access-1",
				"refresh_token": "refresh-1",
				"token_type":    "bearer",
				"expires_in":    3600,
				"user":          map[string]any{"id": testUserID, "email": "editor@example.com"},
			})
		case strings.HasSuffix(r.URL.Path, "/recover"):
			writeJSON(w, http.StatusOK, map[string]any{})
		case strings.HasSuffix(r.URL.Path, "/logout"):
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestGotrueSignIn(t *testing.T) {
	fs := fakeGotrue(t)
	g := newGotrue(fs.URL, anonKey)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	s, err := g.signIn(context.Background(), " editor@example.com ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "access-1", s.AccessToken)
	assert.Equal(t, "refresh-1", s.RefreshToken)
	assert.Equal(t, testUserID, s.User.ID)
	assert.Equal(t, "editor@example.com", s.User.Email)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)

	req := fs.last()
	assert.True(t, strings.HasPrefix(req.path, "/auth/v1/"), "path = %s", req.path)
	assert.Contains(t, req.body, `"editor@example.com"`)
}

func TestGotrueRecoverSendsRedirect(t *testing.T) {
	fs := fakeGotrue(t)
	g := newGotrue(fs.URL, anonKey)

	err := g.recover(context.Background(), "editor@example.com", "https://example.com/admin/login")
	require.NoError(t, err)

	req := fs.last()
	assert.True(t, strings.HasSuffix(req.path, "/recover"))
	assert.Equal(t, "https://example.com/admin/login", req.query["redirect_to"])
}

func TestRedirectTransportOnlyTouchesRecover(t *testing.T) {
	var seen *http.Request
	rt := redirectTransport{next: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return nil, errors.New("stop")
	})}

	ctx := context.WithValue(context.Background(), redirectKey{}, "https://x/y")
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, "https://auth.example/auth/v1/token?grant_type=password", nil)
	_, _ = rt.RoundTrip(req)
	assert.Empty(t, seen.URL.Query().Get("redirect_to"))
	assert.Equal(t, "password", seen.URL.Query().Get("grant_type"))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New("response status code 400: {\"error\":\"invalid_grant\"}"), 400},
		{errors.New("response status code 503: unavailable"), 503},
		{errors.New("dial tcp: connection refused"), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}
