// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/uphouse/internal/auth"
	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/model"
)

// Token lifetimes of the local backend.
const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 30 * 24 * time.Hour
	ResetTokenTTL   = time.Hour
)

// Local is the SQLite data backend. It enforces the same row policies a
// hosted backend would:
//   - pages and projects: anyone reads, authenticated callers write
//   - leads: anyone inserts, admins read and delete
//   - profiles: callers read their own, admins read all
type Local struct {
	db  *sql.DB
	now func() time.Time
}

var _ backend.Backend = (*Local)(nil)

// NewLocal returns the local backend over a migrated database.
func NewLocal(db *sql.DB) *Local {
	return &Local{db: db, now: time.Now}
}

// Mode implements backend.Backend.
func (l *Local) Mode() backend.Mode {
	return backend.ModeLocal
}

// caller is a resolved principal.
type caller struct {
	userID string
	role   model.Role
}

func (c *caller) authenticated() bool { return c != nil && c.userID != "" }

func (c *caller) admin() bool { return c.authenticated() && c.role == model.RoleAdmin }

// resolve maps a principal to a caller. Anonymous principals resolve to
// nil; unknown or expired tokens are rejected like an invalid JWT.
func (l *Local) resolve(ctx context.Context, p backend.Principal) (*caller, error) {
	if p.IsAnonymous() {
		return nil, nil
	}

	var c caller
	var expires int64
	var role sql.NullString
	err := l.db.QueryRowContext(ctx, `
		SELECT t.user_id, t.expires_at, p.role
		FROM auth_tokens t
		LEFT JOIN profiles p ON p.user_id = t.user_id
		WHERE t.access_token = ?`, p.AccessToken,
	).Scan(&c.userID, &expires, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &backend.Error{Status: 401, Message: "invalid access token"}
	}
	if err != nil {
		return nil, fmt.Errorf("resolving principal: %w", err)
	}
	if !l.now().Before(fromDB(expires)) {
		return nil, &backend.Error{Status: 401, Message: "access token expired"}
	}
	c.role = model.ParseRole(role.String)
	return &c, nil
}

func requireAuthenticated(c *caller) error {
	if !c.authenticated() {
		return &backend.Error{Status: 401, Code: "42501", Message: "authentication required"}
	}
	return nil
}

func requireAdmin(c *caller) error {
	if !c.admin() {
		return &backend.Error{Status: 403, Code: "42501", Message: "permission denied"}
	}
	return nil
}

// SignIn implements backend.Auth.
func (l *Local) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	email = strings.TrimSpace(email)

	var userID, hash, stored string
	err := l.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM users WHERE email = ?`, email,
	).Scan(&userID, &stored, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		auth.CheckMissingAccount(password)
		return nil, backend.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := auth.CheckPassword(password, hash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, backend.ErrInvalidCredentials
	}

	if auth.NeedsRehash(hash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			_, _ = l.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, newHash, userID)
		}
	}

	return l.issueTokens(ctx, backend.User{ID: userID, Email: stored})
}

func (l *Local) issueTokens(ctx context.Context, user backend.User) (*backend.Session, error) {
	now := l.now()
	s := &backend.Session{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		ExpiresAt:    now.Add(AccessTokenTTL),
		User:         user,
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (access_token, refresh_token, user_id, expires_at, refresh_expires_at) VALUES (?, ?, ?, ?, ?)`,
		s.AccessToken, s.RefreshToken, user.ID, toDB(s.ExpiresAt), toDB(now.Add(RefreshTokenTTL)),
	)
	if err != nil {
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}
	return s, nil
}

// Refresh implements backend.Auth. Refresh tokens are single use.
func (l *Local) Refresh(ctx context.Context, refreshToken string) (*backend.Session, error) {
	var user backend.User
	var refreshExpires int64
	err := l.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, t.refresh_expires_at
		FROM auth_tokens t JOIN users u ON u.id = t.user_id
		WHERE t.refresh_token = ?`, refreshToken,
	).Scan(&user.ID, &user.Email, &refreshExpires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("looking up refresh token: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE refresh_token = ?`, refreshToken); err != nil {
		return nil, fmt.Errorf("revoking refresh token: %w", err)
	}
	if !l.now().Before(fromDB(refreshExpires)) {
		return nil, backend.ErrSessionExpired
	}
	return l.issueTokens(ctx, user)
}

// SignOut implements backend.Auth.
func (l *Local) SignOut(ctx context.Context, accessToken string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE access_token = ?`, accessToken); err != nil {
		return fmt.Errorf("signing out: %w", err)
	}
	return nil
}

// RequestPasswordReset implements backend.Auth. The local backend has no
// mail transport; the request is recorded for an operator to act on.
// Unknown emails succeed silently.
func (l *Local) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	var userID string
	err := l.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, strings.TrimSpace(email)).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up user: %w", err)
	}

	now := l.now()
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO password_resets (token, user_id, redirect_to, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, redirectTo, toDB(now.Add(ResetTokenTTL)), toDB(now),
	)
	if err != nil {
		return fmt.Errorf("recording password reset: %w", err)
	}
	return nil
}

// Profile implements backend.Auth.
func (l *Local) Profile(ctx context.Context, p backend.Principal, userID string) (*model.Profile, error) {
	c, err := l.resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := requireAuthenticated(c); err != nil {
		return nil, err
	}
	// Reading another user's profile is filtered, not rejected.
	if c.userID != userID && !c.admin() {
		return nil, nil
	}

	var prof model.Profile
	var role string
	err = l.db.QueryRowContext(ctx,
		`SELECT id, user_id, role, display_name FROM profiles WHERE user_id = ?`, userID,
	).Scan(&prof.ID, &prof.UserID, &role, &prof.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	prof.Role = model.ParseRole(role)
	return &prof, nil
}

// CreateUser adds a staff account with an optional profile. A blank role
// creates an account without a profile.
func (l *Local) CreateUser(ctx context.Context, email, password string, role model.Role, displayName string) (string, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	userID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		userID, strings.TrimSpace(email), hash, toDB(l.now()),
	); err != nil {
		return "", fmt.Errorf("creating user: %w", err)
	}

	if role != model.RoleNone {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profiles (id, user_id, role, display_name) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), userID, string(role), displayName,
		); err != nil {
			return "", fmt.Errorf("creating profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing user: %w", err)
	}
	return userID, nil
}
