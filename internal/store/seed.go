// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"

	"github.com/olegiv/uphouse/internal/model"
)

// SeedAdmin creates the first admin account when no user with email
// exists yet. It reports whether an account was created.
func (l *Local) SeedAdmin(ctx context.Context, email, password, displayName string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n); err != nil {
		return false, fmt.Errorf("checking admin account: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	if _, err := l.CreateUser(ctx, email, password, model.RoleAdmin, displayName); err != nil {
		return false, fmt.Errorf("seeding admin: %w", err)
	}
	return true, nil
}
