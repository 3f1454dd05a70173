// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the site.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/model"
	"github.com/olegiv/uphouse/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// Staff accounts created by TestLocal. All share TestPassword.
const (
	AdminEmail   = "admin@example.com"
	EditorEmail  = "editor@example.com"
	NoRoleEmail  = "visitor@example.com"
	TestPassword = "correct-horse-battery"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates a temporary test database with all migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "uphouse-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// TestLocal returns a local backend with an admin, an editor and an
// account without a profile.
func TestLocal(t *testing.T) (*store.Local, *sql.DB) {
	t.Helper()

	db, cleanup := TestDB(t)
	t.Cleanup(cleanup)

	local := store.NewLocal(db)
	ctx := context.Background()
	accounts := []struct {
		email string
		role  model.Role
		name  string
	}{
		{AdminEmail, model.RoleAdmin, "管理員"},
		{EditorEmail, model.RoleEditor, "編輯"},
		{NoRoleEmail, model.RoleNone, ""},
	}
	for _, a := range accounts {
		if _, err := local.CreateUser(ctx, a.email, TestPassword, a.role, a.name); err != nil {
			t.Fatalf("CreateUser(%s): %v", a.email, err)
		}
	}
	return local, db
}

// SignIn signs email in against b and returns the session.
func SignIn(t *testing.T, b backend.Auth, email string) *backend.Session {
	t.Helper()

	s, err := b.SignIn(context.Background(), email, TestPassword)
	if err != nil {
		t.Fatalf("SignIn(%s): %v", email, err)
	}
	return s
}

// TestMemoryDB creates an in-memory SQLite database for testing.
// Useful for tests that don't need persistent storage or migrations.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return db
}
