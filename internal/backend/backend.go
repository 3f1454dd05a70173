// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package backend defines the contract between the site and the data
// service that stores pages, projects and leads and authenticates staff.
// Row-level authorization is the backend's job: callers pass a Principal
// and surface whatever the backend decides.
package backend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/olegiv/uphouse/internal/model"
)

// Mode names the active backend.
type Mode string

// Backend modes.
const (
	ModeSupabase     Mode = "supabase"
	ModeLocal        Mode = "local"
	ModeUnconfigured Mode = "unconfigured"
)

// Principal identifies the caller of a data operation. The zero value is
// the anonymous caller.
type Principal struct {
	AccessToken string
	UserID      string
}

// Anonymous is the unauthenticated caller.
var Anonymous = Principal{}

// IsAnonymous reports whether no access token is attached.
func (p Principal) IsAnonymous() bool {
	return p.AccessToken == ""
}

// User is the authenticated account behind a session.
type User struct {
	ID    string
	Email string
}

// Session is an authenticated login. Tokens are opaque to the site.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Expired reports whether the access token is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Principal returns the caller identity carried by the session.
func (s *Session) Principal() Principal {
	if s == nil {
		return Anonymous
	}
	return Principal{AccessToken: s.AccessToken, UserID: s.User.ID}
}

// ContentRecord is the stored form of a singleton content page. Data holds
// the page fields as a JSON object.
type ContentRecord struct {
	ID        string
	Data      json.RawMessage
	UpdatedAt time.Time
	UpdatedBy string
}

// ProjectQuery selects projects. Results are always newest first.
type ProjectQuery struct {
	Status       model.ProjectStatus
	FeaturedOnly bool
	ExcludeSlug  string
	Limit        int
}

// Auth is the authentication half of the backend.
type Auth interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
	// Profile returns the profile of userID, or nil when none exists.
	Profile(ctx context.Context, p Principal, userID string) (*model.Profile, error)
}

// Content stores singleton content pages.
type Content interface {
	// LatestContent returns the most recently updated row, or nil.
	LatestContent(ctx context.Context, p Principal, page model.PageKind) (*ContentRecord, error)
	// SaveContent writes rec. A non-zero expected time makes the write
	// conditional on the stored row still carrying that updated_at; with
	// no stored row it fails with ErrConflict.
	SaveContent(ctx context.Context, p Principal, page model.PageKind, rec ContentRecord, expected time.Time) (*ContentRecord, error)
}

// Projects stores property listings keyed by slug.
type Projects interface {
	ListProjects(ctx context.Context, p Principal, q ProjectQuery) ([]model.Project, error)
	// GetProject returns the project with slug, or nil.
	GetProject(ctx context.Context, p Principal, slug string) (*model.Project, error)
	UpsertProject(ctx context.Context, p Principal, project model.Project) (*model.Project, error)
	DeleteProject(ctx context.Context, p Principal, slug string) error
	CountProjects(ctx context.Context, p Principal, featuredOnly bool) (int, error)
}

// Leads stores contact form submissions.
type Leads interface {
	CreateLead(ctx context.Context, p Principal, lead model.Lead) error
	ListLeads(ctx context.Context, p Principal) ([]model.Lead, error)
	DeleteLead(ctx context.Context, p Principal, id string) error
	CountLeads(ctx context.Context, p Principal) (int, error)
}

// Backend is the full data service.
type Backend interface {
	Auth
	Content
	Projects
	Leads
	Mode() Mode
}
