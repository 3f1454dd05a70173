// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"context"
	"time"

	"github.com/olegiv/uphouse/internal/model"
)

// Unconfigured is the backend used when no data service is configured.
// Every operation fails with ErrNotConfigured so that public pages fall
// back to bundled content and admin pages show a "not connected" notice.
type Unconfigured struct{}

var _ Backend = Unconfigured{}

func (Unconfigured) Mode() Mode { return ModeUnconfigured }

func (Unconfigured) SignIn(context.Context, string, string) (*Session, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) Refresh(context.Context, string) (*Session, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) SignOut(context.Context, string) error { return ErrNotConfigured }

func (Unconfigured) RequestPasswordReset(context.Context, string, string) error {
	return ErrNotConfigured
}

func (Unconfigured) Profile(context.Context, Principal, string) (*model.Profile, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) LatestContent(context.Context, Principal, model.PageKind) (*ContentRecord, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) SaveContent(context.Context, Principal, model.PageKind, ContentRecord, time.Time) (*ContentRecord, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) ListProjects(context.Context, Principal, ProjectQuery) ([]model.Project, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) GetProject(context.Context, Principal, string) (*model.Project, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) UpsertProject(context.Context, Principal, model.Project) (*model.Project, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) DeleteProject(context.Context, Principal, string) error {
	return ErrNotConfigured
}

func (Unconfigured) CountProjects(context.Context, Principal, bool) (int, error) {
	return 0, ErrNotConfigured
}

func (Unconfigured) CreateLead(context.Context, Principal, model.Lead) error {
	return ErrNotConfigured
}

func (Unconfigured) ListLeads(context.Context, Principal) ([]model.Lead, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) DeleteLead(context.Context, Principal, string) error {
	return ErrNotConfigured
}

func (Unconfigured) CountLeads(context.Context, Principal) (int, error) {
	return 0, ErrNotConfigured
}
