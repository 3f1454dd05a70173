// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/model"
)

// Table names outside the content pages.
const (
	tableProjects = "projects"
	tableLeads    = "leads"
	tableProfiles = "profiles"
)

// Backend is backend.Backend on a Supabase project.
type Backend struct {
	rest *REST
	auth *gotrue
	now  func() time.Time
}

var _ backend.Backend = (*Backend)(nil)

// New returns a Supabase backend for the project at projectURL.
func New(projectURL, anonKey string) *Backend {
	return &Backend{
		rest: NewREST(projectURL, anonKey, nil),
		auth: newGotrue(projectURL, anonKey),
		now:  time.Now,
	}
}

// Mode implements backend.Backend.
func (b *Backend) Mode() backend.Mode {
	return backend.ModeSupabase
}

// SignIn implements backend.Auth.
func (b *Backend) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	return b.auth.signIn(ctx, email, password)
}

// Refresh implements backend.Auth.
func (b *Backend) Refresh(ctx context.Context, refreshToken string) (*backend.Session, error) {
	return b.auth.refresh(ctx, refreshToken)
}

// SignOut implements backend.Auth.
func (b *Backend) SignOut(ctx context.Context, accessToken string) error {
	return b.auth.signOut(ctx, accessToken)
}

// RequestPasswordReset implements backend.Auth.
func (b *Backend) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	return b.auth.recover(ctx, email, redirectTo)
}

// Profile implements backend.Auth. Row policies may hide the row, which
// reads the same as a missing profile.
func (b *Backend) Profile(ctx context.Context, p backend.Principal, userID string) (*model.Profile, error) {
	var rows []model.Profile
	_, err := b.rest.do(ctx, p, request{
		method: http.MethodGet,
		table:  tableProfiles,
		query: url.Values{
			"select":  {"id,user_id,role,display_name"},
			"user_id": {eq(userID)},
			"limit":   {"1"},
		},
		out: &rows,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	prof := rows[0]
	prof.Role = model.ParseRole(string(prof.Role))
	return &prof, nil
}

// Content rows are stored column per field. These columns are managed
// by the row itself and kept out of ContentRecord.Data.
var contentMeta = []string{"id", "updated_at", "updated_by", "created_at"}

func splitContentRow(row map[string]json.RawMessage) (*backend.ContentRecord, error) {
	rec := &backend.ContentRecord{}
	if raw, ok := row["id"]; ok {
		var id any
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("decoding content id: %w", err)
		}
		if id != nil {
			rec.ID = fmt.Sprint(id)
		}
	}
	if raw, ok := row["updated_at"]; ok {
		var ts *time.Time
		if err := json.Unmarshal(raw, &ts); err != nil {
			return nil, fmt.Errorf("decoding content updated_at: %w", err)
		}
		if ts != nil {
			rec.UpdatedAt = *ts
		}
	}
	if raw, ok := row["updated_by"]; ok {
		_ = json.Unmarshal(raw, &rec.UpdatedBy)
	}
	for _, k := range contentMeta {
		delete(row, k)
	}
	data, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	rec.Data = data
	return rec, nil
}

// LatestContent implements backend.Content.
func (b *Backend) LatestContent(ctx context.Context, p backend.Principal, page model.PageKind) (*backend.ContentRecord, error) {
	var rows []map[string]json.RawMessage
	_, err := b.rest.do(ctx, p, request{
		method: http.MethodGet,
		table:  page.Table(),
		query: url.Values{
			"select": {"*"},
			"order":  {"updated_at.desc"},
			"limit":  {"1"},
		},
		out: &rows,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return splitContentRow(rows[0])
}

// SaveContent implements backend.Content. Without an expected version the
// row is upserted on id; with one the update only matches while the row
// still carries that updated_at.
func (b *Backend) SaveContent(ctx context.Context, p backend.Principal, page model.PageKind, rec backend.ContentRecord, expected time.Time) (*backend.ContentRecord, error) {
	if !page.Valid() {
		return nil, backend.NewValidationError("page", "unknown page %q", page)
	}
	// A version with no row to match means the row is gone.
	if !expected.IsZero() && rec.ID == "" {
		return nil, backend.ErrConflict
	}

	payload := map[string]any{}
	if len(rec.Data) > 0 {
		if err := json.Unmarshal(rec.Data, &payload); err != nil {
			return nil, backend.NewValidationError("data", "JSON 格式錯誤：%v", err)
		}
	}
	for _, k := range contentMeta {
		delete(payload, k)
	}
	payload["updated_at"] = b.now().UTC().Format(time.RFC3339Nano)
	if rec.UpdatedBy != "" {
		payload["updated_by"] = rec.UpdatedBy
	}

	var rows []map[string]json.RawMessage
	req := request{
		table:  page.Table(),
		body:   payload,
		prefer: []string{preferRepresentation},
		out:    &rows,
	}
	if expected.IsZero() {
		if rec.ID != "" {
			payload["id"] = rec.ID
		}
		req.method = http.MethodPost
		req.query = url.Values{"on_conflict": {"id"}}
		req.prefer = append(req.prefer, preferMerge)
	} else {
		req.method = http.MethodPatch
		req.query = url.Values{
			"id":         {eq(rec.ID)},
			"updated_at": {eq(expected.UTC().Format(time.RFC3339Nano))},
		}
	}

	if _, err := b.rest.do(ctx, p, req); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, backend.ErrConflict
	}
	return splitContentRow(rows[0])
}

// projectRow is the payload for an upsert. Identity columns stay with the
// existing row.
func projectRow(pr model.Project) model.Project {
	pr.ID = ""
	pr.CreatedAt = time.Time{}
	return pr
}

// ListProjects implements backend.Projects.
func (b *Backend) ListProjects(ctx context.Context, p backend.Principal, q backend.ProjectQuery) ([]model.Project, error) {
	v := url.Values{
		"select": {"*"},
		"order":  {"created_at.desc"},
	}
	if q.Status != "" {
		v.Set("status", eq(string(q.Status)))
	}
	if q.FeaturedOnly {
		v.Set("is_featured", "is.true")
	}
	if q.ExcludeSlug != "" {
		v.Set("slug", "neq."+q.ExcludeSlug)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}

	projects := []model.Project{}
	_, err := b.rest.do(ctx, p, request{method: http.MethodGet, table: tableProjects, query: v, out: &projects})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject implements backend.Projects.
func (b *Backend) GetProject(ctx context.Context, p backend.Principal, slug string) (*model.Project, error) {
	var rows []model.Project
	_, err := b.rest.do(ctx, p, request{
		method: http.MethodGet,
		table:  tableProjects,
		query:  url.Values{"select": {"*"}, "slug": {eq(slug)}, "limit": {"1"}},
		out:    &rows,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// UpsertProject implements backend.Projects.
func (b *Backend) UpsertProject(ctx context.Context, p backend.Principal, project model.Project) (*model.Project, error) {
	var rows []model.Project
	_, err := b.rest.do(ctx, p, request{
		method: http.MethodPost,
		table:  tableProjects,
		query:  url.Values{"on_conflict": {"slug"}},
		body:   projectRow(project),
		prefer: []string{preferRepresentation, preferMerge},
		out:    &rows,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		// Returned rows are filtered by select policies.
		return nil, backend.ErrUnauthorized
	}
	return &rows[0], nil
}

// DeleteProject implements backend.Projects.
func (b *Backend) DeleteProject(ctx context.Context, p backend.Principal, slug string) error {
	_, err := b.rest.do(ctx, p, request{
		method: http.MethodDelete,
		table:  tableProjects,
		query:  url.Values{"slug": {eq(slug)}},
		prefer: []string{preferMinimal},
	})
	return err
}

func (b *Backend) count(ctx context.Context, p backend.Principal, table string, v url.Values) (int, error) {
	v.Set("select", "id")
	v.Set("limit", "1")
	h, err := b.rest.do(ctx, p, request{
		method: http.MethodGet,
		table:  table,
		query:  v,
		prefer: []string{preferCountExact},
	})
	if err != nil {
		return 0, err
	}
	return parseCount(h)
}

// CountProjects implements backend.Projects.
func (b *Backend) CountProjects(ctx context.Context, p backend.Principal, featuredOnly bool) (int, error) {
	v := url.Values{}
	if featuredOnly {
		v.Set("is_featured", "is.true")
	}
	return b.count(ctx, p, tableProjects, v)
}

// CreateLead implements backend.Leads. Anonymous inserts cannot read the
// row back, so nothing is returned.
func (b *Backend) CreateLead(ctx context.Context, p backend.Principal, lead model.Lead) error {
	lead.ID = ""
	lead.CreatedAt = time.Time{}
	_, err := b.rest.do(ctx, p, request{
		method: http.MethodPost,
		table:  tableLeads,
		body:   []model.Lead{lead},
		prefer: []string{preferMinimal},
	})
	return err
}

// ListLeads implements backend.Leads.
func (b *Backend) ListLeads(ctx context.Context, p backend.Principal) ([]model.Lead, error) {
	leads := []model.Lead{}
	_, err := b.rest.do(ctx, p, request{
		method: http.MethodGet,
		table:  tableLeads,
		query:  url.Values{"select": {"*"}, "order": {"created_at.desc"}},
		out:    &leads,
	})
	if err != nil {
		return nil, err
	}
	return leads, nil
}

// DeleteLead implements backend.Leads.
func (b *Backend) DeleteLead(ctx context.Context, p backend.Principal, id string) error {
	_, err := b.rest.do(ctx, p, request{
		method: http.MethodDelete,
		table:  tableLeads,
		query:  url.Values{"id": {eq(id)}},
		prefer: []string{preferMinimal},
	})
	return err
}

// CountLeads implements backend.Leads.
func (b *Backend) CountLeads(ctx context.Context, p backend.Principal) (int, error) {
	return b.count(ctx, p, tableLeads, url.Values{})
}
