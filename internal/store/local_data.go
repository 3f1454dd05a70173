// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/model"
)

// LatestContent implements backend.Content.
func (l *Local) LatestContent(ctx context.Context, p backend.Principal, page model.PageKind) (*backend.ContentRecord, error) {
	if _, err := l.resolve(ctx, p); err != nil {
		return nil, err
	}

	var rec backend.ContentRecord
	var data string
	var updated int64
	err := l.db.QueryRowContext(ctx,
		`SELECT id, data, updated_at, updated_by FROM page_content WHERE page = ?`, string(page),
	).Scan(&rec.ID, &data, &updated, &rec.UpdatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s content: %w", page, err)
	}
	rec.Data = json.RawMessage(data)
	rec.UpdatedAt = fromDB(updated)
	return &rec, nil
}

// SaveContent implements backend.Content.
func (l *Local) SaveContent(ctx context.Context, p backend.Principal, page model.PageKind, rec backend.ContentRecord, expected time.Time) (*backend.ContentRecord, error) {
	c, err := l.resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := requireAuthenticated(c); err != nil {
		return nil, err
	}
	if !page.Valid() {
		return nil, backend.NewValidationError("page", "unknown page %q", page)
	}

	data := string(rec.Data)
	if data == "" {
		data = "{}"
	}
	now := l.now().UTC()
	// Two saves within one clock tick must still advance the version.
	if !expected.IsZero() && !now.After(expected) {
		now = expected.Add(time.Nanosecond)
	}

	var res sql.Result
	if expected.IsZero() {
		res, err = l.db.ExecContext(ctx, `
			INSERT INTO page_content (page, id, data, updated_at, updated_by) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(page) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at, updated_by = excluded.updated_by`,
			string(page), uuid.NewString(), data, toDB(now), c.userID,
		)
	} else {
		res, err = l.db.ExecContext(ctx,
			`UPDATE page_content SET data = ?, updated_at = ?, updated_by = ? WHERE page = ? AND updated_at = ?`,
			data, toDB(now), c.userID, string(page), toDB(expected),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("saving %s content: %w", page, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, backend.ErrConflict
	}
	return l.LatestContent(ctx, p, page)
}

// projectData is the JSON blob stored for a project. Identity columns live
// outside the blob.
func projectData(pr model.Project) (string, error) {
	pr.ID = ""
	pr.CreatedAt = time.Time{}
	b, err := json.Marshal(pr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func scanProject(id, data string, created int64) (model.Project, error) {
	var pr model.Project
	if err := json.Unmarshal([]byte(data), &pr); err != nil {
		return pr, fmt.Errorf("decoding project %s: %w", id, err)
	}
	pr.ID = id
	pr.CreatedAt = fromDB(created)
	return pr, nil
}

// ListProjects implements backend.Projects.
func (l *Local) ListProjects(ctx context.Context, p backend.Principal, q backend.ProjectQuery) ([]model.Project, error) {
	if _, err := l.resolve(ctx, p); err != nil {
		return nil, err
	}

	var where []string
	var args []any
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}
	if q.FeaturedOnly {
		where = append(where, "is_featured = 1")
	}
	if q.ExcludeSlug != "" {
		where = append(where, "slug <> ?")
		args = append(args, q.ExcludeSlug)
	}

	query := "SELECT id, data, created_at FROM projects"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, slug"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	projects := []model.Project{}
	for rows.Next() {
		var id, data string
		var created int64
		if err := rows.Scan(&id, &data, &created); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		pr, err := scanProject(id, data, created)
		if err != nil {
			return nil, err
		}
		projects = append(projects, pr)
	}
	return projects, rows.Err()
}

// GetProject implements backend.Projects.
func (l *Local) GetProject(ctx context.Context, p backend.Principal, slug string) (*model.Project, error) {
	if _, err := l.resolve(ctx, p); err != nil {
		return nil, err
	}

	var id, data string
	var created int64
	err := l.db.QueryRowContext(ctx,
		`SELECT id, data, created_at FROM projects WHERE slug = ?`, slug,
	).Scan(&id, &data, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", slug, err)
	}
	pr, err := scanProject(id, data, created)
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

// UpsertProject implements backend.Projects. The slug is the conflict
// target; an existing row keeps its id and created_at.
func (l *Local) UpsertProject(ctx context.Context, p backend.Principal, project model.Project) (*model.Project, error) {
	c, err := l.resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := requireAuthenticated(c); err != nil {
		return nil, err
	}

	data, err := projectData(project)
	if err != nil {
		return nil, fmt.Errorf("encoding project: %w", err)
	}

	now := l.now()
	created := project.CreatedAt
	if created.IsZero() {
		created = now
	}
	id := project.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO projects (id, slug, status, is_featured, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			status = excluded.status,
			is_featured = excluded.is_featured,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		id, project.Slug, string(project.Status), project.IsFeatured, data, toDB(created), toDB(now),
	)
	if err != nil {
		return nil, fmt.Errorf("upserting project %s: %w", project.Slug, err)
	}
	return l.GetProject(ctx, p, project.Slug)
}

// DeleteProject implements backend.Projects. Deleting a missing slug is
// not an error.
func (l *Local) DeleteProject(ctx context.Context, p backend.Principal, slug string) error {
	c, err := l.resolve(ctx, p)
	if err != nil {
		return err
	}
	if err := requireAuthenticated(c); err != nil {
		return err
	}
	if _, err := l.db.ExecContext(ctx, `DELETE FROM projects WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("deleting project %s: %w", slug, err)
	}
	return nil
}

// CountProjects implements backend.Projects.
func (l *Local) CountProjects(ctx context.Context, p backend.Principal, featuredOnly bool) (int, error) {
	if _, err := l.resolve(ctx, p); err != nil {
		return 0, err
	}
	query := `SELECT COUNT(*) FROM projects`
	if featuredOnly {
		query += ` WHERE is_featured = 1`
	}
	var n int
	if err := l.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting projects: %w", err)
	}
	return n, nil
}

// CreateLead implements backend.Leads. Anyone may insert.
func (l *Local) CreateLead(ctx context.Context, p backend.Principal, lead model.Lead) error {
	if _, err := l.resolve(ctx, p); err != nil {
		return err
	}

	var message sql.NullString
	if lead.Message != nil {
		message = sql.NullString{String: *lead.Message, Valid: true}
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO leads (id, name, phone, email, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), lead.Name, lead.Phone, lead.Email, message, toDB(l.now()),
	)
	if err != nil {
		return fmt.Errorf("creating lead: %w", err)
	}
	return nil
}

// ListLeads implements backend.Leads. Admin only.
func (l *Local) ListLeads(ctx context.Context, p backend.Principal) ([]model.Lead, error) {
	c, err := l.resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(c); err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT id, name, phone, email, message, created_at FROM leads ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	leads := []model.Lead{}
	for rows.Next() {
		var lead model.Lead
		var message sql.NullString
		var created int64
		if err := rows.Scan(&lead.ID, &lead.Name, &lead.Phone, &lead.Email, &message, &created); err != nil {
			return nil, fmt.Errorf("scanning lead: %w", err)
		}
		if message.Valid {
			lead.Message = &message.String
		}
		lead.CreatedAt = fromDB(created)
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// DeleteLead implements backend.Leads. Admin only.
func (l *Local) DeleteLead(ctx context.Context, p backend.Principal, id string) error {
	c, err := l.resolve(ctx, p)
	if err != nil {
		return err
	}
	if err := requireAdmin(c); err != nil {
		return err
	}
	if _, err := l.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting lead: %w", err)
	}
	return nil
}

// CountLeads implements backend.Leads. Admin only.
func (l *Local) CountLeads(ctx context.Context, p backend.Principal) (int, error) {
	c, err := l.resolve(ctx, p)
	if err != nil {
		return 0, err
	}
	if err := requireAdmin(c); err != nil {
		return 0, err
	}
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting leads: %w", err)
	}
	return n, nil
}
