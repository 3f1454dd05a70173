// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package listing manages property projects and contact leads on top of
// the data backend.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/cache"
	"github.com/olegiv/uphouse/internal/model"
	"github.com/olegiv/uphouse/internal/util"
)

// TokenDeleter revokes uploaded media by delete token.
type TokenDeleter interface {
	DeleteByToken(ctx context.Context, token string) error
}

// Filter selects projects for listing pages.
type Filter struct {
	Status       model.ProjectStatus
	FeaturedOnly bool
	ExcludeSlug  string
	Limit        int
}

func (f Filter) cacheKey() string {
	return fmt.Sprintf("list:%s:%t:%s:%d", f.Status.Key(), f.FeaturedOnly, f.ExcludeSlug, f.Limit)
}

// Projects is the project repository. Anonymous reads are served from the
// cache; any write clears it.
type Projects struct {
	store  backend.Projects
	media  TokenDeleter
	lists  *cache.TypedCache[[]model.Project]
	items  *cache.TypedCache[model.Project]
	logger *slog.Logger
}

// NewProjects returns a project repository. A nil cacher disables caching.
func NewProjects(store backend.Projects, media TokenDeleter, cacher cache.Cacher, ttl time.Duration, logger *slog.Logger) *Projects {
	r := &Projects{store: store, media: media, logger: logger}
	if cacher != nil {
		r.lists = cache.NewTypedCache[[]model.Project](cacher, "projects", ttl)
		r.items = cache.NewTypedCache[model.Project](cacher, "projects", ttl)
	}
	return r
}

// List returns projects matching f, newest first.
func (r *Projects) List(ctx context.Context, p backend.Principal, f Filter) ([]model.Project, error) {
	load := func() (*[]model.Project, error) {
		projects, err := r.store.ListProjects(ctx, p, backend.ProjectQuery{
			Status:       f.Status,
			FeaturedOnly: f.FeaturedOnly,
			ExcludeSlug:  f.ExcludeSlug,
			Limit:        f.Limit,
		})
		if err != nil {
			return nil, fmt.Errorf("listing projects: %w", err)
		}
		return &projects, nil
	}

	var (
		projects *[]model.Project
		err      error
	)
	if r.lists != nil && p.IsAnonymous() {
		projects, err = r.lists.GetOrSet(ctx, f.cacheKey(), load)
	} else {
		projects, err = load()
	}
	if err != nil {
		return nil, err
	}
	return *projects, nil
}

// Get returns the project with slug, or nil when none exists.
func (r *Projects) Get(ctx context.Context, p backend.Principal, slug string) (*model.Project, error) {
	key := "slug:" + slug
	if r.items != nil && p.IsAnonymous() {
		if pr, ok := r.items.Get(ctx, key); ok {
			return pr, nil
		}
	}

	pr, err := r.store.GetProject(ctx, p, slug)
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", slug, err)
	}
	if pr != nil && r.items != nil && p.IsAnonymous() {
		_ = r.items.Set(ctx, key, pr)
	}
	return pr, nil
}

// Featured returns up to n featured projects.
func (r *Projects) Featured(ctx context.Context, p backend.Principal, n int) ([]model.Project, error) {
	return r.List(ctx, p, Filter{FeaturedOnly: true, Limit: n})
}

// Related returns up to n projects other than slug.
func (r *Projects) Related(ctx context.Context, p backend.Principal, slug string, n int) ([]model.Project, error) {
	return r.List(ctx, p, Filter{ExcludeSlug: slug, Limit: n})
}

// ValidateProject normalizes project and checks the fields the backend
// cannot. It returns a *backend.ValidationError on failure.
func ValidateProject(project *model.Project) error {
	project.Normalize()
	if project.Slug == "" {
		return backend.NewValidationError("slug", "Slug 為必填欄位，請輸入英文小寫與連字號組合。")
	}
	if !util.IsValidSlug(project.Slug) {
		return backend.NewValidationError("slug", "Slug 僅能包含英文小寫、數字與單一連字號，例如 emerald-lane。")
	}
	if project.Name == "" {
		return backend.NewValidationError("name", "建案名稱為必填欄位")
	}
	if (project.Latitude == nil) != (project.Longitude == nil) {
		return backend.NewValidationError("latitude", "緯度與經度需同時填寫")
	}
	return nil
}

// Upsert validates and stores project keyed by slug. Every field of an
// existing project is overwritten.
func (r *Projects) Upsert(ctx context.Context, p backend.Principal, project model.Project) (*model.Project, error) {
	if err := ValidateProject(&project); err != nil {
		return nil, err
	}

	saved, err := r.store.UpsertProject(ctx, p, project)
	r.invalidate(ctx)
	if err != nil {
		return nil, fmt.Errorf("saving project %s: %w", project.Slug, err)
	}
	return saved, nil
}

// Delete removes the project with slug. Its uploaded media are revoked
// first; revocation failures are logged and do not stop the delete.
func (r *Projects) Delete(ctx context.Context, p backend.Principal, slug string) error {
	existing, err := r.store.GetProject(ctx, p, slug)
	if err != nil {
		return fmt.Errorf("loading project %s: %w", slug, err)
	}

	if existing != nil && r.media != nil {
		for _, token := range existing.DeleteTokens() {
			if err := r.media.DeleteByToken(ctx, token); err != nil {
				r.logger.Warn("media delete failed", "slug", slug, "error", err)
			}
		}
	}

	err = r.store.DeleteProject(ctx, p, slug)
	r.invalidate(ctx)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", slug, err)
	}
	return nil
}

// Count returns the number of projects, or of featured projects.
func (r *Projects) Count(ctx context.Context, p backend.Principal, featuredOnly bool) (int, error) {
	n, err := r.store.CountProjects(ctx, p, featuredOnly)
	if err != nil {
		return 0, fmt.Errorf("counting projects: %w", err)
	}
	return n, nil
}

func (r *Projects) invalidate(ctx context.Context) {
	if r.lists == nil {
		return
	}
	if err := r.lists.Invalidate(ctx); err != nil {
		r.logger.Warn("cache invalidation failed", "namespace", "projects", "error", err)
	}
}

// ParseCoordinate reads an optional latitude or longitude form value.
func ParseCoordinate(field, raw string, limit float64) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < -limit || v > limit {
		return nil, backend.NewValidationError(field, "%s 必須是介於 -%g 與 %g 之間的數字", field, limit, limit)
	}
	return &v, nil
}
