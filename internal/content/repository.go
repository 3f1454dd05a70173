// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content loads and saves the singleton content pages.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/cache"
	"github.com/olegiv/uphouse/internal/model"
)

// Entry is one stored page together with its row metadata.
type Entry[T any] struct {
	ID   string `json:"id"`
	Page T      `json:"page"`
	// Version is the updated_at the entry was read with. A non-zero
	// Version makes Save conditional on the row being unchanged.
	Version   time.Time `json:"version"`
	UpdatedBy string    `json:"updated_by"`
}

// Repository reads and writes one page kind.
type Repository[T any] struct {
	store  backend.Content
	page   model.PageKind
	cache  *cache.TypedCache[Entry[T]]
	logger *slog.Logger
}

// NewRepository returns a repository for page. A nil cacher disables
// caching.
func NewRepository[T any](store backend.Content, page model.PageKind, cacher cache.Cacher, ttl time.Duration, logger *slog.Logger) *Repository[T] {
	r := &Repository[T]{store: store, page: page, logger: logger}
	if cacher != nil {
		r.cache = cache.NewTypedCache[Entry[T]](cacher, "content", ttl)
	}
	return r
}

// Page returns the page kind served by r.
func (r *Repository[T]) Page() model.PageKind {
	return r.page
}

// Load returns the stored page, or nil when no row exists yet.
func (r *Repository[T]) Load(ctx context.Context, p backend.Principal) (*Entry[T], error) {
	key := string(r.page)
	if r.cache != nil {
		if e, ok := r.cache.Get(ctx, key); ok {
			return e, nil
		}
	}

	rec, err := r.store.LatestContent(ctx, p, r.page)
	if err != nil {
		return nil, fmt.Errorf("loading %s page: %w", r.page, err)
	}
	if rec == nil {
		return nil, nil
	}

	e, err := decode[T](rec)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, key, e); err != nil {
			r.logger.Warn("cache write failed", "page", r.page, "error", err)
		}
	}
	return e, nil
}

// Save writes e and returns the stored entry. The backend stamps the
// update time and author.
func (r *Repository[T]) Save(ctx context.Context, p backend.Principal, e Entry[T]) (*Entry[T], error) {
	data, err := json.Marshal(e.Page)
	if err != nil {
		return nil, fmt.Errorf("encoding %s page: %w", r.page, err)
	}

	rec, err := r.store.SaveContent(ctx, p, r.page, backend.ContentRecord{
		ID:        e.ID,
		Data:      data,
		UpdatedBy: p.UserID,
	}, e.Version)
	r.invalidate(ctx)
	if err != nil {
		return nil, fmt.Errorf("saving %s page: %w", r.page, err)
	}
	return decode[T](rec)
}

func (r *Repository[T]) invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, string(r.page)); err != nil {
		r.logger.Warn("cache invalidation failed", "page", r.page, "error", err)
	}
}

func decode[T any](rec *backend.ContentRecord) (*Entry[T], error) {
	e := &Entry[T]{ID: rec.ID, Version: rec.UpdatedAt, UpdatedBy: rec.UpdatedBy}
	if len(rec.Data) > 0 {
		if err := json.Unmarshal(rec.Data, &e.Page); err != nil {
			return nil, fmt.Errorf("decoding stored page: %w", err)
		}
	}
	return e, nil
}

// FormatVersion renders a version for a hidden form field.
func FormatVersion(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseVersion reads a version posted back by a form. An empty string is
// the zero version.
func ParseVersion(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, backend.NewValidationError("version", "版本資訊無效")
	}
	return t, nil
}

// ParseJSONField checks that the JSON textarea name holds well-formed
// JSON and keeps it verbatim. The shape of the value is not checked.
// Blank input yields the empty list.
func ParseJSONField[T any](name, raw string) (model.List[T], error) {
	if isBlank(raw) {
		return model.List[T]{}, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return model.List[T]{}, backend.NewValidationError(name, "JSON 格式錯誤：%v", err)
	}
	return model.RawList[T]([]byte(raw)), nil
}

// FormatJSONField renders v for a JSON textarea.
func FormatJSONField(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil || string(b) == "null" {
		return ""
	}
	return string(b)
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
