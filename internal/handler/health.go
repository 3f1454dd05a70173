// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/version"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db           *sql.DB
	mode         backend.Mode
	mediaReady   bool
	cacheBackend string
	startTime    time.Time
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(db *sql.DB, mode backend.Mode, mediaReady bool, cacheBackend string) *HealthHandler {
	return &HealthHandler{
		db:           db,
		mode:         mode,
		mediaReady:   mediaReady,
		cacheBackend: cacheBackend,
		startTime:    time.Now(),
	}
}

// HealthStatus is the /health response.
type HealthStatus struct {
	Status          string       `json:"status"`
	Backend         backend.Mode `json:"backend"`
	MediaConfigured bool         `json:"media_configured"`
	Cache           string       `json:"cache"`
	Database        string       `json:"database"`
	Uptime          string       `json:"uptime"`
	Version         version.Info `json:"version"`
}

// Health handles GET /health. A failing local database answers 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:          "healthy",
		Backend:         h.mode,
		MediaConfigured: h.mediaReady,
		Cache:           h.cacheBackend,
		Database:        h.checkDatabase(r.Context()),
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		Version:         version.Get(),
	}

	code := http.StatusOK
	if status.Database == "unhealthy" {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) string {
	if h.db == nil {
		return "none"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}
