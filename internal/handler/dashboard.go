// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/olegiv/uphouse/internal/listing"
	"github.com/olegiv/uphouse/internal/model"
	"github.com/olegiv/uphouse/internal/render"
	"github.com/olegiv/uphouse/internal/session"
)

// recentEventsLimit is the number of audit events listed on the dashboard.
const recentEventsLimit = 20

// EventSource lists recorded audit events.
type EventSource interface {
	Recent(ctx context.Context, limit int) ([]model.Event, error)
}

// DashboardHandler renders the admin overview.
type DashboardHandler struct {
	renderer *render.Renderer
	projects *listing.Projects
	leads    *listing.Leads
	events   EventSource
	logger   *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler. events may be nil.
func NewDashboardHandler(renderer *render.Renderer, projects *listing.Projects, leads *listing.Leads, events EventSource, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		renderer: renderer,
		projects: projects,
		leads:    leads,
		events:   events,
		logger:   logger,
	}
}

// DashboardData is the view model of the admin overview.
type DashboardData struct {
	Errors        []string
	ProjectCount  int
	FeaturedCount int
	LeadCount     int
	ShowLeads     bool
	Events        []model.Event
}

// Dashboard handles GET /admin.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.StateFrom(ctx)
	p := st.Principal()

	data := DashboardData{ShowLeads: st.Role().Satisfies(model.RoleAdmin)}
	fail := func(what string, err error) {
		h.logger.Warn("dashboard query failed", "query", what, "error", err)
		data.Errors = append(data.Errors, what+"："+errorText(err))
	}

	var err error
	if data.ProjectCount, err = h.projects.Count(ctx, p, false); err != nil {
		fail("建案數", err)
	}
	if data.FeaturedCount, err = h.projects.Count(ctx, p, true); err != nil {
		fail("精選建案數", err)
	}

	if data.ShowLeads {
		if data.LeadCount, err = h.leads.Count(ctx, p); err != nil {
			fail("客戶留言數", err)
		}
		if h.events != nil {
			if data.Events, err = h.events.Recent(ctx, recentEventsLimit); err != nil {
				fail("系統事件", err)
			}
		}
	}

	renderPage(w, r, h.renderer, "admin/dashboard", adminData(r, "總覽", "dashboard", data))
}
