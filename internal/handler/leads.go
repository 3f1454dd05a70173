// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/uphouse/internal/listing"
	"github.com/olegiv/uphouse/internal/model"
	"github.com/olegiv/uphouse/internal/render"
)

// LeadsHandler lists and removes contact form submissions.
type LeadsHandler struct {
	renderer *render.Renderer
	leads    *listing.Leads
	logger   *slog.Logger
}

// NewLeadsHandler creates a new LeadsHandler.
func NewLeadsHandler(renderer *render.Renderer, leads *listing.Leads, logger *slog.Logger) *LeadsHandler {
	return &LeadsHandler{renderer: renderer, leads: leads, logger: logger}
}

// LeadsData is the view model of the lead list.
type LeadsData struct {
	Leads []model.Lead
	Error string
}

// List handles GET /admin/leads.
func (h *LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	data := LeadsData{}
	leads, err := h.leads.List(r.Context(), principalOf(r))
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		data.Error = errorText(err)
	}
	data.Leads = leads

	renderPage(w, r, h.renderer, "admin/leads", adminData(r, "客戶留言", "leads", data))
}

// Delete handles POST /admin/leads/{id}/delete.
func (h *LeadsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := principalOf(r)

	if err := h.leads.Delete(r.Context(), p, id); err != nil {
		h.logger.Error("failed to delete lead", "id", id, "user_id", p.UserID, "error", err)
		flashError(w, r, h.renderer, redirectLeads, "刪除失敗："+errorText(err))
		return
	}

	h.logger.Info("lead deleted", "id", id, "user_id", p.UserID)
	flashSuccess(w, r, h.renderer, redirectLeads, "留言已刪除。")
}
