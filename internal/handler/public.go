// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/content"
	"github.com/olegiv/uphouse/internal/listing"
	"github.com/olegiv/uphouse/internal/middleware"
	"github.com/olegiv/uphouse/internal/model"
	"github.com/olegiv/uphouse/internal/render"
)

// Number of projects shown in the featured and related sections.
const (
	featuredLimit = 2
	relatedLimit  = 2
)

// Pages bundles the repositories of the editable content pages.
type Pages struct {
	Home     *content.Repository[model.HomePage]
	About    *content.Repository[model.AboutPage]
	Contact  *content.Repository[model.ContactPage]
	Projects *content.Repository[model.ProjectsPage]
}

// PublicHandler serves the visitor-facing site.
type PublicHandler struct {
	renderer *render.Renderer
	pages    Pages
	projects *listing.Projects
	leads    *listing.Leads
	throttle *middleware.Throttle
	logger   *slog.Logger
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(renderer *render.Renderer, pages Pages, projects *listing.Projects, leads *listing.Leads, throttle *middleware.Throttle, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		renderer: renderer,
		pages:    pages,
		projects: projects,
		leads:    leads,
		throttle: throttle,
		logger:   logger,
	}
}

// fallbackNotice is the inline notice shown when bundled content replaces a
// failed read. An unconfigured backend gets no notice.
func fallbackNotice(err error) string {
	if errors.Is(err, backend.ErrNotConfigured) {
		return ""
	}
	return "目前無法載入最新資料，以下為預設內容。（" + errorText(err) + "）"
}

// loadPage reads a content page for visitors, falling back to def when the
// page is missing or cannot be read.
func loadPage[T any](ctx context.Context, logger *slog.Logger, repo *content.Repository[T], def func() T) (T, string) {
	entry, err := repo.Load(ctx, backend.Anonymous)
	if err != nil {
		if !errors.Is(err, backend.ErrNotConfigured) {
			logger.Warn("content read failed, using defaults", "page", repo.Page(), "error", err)
		}
		return def(), fallbackNotice(err)
	}
	if entry == nil {
		return def(), ""
	}
	return entry.Page, ""
}

// listProjects lists projects for visitors, falling back to the samples.
func (h *PublicHandler) listProjects(ctx context.Context, f listing.Filter) ([]model.Project, string) {
	projects, err := h.projects.List(ctx, backend.Anonymous, f)
	if err != nil {
		if !errors.Is(err, backend.ErrNotConfigured) {
			h.logger.Warn("project read failed, using samples", "error", err)
		}
		return model.FilterSampleProjects(f.Status, f.FeaturedOnly, f.ExcludeSlug, f.Limit), fallbackNotice(err)
	}
	return projects, ""
}

// joinNotices keeps the first non-empty notice.
func joinNotices(notices ...string) string {
	for _, n := range notices {
		if n != "" {
			return n
		}
	}
	return ""
}

// HomeData is the view model of the landing page.
type HomeData struct {
	Page     model.HomePage
	Featured []model.Project
}

// Home handles GET /.
func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	page, n1 := loadPage(r.Context(), h.logger, h.pages.Home, model.DefaultHomePage)
	featured, n2 := h.listProjects(r.Context(), listing.Filter{FeaturedOnly: true, Limit: featuredLimit})

	renderPage(w, r, h.renderer, "public/home", render.TemplateData{
		Title:  page.HeroTitle,
		Nav:    "home",
		Data:   HomeData{Page: page, Featured: featured},
		Notice: joinNotices(n1, n2),
	})
}

// About handles GET /about.
func (h *PublicHandler) About(w http.ResponseWriter, r *http.Request) {
	page, notice := loadPage(r.Context(), h.logger, h.pages.About, model.DefaultAboutPage)

	renderPage(w, r, h.renderer, "public/about", render.TemplateData{
		Title:  page.Title,
		Nav:    "about",
		Data:   page,
		Notice: notice,
	})
}

// StatusFilter is one entry of the status filter bar.
type StatusFilter struct {
	Key    string
	Label  string
	Active bool
}

// ProjectsData is the view model of the project listing.
type ProjectsData struct {
	Page     model.ProjectsPage
	Filters  []StatusFilter
	Projects []model.Project
}

// parseStatusFilter reads the ?status= parameter. "all", empty and unknown
// values select every status.
func parseStatusFilter(raw string) model.ProjectStatus {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return ""
	}
	status, ok := model.ParseProjectStatus(raw)
	if !ok {
		return ""
	}
	return status
}

func statusFilters(active model.ProjectStatus) []StatusFilter {
	filters := []StatusFilter{{Label: "全部", Active: active == ""}}
	for _, s := range model.ProjectStatuses() {
		filters = append(filters, StatusFilter{Key: s.Key(), Label: string(s), Active: s == active})
	}
	return filters
}

// Projects handles GET /projects.
func (h *PublicHandler) Projects(w http.ResponseWriter, r *http.Request) {
	status := parseStatusFilter(r.URL.Query().Get("status"))

	page, n1 := loadPage(r.Context(), h.logger, h.pages.Projects, model.DefaultProjectsPage)
	projects, n2 := h.listProjects(r.Context(), listing.Filter{Status: status})

	renderPage(w, r, h.renderer, "public/projects", render.TemplateData{
		Title: page.PageTitle,
		Nav:   "projects",
		Data: ProjectsData{
			Page:     page,
			Filters:  statusFilters(status),
			Projects: projects,
		},
		Notice: joinNotices(n1, n2),
	})
}

// ProjectData is the view model of a project detail page.
type ProjectData struct {
	Project *model.Project
	Related []model.Project
}

// ProjectDetail handles GET /projects/{slug}.
func (h *PublicHandler) ProjectDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var notice string
	project, err := h.projects.Get(r.Context(), backend.Anonymous, slug)
	if err != nil {
		if !errors.Is(err, backend.ErrNotConfigured) {
			h.logger.Warn("project read failed, using samples", "slug", slug, "error", err)
		}
		notice = fallbackNotice(err)
		if sample, ok := model.SampleProject(slug); ok {
			project = &sample
		}
	}
	if project == nil {
		h.NotFound(w, r)
		return
	}

	related, n2 := h.listProjects(r.Context(), listing.Filter{ExcludeSlug: slug, Limit: relatedLimit})

	renderPage(w, r, h.renderer, "public/project", render.TemplateData{
		Title:  project.Name,
		Nav:    "projects",
		Data:   ProjectData{Project: project, Related: related},
		Notice: joinNotices(notice, n2),
	})
}

// ContactForm holds the submitted contact fields.
type ContactForm struct {
	Name    string
	Phone   string
	Email   string
	Message string
}

// ContactData is the view model of the contact page.
type ContactData struct {
	Page  model.ContactPage
	Form  ContactForm
	Error string
	Field string
	Sent  bool
}

// Contact handles GET /contact.
func (h *PublicHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.renderContact(w, r, http.StatusOK, ContactData{Sent: r.URL.Query().Get("sent") == "1"})
}

// ContactSubmit handles POST /contact.
func (h *PublicHandler) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	if h.throttle != nil && !h.throttle.Allow(r) {
		h.renderContact(w, r, http.StatusTooManyRequests, ContactData{
			Error: "送出次數過多，請稍後再試。",
		})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	form := ContactForm{
		Name:    r.FormValue("name"),
		Phone:   r.FormValue("phone"),
		Email:   r.FormValue("email"),
		Message: r.FormValue("message"),
	}
	lead := model.Lead{Name: form.Name, Phone: form.Phone, Email: form.Email}
	if form.Message != "" {
		msg := form.Message
		lead.Message = &msg
	}

	if err := h.leads.Create(r.Context(), backend.Anonymous, lead); err != nil {
		status := http.StatusOK
		if backend.IsValidation(err) {
			status = http.StatusUnprocessableEntity
		} else {
			h.logger.Error("lead submission failed", "error", err)
		}
		h.renderContact(w, r, status, ContactData{
			Form:  form,
			Error: errorText(err),
			Field: errorField(err),
		})
		return
	}

	h.logger.Info("lead submitted", "ip", middleware.GetClientIP(r))
	http.Redirect(w, r, RouteContact+"?sent=1", http.StatusSeeOther)
}

func (h *PublicHandler) renderContact(w http.ResponseWriter, r *http.Request, status int, data ContactData) {
	page, notice := loadPage(r.Context(), h.logger, h.pages.Contact, model.DefaultContactPage)
	data.Page = page

	renderPageStatus(w, r, h.renderer, status, "public/contact", render.TemplateData{
		Title:  page.PageTitle,
		Nav:    "contact",
		Data:   data,
		Notice: notice,
	})
}

// NotFound renders the 404 page.
func (h *PublicHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderPageStatus(w, r, h.renderer, http.StatusNotFound, "public/notfound", render.TemplateData{
		Title: "找不到頁面",
	})
}
