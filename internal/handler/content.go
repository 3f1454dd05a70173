// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/content"
	"github.com/olegiv/uphouse/internal/model"
	"github.com/olegiv/uphouse/internal/render"
)

// ContentHandler edits the singleton content pages.
type ContentHandler struct {
	renderer *render.Renderer
	home     pageEditor[model.HomePage]
	about    pageEditor[model.AboutPage]
	projects pageEditor[model.ProjectsPage]
	contact  pageEditor[model.ContactPage]
	logger   *slog.Logger
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(renderer *render.Renderer, pages Pages, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		renderer: renderer,
		logger:   logger,
		home: pageEditor[model.HomePage]{
			repo:     pages.Home,
			template: "admin/content-home",
			title:    "編輯首頁內容",
			nav:      "content-home",
			action:   RouteContentHome,
			defaults: model.DefaultHomePage,
			json: func(p model.HomePage) map[string]any {
				return map[string]any{"stats": p.Stats, "value_propositions": p.ValuePropositions}
			},
			parse: parseHomePage,
		},
		about: pageEditor[model.AboutPage]{
			repo:     pages.About,
			template: "admin/content-about",
			title:    "編輯關於我們",
			nav:      "content-about",
			action:   RouteContentAbout,
			defaults: model.DefaultAboutPage,
			json: func(p model.AboutPage) map[string]any {
				return map[string]any{"stats": p.Stats, "core_practices": p.CorePractices, "milestones": p.Milestones}
			},
			parse: parseAboutPage,
		},
		projects: pageEditor[model.ProjectsPage]{
			repo:     pages.Projects,
			template: "admin/content-projects",
			title:    "編輯建案一覽頁",
			nav:      "content-projects",
			action:   RouteContentProjects,
			defaults: model.DefaultProjectsPage,
			parse: func(r *http.Request) (model.ProjectsPage, error) {
				return model.ProjectsPage{
					PageTitle:       formField(r, "page_title"),
					PageDescription: formField(r, "page_description"),
				}, nil
			},
		},
		contact: pageEditor[model.ContactPage]{
			repo:     pages.Contact,
			template: "admin/content-contact",
			title:    "編輯聯絡我們",
			nav:      "content-contact",
			action:   RouteContentContact,
			defaults: model.DefaultContactPage,
			parse: func(r *http.Request) (model.ContactPage, error) {
				return model.ContactPage{
					PageTitle:       formField(r, "page_title"),
					PageDescription: formField(r, "page_description"),
					AddressLabel:    formField(r, "address_label"),
					AddressValue:    formField(r, "address_value"),
					BusinessHours:   formField(r, "business_hours"),
					PhoneLabel:      formField(r, "phone_label"),
					PhoneValue:      formField(r, "phone_value"),
					EmailLabel:      formField(r, "email_label"),
					EmailValue:      formField(r, "email_value"),
				}, nil
			},
		},
	}
}

// HomeForm handles GET /admin/content/homepage.
func (h *ContentHandler) HomeForm(w http.ResponseWriter, r *http.Request) {
	h.home.show(w, r, h.renderer, h.logger)
}

// SaveHome handles POST /admin/content/homepage.
func (h *ContentHandler) SaveHome(w http.ResponseWriter, r *http.Request) {
	h.home.save(w, r, h.renderer, h.logger)
}

// AboutForm handles GET /admin/content/about.
func (h *ContentHandler) AboutForm(w http.ResponseWriter, r *http.Request) {
	h.about.show(w, r, h.renderer, h.logger)
}

// SaveAbout handles POST /admin/content/about.
func (h *ContentHandler) SaveAbout(w http.ResponseWriter, r *http.Request) {
	h.about.save(w, r, h.renderer, h.logger)
}

// ProjectsPageForm handles GET /admin/content/projects-page.
func (h *ContentHandler) ProjectsPageForm(w http.ResponseWriter, r *http.Request) {
	h.projects.show(w, r, h.renderer, h.logger)
}

// SaveProjectsPage handles POST /admin/content/projects-page.
func (h *ContentHandler) SaveProjectsPage(w http.ResponseWriter, r *http.Request) {
	h.projects.save(w, r, h.renderer, h.logger)
}

// ContactPageForm handles GET /admin/content/contact-page.
func (h *ContentHandler) ContactPageForm(w http.ResponseWriter, r *http.Request) {
	h.contact.show(w, r, h.renderer, h.logger)
}

// SaveContactPage handles POST /admin/content/contact-page.
func (h *ContentHandler) SaveContactPage(w http.ResponseWriter, r *http.Request) {
	h.contact.save(w, r, h.renderer, h.logger)
}

// ContentFormData is the view model shared by the content page forms.
type ContentFormData[T any] struct {
	Action    string
	Error     string
	Field     string
	UpdatedBy string
	UpdatedAt time.Time
	Version   string
	Page      T
	JSON      map[string]string
}

// pageEditor binds one content page to its form.
type pageEditor[T any] struct {
	repo     *content.Repository[T]
	template string
	title    string
	nav      string
	action   string
	defaults func() T
	// json returns the array fields edited as JSON textareas.
	json  func(T) map[string]any
	parse func(r *http.Request) (T, error)
}

func (e pageEditor[T]) jsonFields(page T) map[string]string {
	out := make(map[string]string)
	if e.json == nil {
		return out
	}
	for name, v := range e.json(page) {
		out[name] = content.FormatJSONField(v)
	}
	return out
}

func (e pageEditor[T]) render(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, data ContentFormData[T]) {
	data.Action = e.action
	renderPageStatus(w, r, renderer, status, e.template, adminData(r, e.title, e.nav, data))
}

func (e pageEditor[T]) show(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, logger *slog.Logger) {
	entry, err := e.repo.Load(r.Context(), principalOf(r))
	if err != nil {
		logger.Error("failed to load content page", "page", e.repo.Page(), "error", err)
		page := e.defaults()
		e.render(w, r, renderer, http.StatusOK, ContentFormData[T]{
			Error: errorText(err),
			Page:  page,
			JSON:  e.jsonFields(page),
		})
		return
	}

	data := ContentFormData[T]{}
	if entry == nil {
		data.Page = e.defaults()
	} else {
		data.Page = entry.Page
		data.UpdatedBy = entry.UpdatedBy
		data.UpdatedAt = entry.Version
		data.Version = content.FormatVersion(entry.Version)
	}
	data.JSON = e.jsonFields(data.Page)
	e.render(w, r, renderer, http.StatusOK, data)
}

func (e pageEditor[T]) save(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, logger *slog.Logger) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	page, err := e.parse(r)
	version, verr := content.ParseVersion(r.PostFormValue("version"))
	if err == nil {
		err = verr
	}

	// Redisplay exactly what was submitted.
	data := ContentFormData[T]{Page: page, Version: r.PostFormValue("version"), JSON: e.jsonFields(page)}
	for name := range data.JSON {
		data.JSON[name] = r.PostFormValue(name)
	}

	if err != nil {
		data.Error = fieldErrorText(err)
		data.Field = errorField(err)
		e.render(w, r, renderer, http.StatusUnprocessableEntity, data)
		return
	}

	ctx := r.Context()
	p := principalOf(r)

	var id string
	current, err := e.repo.Load(ctx, p)
	if err != nil {
		logger.Error("failed to load content page", "page", e.repo.Page(), "error", err)
		data.Error = errorText(err)
		e.render(w, r, renderer, http.StatusBadGateway, data)
		return
	}
	if current != nil {
		id = current.ID
	}

	saved, err := e.repo.Save(ctx, p, content.Entry[T]{ID: id, Page: page, Version: version})
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, backend.ErrConflict):
			status = http.StatusConflict
		case errors.Is(err, backend.ErrUnauthorized):
			status = http.StatusForbidden
		}
		logger.Warn("failed to save content page", "page", e.repo.Page(), "user_id", p.UserID, "error", err)
		data.Error = errorText(err)
		e.render(w, r, renderer, status, data)
		return
	}

	logger.Info("content page saved", "page", e.repo.Page(), "user_id", p.UserID, "version", content.FormatVersion(saved.Version))
	flashSuccess(w, r, renderer, e.action, "頁面內容已儲存。")
}

// formField returns a trimmed form value.
func formField(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

func parseHomePage(r *http.Request) (model.HomePage, error) {
	page := model.HomePage{
		HeroBadge:                  formField(r, "hero_badge"),
		HeroTitle:                  formField(r, "hero_title"),
		HeroDescription:            formField(r, "hero_description"),
		FeaturedSectionTitle:       formField(r, "featured_section_title"),
		FeaturedSectionDescription: formField(r, "featured_section_description"),
		BrandPromiseTitle:          formField(r, "brand_promise_title"),
		BrandPromiseDescription:    formField(r, "brand_promise_description"),
		ConsultationTitle:          formField(r, "consultation_title"),
		ConsultationDescription:    formField(r, "consultation_description"),
	}

	var err error
	if page.Stats, err = content.ParseJSONField[model.Stat]("stats", r.PostFormValue("stats")); err != nil {
		return page, err
	}
	if page.ValuePropositions, err = content.ParseJSONField[model.Block]("value_propositions", r.PostFormValue("value_propositions")); err != nil {
		return page, err
	}
	return page, nil
}

// fieldErrorText prefixes a validation message with the field it names.
func fieldErrorText(err error) string {
	if f := errorField(err); f != "" {
		return f + "：" + errorText(err)
	}
	return errorText(err)
}

func parseAboutPage(r *http.Request) (model.AboutPage, error) {
	page := model.AboutPage{
		Title:       formField(r, "title"),
		Subtitle:    formField(r, "subtitle"),
		Description: formField(r, "description"),
	}

	var err error
	if page.Stats, err = content.ParseJSONField[model.Stat]("stats", r.PostFormValue("stats")); err != nil {
		return page, err
	}
	if page.CorePractices, err = content.ParseJSONField[model.Block]("core_practices", r.PostFormValue("core_practices")); err != nil {
		return page, err
	}
	if page.Milestones, err = content.ParseJSONField[model.Milestone]("milestones", r.PostFormValue("milestones")); err != nil {
		return page, err
	}
	return page, nil
}
