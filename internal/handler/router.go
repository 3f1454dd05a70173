// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/listing"
	"github.com/olegiv/uphouse/internal/media"
	"github.com/olegiv/uphouse/internal/middleware"
	"github.com/olegiv/uphouse/internal/render"
	"github.com/olegiv/uphouse/internal/session"
)

// requestTimeout bounds every request, uploads included.
const requestTimeout = 60 * time.Second

// Deps is everything the router wires into handlers.
type Deps struct {
	Backend        backend.Backend
	DB             *sql.DB // local database, used by the health check; may be nil
	SessionManager *scs.SessionManager
	Sessions       *session.Store
	Renderer       *render.Renderer
	StaticFS       fs.FS

	Pages    Pages
	Projects *listing.Projects
	Leads    *listing.Leads
	Events   EventSource

	Media         media.Gateway
	MediaReady    bool
	MediaMaxWidth int
	CacheBackend  string

	LoginProtection *middleware.LoginProtection
	ContactThrottle *middleware.Throttle

	IsDev      bool
	CSRFKey    []byte
	ServerAddr string
	Logger     *slog.Logger

	// SiteURL is the public base URL used by the sitemap. Empty derives it
	// from the request host.
	SiteURL          string
	DisallowCrawlers bool
}

// NewRouter builds the site's HTTP handler.
func NewRouter(d Deps) chi.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	configured := d.Backend.Mode() != backend.ModeUnconfigured

	views := NewViews(d.Renderer)
	guard := middleware.NewGuard(d.Sessions, views, configured)

	publicHandler := NewPublicHandler(d.Renderer, d.Pages, d.Projects, d.Leads, d.ContactThrottle, logger)
	authHandler := NewAuthHandler(d.Renderer, d.Sessions, d.LoginProtection, views, configured, logger)
	dashboardHandler := NewDashboardHandler(d.Renderer, d.Projects, d.Leads, d.Events, logger)
	projectsHandler := NewProjectsHandler(d.Renderer, d.Projects, d.Media, d.MediaReady, d.MediaMaxWidth, logger)
	contentHandler := NewContentHandler(d.Renderer, d.Pages, logger)
	leadsHandler := NewLeadsHandler(d.Renderer, d.Leads, logger)
	settingsHandler := NewSettingsHandler(d.Renderer, d.Sessions, logger)
	seoHandler := NewSEOHandler(publicHandler, d.SiteURL, d.DisallowCrawlers)
	healthHandler := NewHealthHandler(d.DB, d.Backend.Mode(), d.MediaReady, d.CacheBackend)

	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(chimw.StripSlashes)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(d.IsDev)))
	r.Use(d.SessionManager.LoadAndSave)
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(d.CSRFKey, d.IsDev, d.ServerAddr)))
	r.Use(guard.Middleware)

	r.Get(RouteHealth, healthHandler.Health)
	r.Get(RouteRobots, seoHandler.Robots)
	r.Get(RouteSitemap, seoHandler.Sitemap)

	if d.StaticFS != nil {
		r.Handle("/static/dist/*", http.StripPrefix("/static/dist/", http.FileServerFS(d.StaticFS)))
	}

	// Public site
	r.Get(RouteRoot, publicHandler.Home)
	r.Get(RouteAbout, publicHandler.About)
	r.Get(RouteProjects, publicHandler.Projects)
	r.Get(RouteProject, publicHandler.ProjectDetail)
	r.Get(RouteContact, publicHandler.Contact)
	r.Post(RouteContact, publicHandler.ContactSubmit)

	// Auth
	r.Get(RouteLogin, authHandler.LoginForm)
	r.With(d.LoginProtection.Middleware()).Post(RouteLogin, authHandler.Login)
	r.Post(RouteLogout, authHandler.Logout)
	r.Get(RouteForgotPassword, authHandler.ForgotPasswordForm)
	r.Post(RouteForgotPassword, authHandler.ForgotPassword)

	// Admin, role checks are done by the guard
	r.Get(RouteAdmin, dashboardHandler.Dashboard)

	r.Get(RouteAdminProjects, projectsHandler.List)
	r.Get(RouteProjectNew, projectsHandler.NewForm)
	r.Post(RouteProjectNew, projectsHandler.Create)
	r.Get(RouteProjectEdit, projectsHandler.EditForm)
	r.Post(RouteProjectEdit, projectsHandler.Update)
	r.Post(RouteProjectDelete, projectsHandler.Delete)

	r.Get(RouteContentHome, contentHandler.HomeForm)
	r.Post(RouteContentHome, contentHandler.SaveHome)
	r.Get(RouteContentAbout, contentHandler.AboutForm)
	r.Post(RouteContentAbout, contentHandler.SaveAbout)
	r.Get(RouteContentProjects, contentHandler.ProjectsPageForm)
	r.Post(RouteContentProjects, contentHandler.SaveProjectsPage)
	r.Get(RouteContentContact, contentHandler.ContactPageForm)
	r.Post(RouteContentContact, contentHandler.SaveContactPage)

	r.Get(RouteLeads, leadsHandler.List)
	r.Post(RouteLeadDelete, leadsHandler.Delete)

	r.Get(RouteSettings, settingsHandler.Settings)
	r.Post(RouteSettings, settingsHandler.RequestReset)

	r.NotFound(publicHandler.NotFound)

	return r
}
