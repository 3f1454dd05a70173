// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/uphouse/internal/listing"
	"github.com/olegiv/uphouse/internal/seo"
)

// SEOHandler serves robots.txt and sitemap.xml.
type SEOHandler struct {
	public      *PublicHandler
	siteURL     string
	disallowAll bool
}

// NewSEOHandler creates a new SEO handler. An empty siteURL is derived
// from each request.
func NewSEOHandler(public *PublicHandler, siteURL string, disallowAll bool) *SEOHandler {
	return &SEOHandler{
		public:      public,
		siteURL:     siteURL,
		disallowAll: disallowAll,
	}
}

func (h *SEOHandler) baseURL(r *http.Request) string {
	if h.siteURL != "" {
		return h.siteURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// Robots handles GET /robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	body := seo.BuildRobots(seo.RobotsConfig{
		SiteURL:     h.baseURL(r),
		DisallowAll: h.disallowAll,
	})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

// Sitemap handles GET /sitemap.xml. Unreachable data falls back to the
// sample projects shown by the public pages.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	b := seo.NewSitemapBuilder(h.baseURL(r))
	b.AddHomepage()
	b.AddSection(RouteAbout, seo.ChangeFreqMonthly)
	b.AddSection(RouteProjects, seo.ChangeFreqDaily)
	b.AddSection(RouteContact, seo.ChangeFreqMonthly)

	projects, _ := h.public.listProjects(r.Context(), listing.Filter{})
	for _, p := range projects {
		b.AddProject(seo.SitemapProject{Slug: p.Slug, LastMod: p.CreatedAt})
	}

	out, err := b.Build()
	if err != nil {
		logAndInternalError(w, "building sitemap", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(out)
}
