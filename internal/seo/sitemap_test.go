// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"
)

func TestSitemapBuilder(t *testing.T) {
	b := NewSitemapBuilder("https://uphouse.example.com/")
	b.AddHomepage()
	b.AddSection("/projects", ChangeFreqDaily)
	b.AddProject(SitemapProject{
		Slug:      "emerald-lane",
		LastMod:   time.Date(2025, 3, 1, 8, 0, 0, 0, time.FixedZone("CST", 8*3600)),
	})
	b.AddProject(SitemapProject{Slug: "harborline"})

	if len(b.urls) != 4 {
		t.Fatalf("urls length = %d, want 4", len(b.urls))
	}
	if b.urls[0].Loc != "https://uphouse.example.com/" {
		t.Errorf("homepage Loc = %q", b.urls[0].Loc)
	}
	if b.urls[1].Loc != "https://uphouse.example.com/projects" {
		t.Errorf("section Loc = %q", b.urls[1].Loc)
	}
	if got := b.urls[2].LastMod; got != "2025-03-01T00:00:00Z" {
		t.Errorf("LastMod = %q, want UTC timestamp", got)
	}
	if b.urls[3].LastMod != "" {
		t.Errorf("zero LastMod should omit LastMod, got %q", b.urls[3].LastMod)
	}
}

func TestSitemapBuild(t *testing.T) {
	b := NewSitemapBuilder("https://uphouse.example.com")
	b.AddHomepage()
	b.AddProject(SitemapProject{Slug: "forest-harbor"})

	out, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, xml.Header) {
		t.Error("sitemap should start with the XML header")
	}
	if !strings.Contains(s, `xmlns="`+XMLNamespace+`"`) {
		t.Error("sitemap missing namespace")
	}

	var parsed Sitemap
	if err := xml.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("sitemap is not valid XML: %v", err)
	}
	if len(parsed.URLs) != 2 || parsed.URLs[1].Loc != "https://uphouse.example.com/projects/forest-harbor" {
		t.Errorf("parsed URLs = %+v", parsed.URLs)
	}
}
