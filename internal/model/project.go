// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"time"
)

// PendingText is shown for display fields that have not been filled in yet.
const PendingText = "資訊待更新"

// Default map position used when a project has no coordinates.
const (
	DefaultLatitude  = 25.0330
	DefaultLongitude = 121.5654
)

// ProjectStatus is the sales stage of a project. Values are stored as
// their display labels.
type ProjectStatus string

// Project statuses.
const (
	StatusPreSale           ProjectStatus = "預售"
	StatusUnderConstruction ProjectStatus = "施工中"
	StatusCompleted         ProjectStatus = "已完工"
)

var statusKeys = map[ProjectStatus]string{
	StatusPreSale:           "pre-sale",
	StatusUnderConstruction: "under-construction",
	StatusCompleted:         "completed",
}

// ProjectStatuses returns all statuses in display order.
func ProjectStatuses() []ProjectStatus {
	return []ProjectStatus{StatusPreSale, StatusUnderConstruction, StatusCompleted}
}

// Key returns the URL-safe identifier of the status.
func (s ProjectStatus) Key() string {
	return statusKeys[s]
}

// Valid reports whether s is one of the known statuses.
func (s ProjectStatus) Valid() bool {
	_, ok := statusKeys[s]
	return ok
}

// ParseProjectStatus accepts either the stored label or the URL key.
func ParseProjectStatus(s string) (ProjectStatus, bool) {
	s = strings.TrimSpace(s)
	if st := ProjectStatus(s); st.Valid() {
		return st, true
	}
	for st, key := range statusKeys {
		if strings.EqualFold(key, s) {
			return st, true
		}
	}
	return "", false
}

// Project is a property listing. Slug is its external identity.
type Project struct {
	ID                   string        `json:"id,omitempty"`
	Slug                 string        `json:"slug"`
	Name                 string        `json:"name"`
	Headline             string        `json:"headline"`
	Location             string        `json:"location"`
	Status               ProjectStatus `json:"status"`
	AreaRange            string        `json:"area_range"`
	UnitType             string        `json:"unit_type"`
	PriceRange           string        `json:"price_range"`
	Description          string        `json:"description"`
	Highlights           []string      `json:"highlights"`
	HeroImage            string        `json:"hero_image"`
	HeroImageDeleteToken string        `json:"hero_image_delete_token"`
	Gallery              []string      `json:"gallery"`
	GalleryDeleteTokens  []string      `json:"gallery_delete_tokens"`
	ContactPhone         string        `json:"contact_phone"`
	Address              string        `json:"address"`
	Latitude             *float64      `json:"latitude"`
	Longitude            *float64      `json:"longitude"`
	LaunchDate           string        `json:"launch_date"`
	IsFeatured           bool          `json:"is_featured"`
	CreatedAt            time.Time     `json:"created_at,omitzero"`
}

// GalleryItem pairs a gallery URL with its optional delete token.
type GalleryItem struct {
	URL         string `json:"url"`
	DeleteToken string `json:"delete_token,omitempty"`
}

// GalleryItems returns the gallery as URL/token pairs. Missing tokens are
// reported as empty strings.
func (p *Project) GalleryItems() []GalleryItem {
	items := make([]GalleryItem, 0, len(p.Gallery))
	for i, url := range p.Gallery {
		item := GalleryItem{URL: url}
		if i < len(p.GalleryDeleteTokens) {
			item.DeleteToken = p.GalleryDeleteTokens[i]
		}
		items = append(items, item)
	}
	return items
}

// SetGallery replaces both gallery arrays from items so that they stay
// positionally aligned. Items with a blank URL are dropped together with
// their token.
func (p *Project) SetGallery(items []GalleryItem) {
	urls := make([]string, 0, len(items))
	tokens := make([]string, 0, len(items))
	for _, item := range items {
		url := strings.TrimSpace(item.URL)
		if url == "" {
			continue
		}
		urls = append(urls, url)
		tokens = append(tokens, item.DeleteToken)
	}
	p.Gallery = urls
	p.GalleryDeleteTokens = tokens
}

// AppendGallery adds one uploaded image at the end of the gallery.
func (p *Project) AppendGallery(url, deleteToken string) {
	p.SetGallery(append(p.GalleryItems(), GalleryItem{URL: url, DeleteToken: deleteToken}))
}

// RemoveGalleryAt drops the gallery entry at index i along with its token.
func (p *Project) RemoveGalleryAt(i int) (GalleryItem, bool) {
	items := p.GalleryItems()
	if i < 0 || i >= len(items) {
		return GalleryItem{}, false
	}
	removed := items[i]
	p.SetGallery(append(items[:i], items[i+1:]...))
	return removed, true
}

// ReplaceGalleryURLs sets the gallery to urls, keeping the delete token of
// every URL that was already present. Duplicated URLs consume tokens in
// order.
func (p *Project) ReplaceGalleryURLs(urls []string) {
	pool := make(map[string][]string)
	for _, item := range p.GalleryItems() {
		pool[item.URL] = append(pool[item.URL], item.DeleteToken)
	}

	items := make([]GalleryItem, 0, len(urls))
	for _, url := range urls {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		item := GalleryItem{URL: url}
		if tokens := pool[url]; len(tokens) > 0 {
			item.DeleteToken = tokens[0]
			pool[url] = tokens[1:]
		}
		items = append(items, item)
	}
	p.SetGallery(items)
}

// SetHeroURL changes the hero image. A manually changed URL loses the
// delete token of the previous upload.
func (p *Project) SetHeroURL(url string) {
	url = strings.TrimSpace(url)
	if url != p.HeroImage {
		p.HeroImageDeleteToken = ""
	}
	p.HeroImage = url
}

// DeleteTokens returns every stored media delete token, hero first.
func (p *Project) DeleteTokens() []string {
	var tokens []string
	if p.HeroImageDeleteToken != "" {
		tokens = append(tokens, p.HeroImageDeleteToken)
	}
	for _, t := range p.GalleryDeleteTokens {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Normalize trims text fields and aligns the gallery arrays.
func (p *Project) Normalize() {
	p.Slug = strings.TrimSpace(p.Slug)
	p.Name = strings.TrimSpace(p.Name)
	p.Headline = strings.TrimSpace(p.Headline)
	p.Location = strings.TrimSpace(p.Location)
	p.AreaRange = strings.TrimSpace(p.AreaRange)
	p.UnitType = strings.TrimSpace(p.UnitType)
	p.PriceRange = strings.TrimSpace(p.PriceRange)
	p.Description = strings.TrimSpace(p.Description)
	p.HeroImage = strings.TrimSpace(p.HeroImage)
	p.ContactPhone = strings.TrimSpace(p.ContactPhone)
	p.Address = strings.TrimSpace(p.Address)
	p.LaunchDate = strings.TrimSpace(p.LaunchDate)
	p.Highlights = SplitLines(strings.Join(p.Highlights, "\n"))
	p.SetGallery(p.GalleryItems())
	if !p.Status.Valid() {
		p.Status = StatusPreSale
	}
}

// Lat returns the latitude or the default map position.
func (p *Project) Lat() float64 {
	if p.Latitude == nil {
		return DefaultLatitude
	}
	return *p.Latitude
}

// Lng returns the longitude or the default map position.
func (p *Project) Lng() float64 {
	if p.Longitude == nil {
		return DefaultLongitude
	}
	return *p.Longitude
}

// MapEmbedURL returns a keyless Google Maps embed URL for the project.
func (p *Project) MapEmbedURL() string {
	return fmt.Sprintf("https://www.google.com/maps?q=%.4f,%.4f&output=embed", p.Lat(), p.Lng())
}

// OrPending returns s, or PendingText when s is blank.
func OrPending(s string) string {
	if strings.TrimSpace(s) == "" {
		return PendingText
	}
	return s
}

// SplitLines splits text into trimmed, non-empty lines.
func SplitLines(s string) []string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Lead is a contact form submission.
type Lead struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name" validate:"required,max=100"`
	Phone     string    `json:"phone" validate:"required,max=30"`
	Email     string    `json:"email" validate:"required,email,max=254"`
	Message   *string   `json:"message" validate:"omitempty,max=2000"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// MessageText returns the message or an empty string.
func (l Lead) MessageText() string {
	if l.Message == nil {
		return ""
	}
	return *l.Message
}
