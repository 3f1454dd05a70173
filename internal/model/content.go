// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
)

// PageKind identifies one of the singleton content pages.
type PageKind string

// Editable pages.
const (
	PageHome     PageKind = "home"
	PageAbout    PageKind = "about"
	PageContact  PageKind = "contact"
	PageProjects PageKind = "projects"
)

var pageTables = map[PageKind]string{
	PageHome:     "homepage_content",
	PageAbout:    "about_page",
	PageContact:  "contact_page_content",
	PageProjects: "projects_page_content",
}

// PageKinds returns every editable page.
func PageKinds() []PageKind {
	return []PageKind{PageHome, PageAbout, PageContact, PageProjects}
}

// Table returns the collection holding the page row.
func (k PageKind) Table() string {
	return pageTables[k]
}

// Valid reports whether k is a known page.
func (k PageKind) Valid() bool {
	_, ok := pageTables[k]
	return ok
}

// Text is a display string read leniently from any JSON value. Strings
// decode as themselves; numbers, booleans and nested values keep their
// JSON text.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(s)
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*t = ""
		return nil
	}
	*t = Text(bytes.TrimSpace(b))
	return nil
}

// List is a structured page field stored exactly as the editor entered
// it. Items gives a typed view for rendering without changing what is
// stored.
type List[T any] struct {
	raw json.RawMessage
}

// NewList encodes items as a List.
func NewList[T any](items ...T) List[T] {
	b, err := json.Marshal(items)
	if err != nil {
		return List[T]{}
	}
	return List[T]{raw: b}
}

// RawList wraps already validated JSON. Blank input is the empty list.
func RawList[T any](raw []byte) List[T] {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return List[T]{}
	}
	return List[T]{raw: append(json.RawMessage(nil), raw...)}
}

// Raw returns the stored JSON, or nil when empty.
func (l List[T]) Raw() json.RawMessage { return l.raw }

// IsEmpty reports whether nothing is stored.
func (l List[T]) IsEmpty() bool { return len(l.raw) == 0 }

// Items decodes the stored value for display. Anything that is not an
// array yields nil, and elements that do not decode as T are skipped.
func (l List[T]) Items() []T {
	if len(l.raw) == 0 {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(l.raw, &elems); err != nil {
		return nil
	}
	out := make([]T, 0, len(elems))
	for _, e := range elems {
		var v T
		if err := json.Unmarshal(e, &v); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (l List[T]) MarshalJSON() ([]byte, error) {
	if len(l.raw) == 0 {
		return []byte("null"), nil
	}
	return l.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *List[T]) UnmarshalJSON(b []byte) error {
	*l = RawList[T](b)
	return nil
}

// Stat is a label/value figure such as "累計交屋戶數 / 2,800+".
type Stat struct {
	Label Text `json:"label"`
	Value Text `json:"value"`
}

// Block is a titled paragraph.
type Block struct {
	Title       Text `json:"title"`
	Description Text `json:"description"`
}

// Milestone is one entry of the company timeline.
type Milestone struct {
	Year        Text `json:"year"`
	Title       Text `json:"title"`
	Description Text `json:"description"`
}

// HomePage is the copy of the landing page.
type HomePage struct {
	HeroBadge                  string      `json:"hero_badge"`
	HeroTitle                  string      `json:"hero_title"`
	HeroDescription            string      `json:"hero_description"`
	Stats                      List[Stat]  `json:"stats"`
	FeaturedSectionTitle       string      `json:"featured_section_title"`
	FeaturedSectionDescription string      `json:"featured_section_description"`
	ValuePropositions          List[Block] `json:"value_propositions"`
	BrandPromiseTitle          string      `json:"brand_promise_title"`
	BrandPromiseDescription    string      `json:"brand_promise_description"`
	ConsultationTitle          string      `json:"consultation_title"`
	ConsultationDescription    string      `json:"consultation_description"`
}

// AboutPage is the company story page.
type AboutPage struct {
	Title         string          `json:"title"`
	Subtitle      string          `json:"subtitle"`
	Description   string          `json:"description"`
	Stats         List[Stat]      `json:"stats"`
	CorePractices List[Block]     `json:"core_practices"`
	Milestones    List[Milestone] `json:"milestones"`
}

// ContactPage is the copy around the contact form.
type ContactPage struct {
	PageTitle       string `json:"page_title"`
	PageDescription string `json:"page_description"`
	AddressLabel    string `json:"address_label"`
	AddressValue    string `json:"address_value"`
	BusinessHours   string `json:"business_hours"`
	PhoneLabel      string `json:"phone_label"`
	PhoneValue      string `json:"phone_value"`
	EmailLabel      string `json:"email_label"`
	EmailValue      string `json:"email_value"`
}

// ProjectsPage is the intro of the project listing.
type ProjectsPage struct {
	PageTitle       string `json:"page_title"`
	PageDescription string `json:"page_description"`
}
