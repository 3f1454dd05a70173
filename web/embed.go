// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web embeds the page templates and static assets of the site.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var templates embed.FS

//go:embed all:static/dist
var static embed.FS

// TemplatesFS returns the template tree rooted at layouts/, partials/ and
// the page directories.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// StaticFS returns the built static assets served under /static/dist/.
func StaticFS() fs.FS {
	sub, err := fs.Sub(static, "static/dist")
	if err != nil {
		panic(err)
	}
	return sub
}
