// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package media uploads project images to an external media host and
// revokes them later by delete token.
package media

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// ErrNotConfigured is returned by every operation of an unconfigured gateway.
var ErrNotConfigured = errors.New("media host not configured")

// File is an uploaded image held in memory.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Options places an upload on the host. Both fields are optional.
type Options struct {
	Folder string
	Name   string
}

// Asset is a hosted file. DeleteToken may be empty when the host did not
// return one.
type Asset struct {
	URL         string
	DeleteToken string
}

// Gateway is a media host.
type Gateway interface {
	Upload(ctx context.Context, f File, opts Options) (Asset, error)
	DeleteByToken(ctx context.Context, token string) error
}

// Error is a non-2xx answer from the media host.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("media host error %d: %s", e.Status, e.Message)
}

// Unconfigured is the gateway used when no media host is set up.
type Unconfigured struct{}

// Upload always fails with ErrNotConfigured.
func (Unconfigured) Upload(context.Context, File, Options) (Asset, error) {
	return Asset{}, ErrNotConfigured
}

// DeleteByToken always fails with ErrNotConfigured.
func (Unconfigured) DeleteByToken(context.Context, string) error {
	return ErrNotConfigured
}

// UploadAll uploads files one after another. With a Name in opts the files
// are named {name}-1, {name}-2 and so on. It stops at the first failure and
// returns the assets uploaded so far together with the error.
func UploadAll(ctx context.Context, gw Gateway, files []File, opts Options) ([]Asset, error) {
	assets := make([]Asset, 0, len(files))
	for i, f := range files {
		o := opts
		if opts.Name != "" {
			o.Name = fmt.Sprintf("%s-%d", opts.Name, i+1)
		}
		asset, err := gw.Upload(ctx, f, o)
		if err != nil {
			return assets, fmt.Errorf("uploading %s: %w", f.Filename, err)
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

var assetNameStrip = regexp.MustCompile(`[^a-z0-9_-]+`)

// AssetName turns s into a host-safe asset name: transliterated, lowercase,
// whitespace runs replaced by "-".
func AssetName(s string) string {
	s = strings.ToLower(unidecode.Unidecode(s))
	s = strings.Join(strings.Fields(s), "-")
	return assetNameStrip.ReplaceAllString(s, "")
}

// HeroFolder is where a project's cover image is uploaded.
func HeroFolder(slug string) string {
	return "projects/" + slug + "/hero"
}

// GalleryFolder is where a project's gallery images are uploaded.
func GalleryFolder(slug string) string {
	return "projects/" + slug + "/gallery"
}
