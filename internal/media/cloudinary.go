// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Cloudinary uploads unsigned through an upload preset. Delete tokens are
// only returned when the preset enables them.
type Cloudinary struct {
	apiURL    string
	cloudName string
	preset    string
	client    *http.Client
}

// NewCloudinary returns a Cloudinary gateway. apiURL is normally
// https://api.cloudinary.com/v1_1. A nil client gets a 60s timeout.
func NewCloudinary(apiURL, cloudName, preset string, client *http.Client) *Cloudinary {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Cloudinary{
		apiURL:    strings.TrimRight(apiURL, "/"),
		cloudName: cloudName,
		preset:    preset,
		client:    client,
	}
}

type cloudinaryResponse struct {
	SecureURL   string `json:"secure_url"`
	DeleteToken string `json:"delete_token"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload posts f as multipart form data.
func (c *Cloudinary) Upload(ctx context.Context, f File, opts Options) (Asset, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", f.Filename)
	if err != nil {
		return Asset{}, fmt.Errorf("building upload: %w", err)
	}
	if _, err := fw.Write(f.Data); err != nil {
		return Asset{}, fmt.Errorf("building upload: %w", err)
	}
	fields := map[string]string{"upload_preset": c.preset}
	if opts.Folder != "" {
		fields["folder"] = opts.Folder
	}
	if opts.Name != "" {
		fields["public_id"] = opts.Name
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return Asset{}, fmt.Errorf("building upload: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return Asset{}, fmt.Errorf("building upload: %w", err)
	}

	var out cloudinaryResponse
	if err := c.post(ctx, "upload", w.FormDataContentType(), &body, &out); err != nil {
		return Asset{}, err
	}
	if out.SecureURL == "" {
		return Asset{}, &Error{Status: http.StatusOK, Message: "response has no secure_url"}
	}
	return Asset{URL: out.SecureURL, DeleteToken: out.DeleteToken}, nil
}

// DeleteByToken revokes an asset. Cloudinary only honours tokens for a
// short time after the upload.
func (c *Cloudinary) DeleteByToken(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	var out cloudinaryResponse
	return c.post(ctx, "delete_by_token", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &out)
}

func (c *Cloudinary) post(ctx context.Context, action, contentType string, body io.Reader, out *cloudinaryResponse) error {
	endpoint := fmt.Sprintf("%s/%s/%s", c.apiURL, url.PathEscape(c.cloudName), action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("cloudinary %s: %w", action, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary %s: %w", action, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("cloudinary %s: reading response: %w", action, err)
	}
	decodeErr := json.Unmarshal(raw, out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("cloudinary %s: %w", action, &Error{Status: resp.StatusCode, Message: msg})
	}
	if decodeErr != nil && len(bytes.TrimSpace(raw)) > 0 {
		return fmt.Errorf("cloudinary %s: decoding response: %w", action, decodeErr)
	}
	return nil
}
