// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package supabase implements the data backend on a hosted Supabase
// project: PostgREST for rows and GoTrue (through auth-go) for sessions.
// Row-level security runs on the server; requests carry the caller's
// access token so that policies see the right role.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/olegiv/uphouse/internal/backend"
)

// Prefer header values understood by PostgREST.
const (
	preferRepresentation = "return=representation"
	preferMinimal        = "return=minimal"
	preferMerge          = "resolution=merge-duplicates"
	preferCountExact     = "count=exact"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// REST is a minimal PostgREST client.
type REST struct {
	baseURL string
	anonKey string
	client  *http.Client
}

// NewREST returns a client for {projectURL}/rest/v1. Requests are not
// given a deadline of their own; the caller's context governs them.
func NewREST(projectURL, anonKey string, client *http.Client) *REST {
	if client == nil {
		client = &http.Client{}
	}
	return &REST{
		baseURL: strings.TrimRight(projectURL, "/") + "/rest/v1",
		anonKey: anonKey,
		client:  client,
	}
}

// request describes one PostgREST call.
type request struct {
	method string
	table  string
	query  url.Values
	body   any
	prefer []string
	// out receives the decoded JSON response when non-nil.
	out any
}

// apiError is the PostgREST error body.
type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// do performs req as principal p and returns the response headers.
func (c *REST) do(ctx context.Context, p backend.Principal, req request) (http.Header, error) {
	u := c.baseURL + "/" + req.table
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", req.table, err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	bearer := c.anonKey
	if !p.IsAnonymous() {
		bearer = p.AccessToken
	}
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if len(req.prefer) > 0 {
		httpReq.Header.Set("Prefer", strings.Join(req.prefer, ","))
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method, req.table, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return resp.Header, decodeError(resp)
	}

	if req.out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(req.out); err != nil {
			return nil, fmt.Errorf("decoding %s response: %w", req.table, err)
		}
	}
	return resp.Header, nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var ae apiError
	if err := json.Unmarshal(raw, &ae); err != nil || ae.Message == "" {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &backend.Error{Status: resp.StatusCode, Message: msg}
	}

	msg := ae.Message
	if ae.Details != "" {
		msg += " (" + ae.Details + ")"
	}
	return &backend.Error{Status: resp.StatusCode, Code: ae.Code, Message: msg}
}

// parseCount reads the total from a Content-Range header such as "0-9/42"
// or "*/0".
func parseCount(h http.Header) (int, error) {
	cr := h.Get("Content-Range")
	i := strings.LastIndexByte(cr, '/')
	if i < 0 {
		return 0, fmt.Errorf("missing count in Content-Range %q", cr)
	}
	n, err := strconv.Atoi(cr[i+1:])
	if err != nil {
		return 0, fmt.Errorf("parsing Content-Range %q: %w", cr, err)
	}
	return n, nil
}

// eq formats a PostgREST equality filter.
func eq(v string) string {
	return "eq." + v
}
