// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types of the site: roles and profiles,
// projects, leads, and the editable page content blocks.
package model

import "strings"

// Role is the authorization level stored on a profile.
type Role string

// Known roles. RoleNone marks routes that need no role at all.
const (
	RoleNone   Role = ""
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// Rank returns the ordering of the role. Unknown roles rank zero.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleEditor:
		return 1
	default:
		return 0
	}
}

// Satisfies reports whether r reaches the required role.
func (r Role) Satisfies(required Role) bool {
	return r.Rank() >= required.Rank()
}

// Label returns the admin-facing display name of the role.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "管理員"
	case RoleEditor:
		return "編輯"
	default:
		return "未授權"
	}
}

// ParseRole normalizes a stored role value.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleEditor:
		return RoleEditor
	default:
		return RoleNone
	}
}

// Profile is the authorization record attached to an authenticated user.
// Profiles are provisioned out-of-band and never written by the site.
type Profile struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
}
