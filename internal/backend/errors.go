// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all backends.
var (
	ErrNotConfigured      = errors.New("backend not configured")
	ErrUnauthorized       = errors.New("not permitted by row-level policy")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("content was changed by someone else")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
)

// Error is a failure reported by the backend service itself.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
}

// Is maps policy rejections onto ErrUnauthorized.
func (e *Error) Is(target error) bool {
	if target == ErrUnauthorized {
		return e.Status == 401 || e.Status == 403 || e.Code == "42501"
	}
	return false
}

// ValidationError is a caller-side input problem detected before any
// backend call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Message returns the text to show a user for err: the backend's own
// message when available, the error string otherwise.
func Message(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
