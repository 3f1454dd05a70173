// Package logging provides a slog handler that copies warnings and errors
// into the audit event log.
package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/uphouse/internal/model"
)

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, e model.Event) error
}

// EventLogHandler is a slog.Handler that wraps another handler and also
// records WARN and ERROR logs as audit events.
type EventLogHandler struct {
	inner    slog.Handler
	recorder Recorder
	level    slog.Level // Minimum level recorded (default: WARN)
	attrs    []slog.Attr
}

// NewEventLogHandler wraps inner. Records at WARN and above go to both the
// wrapped handler and rec.
func NewEventLogHandler(inner slog.Handler, rec Recorder) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, rec, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates an EventLogHandler with a custom
// minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, rec Recorder, level slog.Level) *EventLogHandler {
	return &EventLogHandler{inner: inner, recorder: rec, level: level}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.record(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &EventLogHandler{
		inner:    h.inner.WithAttrs(attrs),
		recorder: h.recorder,
		level:    h.level,
		attrs:    merged,
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:    h.inner.WithGroup(name),
		recorder: h.recorder,
		level:    h.level,
		attrs:    h.attrs,
	}
}

// record writes r to the event log. A background context is used so that
// the event survives a cancelled request.
func (h *EventLogHandler) record(r slog.Record) {
	meta := make(map[string]string)
	var category, userID string

	visit := func(a slog.Attr) bool {
		switch a.Key {
		case "category":
			category = a.Value.String()
		case "user_id":
			userID = a.Value.String()
			meta[a.Key] = userID
		default:
			meta[a.Key] = a.Value.String()
		}
		return true
	}
	for _, a := range h.attrs {
		visit(a)
	}
	r.Attrs(visit)

	if category == "" {
		category = inferCategory(r.Message)
	}
	data, err := json.Marshal(meta)
	if err != nil {
		data = []byte("{}")
	}

	_ = h.recorder.Record(context.Background(), model.Event{
		Level:     eventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		UserID:    userID,
		Metadata:  string(data),
		CreatedAt: r.Time,
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// categoryWords maps message keywords to categories, checked in order.
var categoryWords = []struct {
	category string
	words    []string
}{
	{model.EventCategoryAuth, []string{"auth", "login", "sign-in", "sign-out", "session", "password"}},
	{model.EventCategoryMedia, []string{"media", "upload", "image"}},
	{model.EventCategoryProject, []string{"project"}},
	{model.EventCategoryLead, []string{"lead", "contact"}},
	{model.EventCategoryContent, []string{"content", "page"}},
	{model.EventCategoryCache, []string{"cache", "redis"}},
}

func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	for _, c := range categoryWords {
		for _, w := range c.words {
			if strings.Contains(msg, w) {
				return c.category
			}
		}
	}
	return model.EventCategorySystem
}
