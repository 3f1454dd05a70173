package session

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mileusna/useragent"

	"github.com/olegiv/uphouse/internal/model"
)

// EventRecorder persists audit events.
type EventRecorder interface {
	Record(ctx context.Context, e model.Event) error
}

var auditMessages = map[EventKind]string{
	EventSignedIn:  "User signed in",
	EventSignedOut: "User signed out",
	EventExpired:   "Session expired",
}

// AuditListener returns a listener that records sign-in, sign-out and
// expiry events with the browser that caused them. Refreshes are not
// recorded.
func AuditListener(rec EventRecorder, logger *slog.Logger) func(context.Context, Event) {
	return func(ctx context.Context, e Event) {
		msg, ok := auditMessages[e.Kind]
		if !ok {
			return
		}

		meta := map[string]string{"email": e.Email}
		if e.Client.IP != "" {
			meta["ip"] = e.Client.IP
		}
		if e.Client.UserAgent != "" {
			ua := useragent.Parse(e.Client.UserAgent)
			meta["browser"] = ua.Name
			meta["os"] = ua.OS
			meta["device"] = deviceType(ua)
		}
		data, _ := json.Marshal(meta)

		err := rec.Record(context.WithoutCancel(ctx), model.Event{
			Level:     model.EventLevelInfo,
			Category:  model.EventCategoryAuth,
			Message:   msg,
			UserID:    e.UserID,
			Metadata:  string(data),
			CreatedAt: e.At,
		})
		if err != nil {
			logger.Error("recording auth event failed", "kind", e.Kind, "error", err)
		}
	}
}

func deviceType(ua useragent.UserAgent) string {
	switch {
	case ua.Mobile:
		return "mobile"
	case ua.Tablet:
		return "tablet"
	case ua.Bot:
		return "bot"
	default:
		return "desktop"
	}
}
