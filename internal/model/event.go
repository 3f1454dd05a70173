package model

import "time"

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth    = "auth"
	EventCategoryContent = "content"
	EventCategoryProject = "project"
	EventCategoryLead    = "lead"
	EventCategoryMedia   = "media"
	EventCategoryCache   = "cache"
	EventCategorySystem  = "system"
)

// Event is an audit log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    string
	Metadata  string // JSON object
	CreatedAt time.Time
}
