// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/uphouse/internal/model"
)

// EventLog persists audit events.
type EventLog struct {
	db *sql.DB
}

// NewEventLog returns an EventLog over db.
func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{db: db}
}

// Record stores one event. A zero CreatedAt is stamped with the current time.
func (l *EventLog) Record(ctx context.Context, e model.Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Metadata == "" {
		e.Metadata = "{}"
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO events (level, category, message, user_id, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Level, e.Category, e.Message, e.UserID, e.Metadata, toDB(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	return nil
}

// Recent returns the newest events first.
func (l *EventLog) Recent(ctx context.Context, limit int) ([]model.Event, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, level, category, message, user_id, metadata, created_at FROM events ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var created int64
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &created); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.CreatedAt = fromDB(created)
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteBefore removes events older than cutoff and returns the count.
func (l *EventLog) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, toDB(cutoff))
	if err != nil {
		return 0, fmt.Errorf("pruning events: %w", err)
	}
	return res.RowsAffected()
}
