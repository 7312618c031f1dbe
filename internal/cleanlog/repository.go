package cleanlog

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/ozmo-core/internal/events"
	"github.com/nerrad567/ozmo-core/internal/infrastructure/database"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Entry is one persisted cleaning run.
type Entry struct {
	Timestamp  int64     `json:"timestamp"`
	Type       string    `json:"type"`
	Area       int       `json:"area"`
	Duration   int       `json:"duration"`
	StopReason int       `json:"stop_reason"`
	ImageURL   string    `json:"image_url"`
	RecordedAt time.Time `json:"recorded_at"`
}

// StatusRecord is one persisted availability/state transition.
type StatusRecord struct {
	Available  bool      `json:"available"`
	State      string    `json:"state"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Repository stores cleaning history and status transitions.
type Repository struct {
	db *database.DB
}

// NewRepository creates a repository over an open, migrated database.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// UpsertLogs stores every entry of a clean-log event. Entries are keyed
// by the portal timestamp, so re-fetching the same history is idempotent.
func (r *Repository) UpsertLogs(ctx context.Context, logs []events.CleanLogEntry) error {
	if len(logs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning clean log transaction: %w", err)
	}
	defer tx.Rollback()

	for _, log := range logs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO clean_logs (timestamp, log_type, area, duration, stop_reason, image_url)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(timestamp) DO UPDATE SET
			   log_type = excluded.log_type,
			   area = excluded.area,
			   duration = excluded.duration,
			   stop_reason = excluded.stop_reason,
			   image_url = excluded.image_url`,
			log.Timestamp, log.Type, log.Area, log.Duration, log.StopReason, log.ImageURL,
		)
		if err != nil {
			return fmt.Errorf("upserting clean log %d: %w", log.Timestamp, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing clean logs: %w", err)
	}
	return nil
}

// RecentLogs returns stored runs, newest first.
//
// Parameters:
//   - limit: Maximum entries to return (default 50, max 200)
func (r *Repository) RecentLogs(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT timestamp, log_type, area, duration, stop_reason, image_url, recorded_at
		 FROM clean_logs
		 ORDER BY timestamp DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying clean logs: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Timestamp, &e.Type, &e.Area, &e.Duration, &e.StopReason, &e.ImageURL, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning clean log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clean logs: %w", err)
	}
	return entries, nil
}

// RecordStatus appends one availability/state transition.
func (r *Repository) RecordStatus(ctx context.Context, status events.StatusEvent) error {
	available := 0
	if status.Available {
		available = 1
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO status_history (available, state) VALUES (?, ?)",
		available, status.State.String(),
	)
	if err != nil {
		return fmt.Errorf("inserting status record: %w", err)
	}
	return nil
}

// StatusHistory returns stored transitions, newest first.
func (r *Repository) StatusHistory(ctx context.Context, limit int) ([]StatusRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT available, state, recorded_at
		 FROM status_history
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying status history: %w", err)
	}
	defer rows.Close()

	records := make([]StatusRecord, 0, limit)
	for rows.Next() {
		var (
			rec       StatusRecord
			available int
		)
		if err := rows.Scan(&available, &rec.State, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning status record: %w", err)
		}
		rec.Available = available == 1
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status history: %w", err)
	}
	return records, nil
}
