package docserve

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ProcessingEvent is one recorded processing attempt.
type ProcessingEvent struct {
	FileName       string
	FileType       string
	Classification string
	Success        bool
	DurationMs     int64
	Error          string
}

// EventStore persists processing events to sqlite.
type EventStore struct {
	db *sql.DB
}

// OpenEventStore opens (creating if needed) the event database.
func OpenEventStore(path string) (*EventStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("events dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open events db: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS processing_events (
			event_id       TEXT PRIMARY KEY,
			file_name      TEXT NOT NULL,
			file_type      TEXT NOT NULL DEFAULT '',
			classification TEXT NOT NULL DEFAULT '',
			success        INTEGER NOT NULL,
			duration_ms    INTEGER NOT NULL DEFAULT 0,
			error          TEXT NOT NULL DEFAULT '',
			created_at     INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_processing_events_created
			ON processing_events(created_at);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("events schema: %w", err)
	}
	return &EventStore{db: db}, nil
}

// Record writes one event. Non-blocking: errors are logged via slog but do
// not propagate, so a failing event store never fails a request.
func (s *EventStore) Record(ctx context.Context, ev ProcessingEvent) {
	if s == nil {
		return
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processing_events (
			event_id, file_name, file_type, classification,
			success, duration_ms, error, created_at
		) VALUES (?,?,?,?,?,?,?,?)`,
		"evt_"+uuid.NewString(), ev.FileName, ev.FileType, ev.Classification,
		ev.Success, ev.DurationMs, ev.Error, time.Now().Unix())
	if err != nil {
		slog.Error("processing event log failed", "error", err, "file", ev.FileName)
	}
}

// Count returns the number of recorded events, surfaced in the health
// endpoint.
func (s *EventStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processing_events`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *EventStore) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
