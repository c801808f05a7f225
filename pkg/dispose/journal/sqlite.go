package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists lifecycle events to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite journal.
// The path should be a file path (e.g., "./lifecycle.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Create table and index
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS lifecycle_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			object TEXT NOT NULL,
			object_id TEXT NOT NULL,
			event TEXT NOT NULL,
			error TEXT NOT NULL,
			duration_ns INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_lifecycle_events_object
		ON lifecycle_events(object)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO lifecycle_events (object, object_id, event, error, duration_ns, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.Object, e.ObjectID, string(e.Event), e.Err, e.Duration.Nanoseconds(),
		e.RecordedAt.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(object string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	query := `
		SELECT object, object_id, event, error, duration_ns, recorded_at
		FROM lifecycle_events
	`
	args := []any{}
	if object != "" {
		query += ` WHERE object = ?`
		args = append(args, object)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var event, recordedAt string
		var durationNs int64
		if err := rows.Scan(&e.Object, &e.ObjectID, &event, &e.Err, &durationNs, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Event = Kind(event)
		e.Duration = time.Duration(durationNs)
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return entries, nil
}

// Prune implements Store.
func (s *SQLiteStore) Prune(before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		DELETE FROM lifecycle_events WHERE recorded_at < ?
	`, before.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("prune events: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
