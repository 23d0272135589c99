// Package history keeps a local journal of opened post links and whether
// the backend accepted the read log for each.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lepinkainen/feed-pager/pkg/database"
)

// DefaultDBFile is the journal file name used when no path is configured
const DefaultDBFile = "feed-pager-history.db"

// Entry is one opened link
type Entry struct {
	ID        int64
	URL       string
	ClickedAt time.Time
	Logged    bool
	Error     string
}

// Store is the read history journal
type Store struct {
	db *database.Database
}

// Open opens or creates the journal at dbPath
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = DefaultDBFile
	}

	db, err := database.Open(database.Config{Path: dbPath})
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Debug("History database initialized", "path", dbPath)
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS read_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		clicked_at TIMESTAMP NOT NULL,
		logged BOOLEAN NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_read_history_url ON read_history(url);
	CREATE INDEX IF NOT EXISTS idx_read_history_clicked ON read_history(clicked_at);
	`
	return s.db.ExecuteSchema(schema)
}

// Close closes the journal
func (s *Store) Close() error {
	return s.db.Close()
}

// Database exposes the underlying connection wrapper
func (s *Store) Database() *database.Database {
	return s.db
}

// Record appends an entry and returns its id
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.ClickedAt.IsZero() {
		e.ClickedAt = time.Now()
	}

	result, err := s.db.DB().ExecContext(ctx,
		`INSERT INTO read_history (url, clicked_at, logged, error) VALUES (?, ?, ?, ?)`,
		e.URL, e.ClickedAt.UTC(), e.Logged, e.Error)
	if err != nil {
		return 0, fmt.Errorf("failed to record read: %w", err)
	}
	return result.LastInsertId()
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.DB().QueryContext(ctx,
		`SELECT id, url, clicked_at, logged, error FROM read_history ORDER BY clicked_at DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.URL, &e.ClickedAt, &e.Logged, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetStats returns totals for the journal
func (s *Store) GetStats() (map[string]any, error) {
	stats := make(map[string]any)

	queries := []struct {
		key   string
		query string
	}{
		{"total_clicks", `SELECT COUNT(*) FROM read_history`},
		{"logged_clicks", `SELECT COUNT(*) FROM read_history WHERE logged = 1`},
		{"failed_clicks", `SELECT COUNT(*) FROM read_history WHERE logged = 0`},
		{"distinct_urls", `SELECT COUNT(DISTINCT url) FROM read_history`},
	}

	for _, q := range queries {
		var n int
		if err := s.db.DB().QueryRow(q.query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", q.key, err)
		}
		stats[q.key] = n
	}

	var last sql.NullTime
	if err := s.db.DB().QueryRow(`SELECT clicked_at FROM read_history ORDER BY clicked_at DESC LIMIT 1`).Scan(&last); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last click: %w", err)
	}
	if last.Valid {
		stats["last_click"] = last.Time
	}

	return stats, nil
}

// CleanupOlderThan deletes entries clicked more than age ago
func (s *Store) CleanupOlderThan(age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).UTC()

	result, err := s.db.DB().Exec(`DELETE FROM read_history WHERE clicked_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup history: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		slog.Debug("Cleaned up read history", "count", rowsAffected)
	}
	return rowsAffected, nil
}
